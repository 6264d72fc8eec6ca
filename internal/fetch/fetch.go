// Package fetch fills in item bodies via HTTP and readability extraction.
// Search feed entries usually arrive with only a headline; the scorer needs
// the article text.
package fetch

import (
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"

	"github.com/channelwatch/channelwatch/internal/database"
	"github.com/rs/zerolog/log"
)

// minBodyLen is the extraction floor; shorter results are boilerplate.
const minBodyLen = 100

// Result holds the results of a body fetch run.
type Result struct {
	Fetched int
	Failed  int
}

// BodyFetcher fetches full item text via HTTP + readability extraction.
type BodyFetcher struct {
	db     *database.DB
	client *http.Client
}

// NewBodyFetcher creates a new body fetcher.
func NewBodyFetcher(db *database.DB, timeout time.Duration) *BodyFetcher {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &BodyFetcher{
		db: db,
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
	}
}

// FetchMissingBodies fetches body text for items that have none. A domain
// that returns an HTTP error is skipped for the rest of the run.
func (f *BodyFetcher) FetchMissingBodies(periodID *string) *Result {
	items, err := f.db.GetItemsNeedingFetch(periodID)
	if err != nil {
		log.Error().Err(err).Msg("querying items needing fetch")
		return &Result{}
	}

	if len(items) == 0 {
		log.Info().Msg("no items need body fetching")
		return &Result{}
	}

	result := &Result{}
	failedDomains := make(map[string]struct{})

	for _, item := range items {
		u, _ := url.Parse(item.URL)
		domain := ""
		if u != nil {
			domain = strings.ToLower(u.Host)
		}

		if _, failed := failedDomains[domain]; failed {
			f.db.MarkItemFetchAttempted(item.ID)
			result.Failed++
			continue
		}

		body, httpErr := f.fetchBody(item.URL)
		if httpErr != nil {
			f.db.MarkItemFetchAttempted(item.ID)
			result.Failed++
			if domain != "" {
				failedDomains[domain] = struct{}{}
			}
			log.Warn().Str("url", item.URL).Str("domain", domain).Msg("HTTP error, skipping remaining from domain")
			continue
		}

		if body != "" {
			f.db.UpdateItemBody(item.ID, &body)
			result.Fetched++
			log.Debug().Str("title", item.Title).Msg("fetched item body")
		} else {
			f.db.MarkItemFetchAttempted(item.ID)
			result.Failed++
			log.Debug().Str("url", item.URL).Msg("no extractable body")
		}
	}

	log.Info().Int("fetched", result.Fetched).Int("failed", result.Failed).Msg("body fetch complete")
	return result
}

func (f *BodyFetcher) fetchBody(itemURL string) (string, error) {
	req, err := http.NewRequest(http.MethodGet, itemURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "channelwatch/1.0 (pricing intelligence collector)")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", nil // connection error, not HTTP error
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", &httpError{code: resp.StatusCode}
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil
	}

	parsedURL, _ := url.Parse(itemURL)
	article, err := readability.FromReader(strings.NewReader(string(bodyBytes)), parsedURL)
	if err != nil {
		return "", nil
	}

	text := strings.TrimSpace(article.TextContent)
	if len(text) > minBodyLen {
		return text, nil
	}
	return "", nil
}

type httpError struct {
	code int
}

func (e *httpError) Error() string {
	return http.StatusText(e.code)
}
