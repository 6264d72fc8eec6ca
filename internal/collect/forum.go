package collect

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/channelwatch/channelwatch/internal/config"
	"github.com/channelwatch/channelwatch/internal/content"
	"github.com/rs/zerolog/log"
)

const (
	// Forum listing hosts throttle default Go user agents hard.
	forumUserAgent = "channelwatch/1.0 (pricing intelligence collector)"
	maxPerForum    = 100
)

// ForumClient fetches Reddit-style JSON listings.
type ForumClient struct {
	forums []config.Forum
	client *http.Client
}

// NewForumClient creates a client for the configured forum listings.
func NewForumClient(forums []config.Forum) *ForumClient {
	return &ForumClient{
		forums: forums,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// listing mirrors the subset of the listing payload we read.
type listing struct {
	Data struct {
		Children []struct {
			Data struct {
				ID          string  `json:"id"`
				Title       string  `json:"title"`
				SelfText    string  `json:"selftext"`
				URL         string  `json:"url"`
				Permalink   string  `json:"permalink"`
				Score       int     `json:"score"`
				NumComments int     `json:"num_comments"`
				CreatedUTC  float64 `json:"created_utc"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// FetchAll fetches every configured forum listing and returns items
// published within daysBack. A failing forum is logged and skipped.
func (fc *ForumClient) FetchAll(daysBack int) []content.Item {
	cutoff := time.Now().AddDate(0, 0, -daysBack)
	var all []content.Item

	for _, f := range fc.forums {
		items, err := fc.fetch(f, cutoff)
		if err != nil {
			log.Warn().Err(err).Str("forum", f.Name).Msg("forum fetch failed")
			continue
		}
		log.Info().Str("forum", f.Name).Int("items", len(items)).Msg("forum fetched")
		all = append(all, items...)
	}

	return all
}

func (fc *ForumClient) fetch(f config.Forum, cutoff time.Time) ([]content.Item, error) {
	req, err := http.NewRequest(http.MethodGet, f.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", forumUserAgent)

	resp, err := fc.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &httpStatusError{url: f.URL, status: resp.StatusCode}
	}

	var l listing
	if err := json.NewDecoder(resp.Body).Decode(&l); err != nil {
		return nil, err
	}

	var items []content.Item
	for _, child := range l.Data.Children {
		if len(items) >= maxPerForum {
			break
		}
		d := child.Data

		itemURL := d.URL
		if d.Permalink != "" {
			itemURL = "https://www.reddit.com" + d.Permalink
		}

		var published time.Time
		if d.CreatedUTC > 0 {
			published = time.Unix(int64(d.CreatedUTC), 0).UTC()
		}
		if !published.IsZero() && published.Before(cutoff) {
			continue
		}

		it, ok := content.Normalize(content.Raw{
			ID:         d.ID,
			Title:      d.Title,
			Text:       d.SelfText,
			URL:        itemURL,
			Engagement: d.Score,
			Comments:   d.NumComments,
			Published:  published,
		}, content.SourceForum)
		if !ok {
			continue
		}
		items = append(items, it)
	}

	return items, nil
}

type httpStatusError struct {
	url    string
	status int
}

func (e *httpStatusError) Error() string {
	return "unexpected HTTP status " + http.StatusText(e.status) + " from " + e.url
}
