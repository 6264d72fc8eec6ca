package collect

import (
	"net/url"
	"strings"
	"time"

	"github.com/channelwatch/channelwatch/internal/content"
	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog/log"
)

const maxPerFeed = 50

// FeedConfig represents a single search feed configuration.
type FeedConfig struct {
	URL  string
	Name string
}

// FeedParser parses RSS/Atom search feeds.
type FeedParser struct {
	feeds []FeedConfig
}

// NewFeedParser creates a new FeedParser.
func NewFeedParser(feeds []FeedConfig) *FeedParser {
	return &FeedParser{feeds: feeds}
}

// ParseAll parses all configured feeds and returns items within daysBack.
func (fp *FeedParser) ParseAll(daysBack int) []content.Item {
	cutoff := time.Now().AddDate(0, 0, -daysBack)
	var all []content.Item

	parser := gofeed.NewParser()
	for _, fc := range fp.feeds {
		name := fc.Name
		if name == "" {
			name = extractSourceName(fc.URL)
		}

		items, err := parseFeed(parser, fc.URL, cutoff)
		if err != nil {
			log.Warn().Err(err).Str("feed", name).Msg("feed parse failed")
			continue
		}
		log.Info().Str("feed", name).Int("items", len(items)).Msg("feed parsed")
		all = append(all, items...)
	}

	return all
}

func parseFeed(parser *gofeed.Parser, feedURL string, cutoff time.Time) ([]content.Item, error) {
	feed, err := parser.ParseURL(feedURL)
	if err != nil {
		return nil, err
	}

	var items []content.Item
	for _, entry := range feed.Items {
		if len(items) >= maxPerFeed {
			break
		}

		it, ok := parseEntry(entry)
		if !ok {
			continue
		}
		if !it.Published.IsZero() && it.Published.Before(cutoff) {
			continue
		}
		items = append(items, it)
	}

	return items, nil
}

func parseEntry(entry *gofeed.Item) (content.Item, bool) {
	entryURL := entry.Link
	if entryURL == "" {
		entryURL = entry.GUID
	}

	var published time.Time
	if entry.PublishedParsed != nil {
		published = *entry.PublishedParsed
	} else if entry.UpdatedParsed != nil {
		published = *entry.UpdatedParsed
	}

	var body string
	if entry.Content != "" {
		body = stripHTML(entry.Content)
	} else if entry.Description != "" {
		body = stripHTML(entry.Description)
	}

	return content.Normalize(content.Raw{
		ID:        entry.GUID,
		Title:     entry.Title,
		Body:      body,
		URL:       entryURL,
		Published: published,
	}, content.SourceSearch)
}

func stripHTML(text string) string {
	var result strings.Builder
	inTag := false
	for _, r := range text {
		if r == '<' {
			inTag = true
			result.WriteRune(' ')
			continue
		}
		if r == '>' {
			inTag = false
			continue
		}
		if !inTag {
			result.WriteRune(r)
		}
	}

	s := result.String()
	s = strings.ReplaceAll(s, "&nbsp;", " ")
	s = strings.ReplaceAll(s, "&amp;", "&")
	s = strings.ReplaceAll(s, "&lt;", "<")
	s = strings.ReplaceAll(s, "&gt;", ">")
	s = strings.ReplaceAll(s, "&quot;", `"`)
	s = strings.ReplaceAll(s, "&#39;", "'")

	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}

func extractSourceName(feedURL string) string {
	u, err := url.Parse(feedURL)
	if err != nil {
		return feedURL
	}
	host := strings.ToLower(u.Hostname())

	for _, prefix := range []string{"www.", "news.", "rss.", "feeds."} {
		host = strings.TrimPrefix(host, prefix)
	}

	parts := strings.Split(host, ".")
	if len(parts) >= 2 {
		name := parts[len(parts)-2]
		return strings.ToUpper(name[:1]) + name[1:]
	}
	return strings.ToUpper(host[:1]) + host[1:]
}
