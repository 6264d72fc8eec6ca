// Package collect gathers raw content from community forums and news
// search feeds and stores it for the selection pipeline.
package collect

import (
	"github.com/channelwatch/channelwatch/internal/config"
	"github.com/channelwatch/channelwatch/internal/content"
	"github.com/channelwatch/channelwatch/internal/database"
	"github.com/channelwatch/channelwatch/internal/dedupe"
	"github.com/rs/zerolog/log"
)

// Result holds the results of a collection run.
type Result struct {
	TotalFound int
	NewItems   int
	Duplicates int
	Sources    map[string]int
}

// Collector orchestrates item collection from forum listings and search
// feeds.
type Collector struct {
	db          *database.DB
	forumClient *ForumClient
	feedParser  *FeedParser
	daysBack    int
}

// NewCollector creates a collector from the configured sources.
func NewCollector(cfg *config.Config, db *database.DB, daysBack int) *Collector {
	c := &Collector{db: db, daysBack: daysBack}

	if len(cfg.Sources.Forums) > 0 {
		c.forumClient = NewForumClient(cfg.Sources.Forums)
	}
	if len(cfg.Sources.SearchFeeds) > 0 {
		feeds := make([]FeedConfig, len(cfg.Sources.SearchFeeds))
		for i, f := range cfg.Sources.SearchFeeds {
			feeds[i] = FeedConfig{URL: f.URL, Name: f.Name}
		}
		c.feedParser = NewFeedParser(feeds)
	}

	return c
}

// Collect fetches from all configured sources, drops near-duplicates, and
// stores the remainder. The URL uniqueness constraint catches items seen
// in earlier runs.
func (c *Collector) Collect(periodID string) *Result {
	r := &Result{Sources: make(map[string]int)}

	var items []content.Item
	if c.forumClient != nil {
		log.Info().Msg("collecting from forum listings")
		items = append(items, c.forumClient.FetchAll(c.daysBack)...)
	}
	if c.feedParser != nil {
		log.Info().Msg("collecting from search feeds")
		items = append(items, c.feedParser.ParseAll(c.daysBack)...)
	}

	r.TotalFound = len(items)
	kept := dedupe.Deduplicate(items)
	r.Duplicates = len(items) - len(kept)

	for _, it := range kept {
		id, _ := c.db.InsertItem(toRow(it, periodID))
		if id > 0 {
			r.NewItems++
			r.Sources[string(it.Source)]++
		} else {
			r.Duplicates++
		}
	}

	log.Info().
		Int("found", r.TotalFound).
		Int("new", r.NewItems).
		Int("duplicates", r.Duplicates).
		Msg("collection complete")
	return r
}

func toRow(it content.Item, periodID string) database.Item {
	row := database.Item{
		Source:     string(it.Source),
		URL:        it.URL,
		Title:      it.Title,
		Engagement: it.Engagement,
		Comments:   it.Comments,
		PeriodID:   &periodID,
	}
	if it.NativeID != "" {
		row.NativeID = &it.NativeID
	}
	if it.Body != "" {
		body := it.Body
		row.Body = &body
	}
	if !it.Published.IsZero() {
		d := it.Published.Format("2006-01-02")
		row.PublishedDate = &d
	}
	return row
}
