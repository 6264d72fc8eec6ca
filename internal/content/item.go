// Package content defines the canonical item type shared by fetchers and
// the selection pipeline. All key-normalization of raw source records
// happens here, at the ingestion boundary.
package content

import (
	"strings"
	"time"
)

// Source identifies where an item was fetched from.
type Source string

const (
	SourceForum  Source = "forum"
	SourceSearch Source = "search"
)

// Item is a single fetched piece of content.
type Item struct {
	NativeID   string
	Source     Source
	Title      string
	Body       string
	URL        string
	Engagement int // source-native popularity signal, e.g. upvotes
	Comments   int
	Published  time.Time

	// Relevance is assigned by the scorer and may be boosted once by the
	// selector. It is never mutated after source-id assignment.
	Relevance float64

	// Vendors holds vendor names detected by the scorer.
	Vendors []string
}

// Raw is a loosely-shaped record as produced by a fetcher. Sources disagree
// on field names and presence; Normalize folds them into an Item exactly
// once so the scoring and selection logic never sees optional keys.
type Raw struct {
	ID         string
	Title      string
	Body       string
	Text       string // some sources key content as "text"
	URL        string
	Engagement int
	Comments   int
	Published  time.Time
}

// Normalize converts a raw record into a canonical Item. Returns false if
// the record is missing required fields and should be skipped.
func Normalize(r Raw, source Source) (Item, bool) {
	title := strings.TrimSpace(r.Title)
	if title == "" || strings.TrimSpace(r.URL) == "" {
		return Item{}, false
	}

	body := r.Body
	if body == "" {
		body = r.Text
	}

	engagement := r.Engagement
	if engagement < 0 {
		engagement = 0
	}
	comments := r.Comments
	if comments < 0 {
		comments = 0
	}

	return Item{
		NativeID:   strings.TrimSpace(r.ID),
		Source:     source,
		Title:      title,
		Body:       strings.TrimSpace(body),
		URL:        strings.TrimSpace(r.URL),
		Engagement: engagement,
		Comments:   comments,
		Published:  r.Published,
	}, true
}

// Text returns the title and body joined for matching and scoring.
func (it Item) Text() string {
	if it.Body == "" {
		return it.Title
	}
	return it.Title + " " + it.Body
}

// Snippet returns the first n characters of the body, or the title when the
// body is empty.
func (it Item) Snippet(n int) string {
	s := it.Body
	if s == "" {
		s = it.Title
	}
	if len(s) > n {
		s = s[:n]
	}
	return s
}
