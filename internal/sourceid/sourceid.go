// Package sourceid assigns stable, source-prefixed citation identifiers to
// selected items. IDs are assigned after selection and truncation, never
// before: an id handed out earlier would dangle once its item is cut.
package sourceid

import (
	"fmt"
	"regexp"
	"time"

	"github.com/channelwatch/channelwatch/internal/content"
)

// Record is the side-table entry behind a source id. It is the only handle
// by which citation validation can locate the originating item.
type Record struct {
	SourceID  string
	Title     string
	URL       string
	Source    content.Source
	Snippet   string
	Relevance float64
	Published time.Time
	Vendors   []string
}

// Map holds the per-run id table in assignment order.
type Map struct {
	order   []string
	records map[string]Record
}

// idPattern matches the <source>_<sequence> id shape.
var idPattern = regexp.MustCompile(`^[a-z]+_[0-9]+$`)

const snippetLen = 500

// Assign numbers the selected items 1..k per source, in selection order,
// and returns the id for each item alongside the record table. Every item
// receives exactly one id and the table contains exactly the ids assigned.
func Assign(items []content.Item) ([]string, *Map) {
	counters := make(map[content.Source]int)
	ids := make([]string, len(items))
	m := &Map{records: make(map[string]Record, len(items))}

	for i, it := range items {
		counters[it.Source]++
		id := fmt.Sprintf("%s_%d", it.Source, counters[it.Source])
		ids[i] = id
		m.order = append(m.order, id)
		m.records[id] = Record{
			SourceID:  id,
			Title:     it.Title,
			URL:       it.URL,
			Source:    it.Source,
			Snippet:   it.Snippet(snippetLen),
			Relevance: it.Relevance,
			Published: it.Published,
			Vendors:   it.Vendors,
		}
	}
	return ids, m
}

// Get returns the record for an id.
func (m *Map) Get(id string) (Record, bool) {
	r, ok := m.records[id]
	return r, ok
}

// Has reports whether an id exists in the table.
func (m *Map) Has(id string) bool {
	_, ok := m.records[id]
	return ok
}

// IDs returns all assigned ids in assignment order.
func (m *Map) IDs() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// Records returns all records in assignment order.
func (m *Map) Records() []Record {
	out := make([]Record, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.records[id])
	}
	return out
}

// Len returns the number of assigned ids.
func (m *Map) Len() int {
	return len(m.order)
}

// ValidShape reports whether a token has the <source>_<n> id shape,
// whether or not it was assigned this run.
func ValidShape(token string) bool {
	return idPattern.MatchString(token)
}
