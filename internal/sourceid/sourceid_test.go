package sourceid

import (
	"testing"

	"github.com/channelwatch/channelwatch/internal/content"
)

func TestAssignNumbersPerSource(t *testing.T) {
	items := []content.Item{
		{Title: "A", URL: "https://a", Source: content.SourceForum},
		{Title: "B", URL: "https://b", Source: content.SourceSearch},
		{Title: "C", URL: "https://c", Source: content.SourceForum},
		{Title: "D", URL: "https://d", Source: content.SourceForum},
	}

	ids, m := Assign(items)

	want := []string{"forum_1", "search_1", "forum_2", "forum_3"}
	for i, id := range ids {
		if id != want[i] {
			t.Errorf("id %d: expected %s, got %s", i, want[i], id)
		}
	}
	if m.Len() != 4 {
		t.Errorf("expected 4 records, got %d", m.Len())
	}
}

func TestAssignRecordsCarryItemFacts(t *testing.T) {
	items := []content.Item{
		{
			Title:     "Broadcom pricing",
			URL:       "https://example.com/post",
			Source:    content.SourceForum,
			Body:      "the details",
			Relevance: 6.5,
			Vendors:   []string{"VMware"},
		},
	}

	_, m := Assign(items)

	rec, ok := m.Get("forum_1")
	if !ok {
		t.Fatal("expected record for forum_1")
	}
	if rec.Title != "Broadcom pricing" || rec.URL != "https://example.com/post" {
		t.Errorf("record missing item facts: %+v", rec)
	}
	if rec.Relevance != 6.5 {
		t.Errorf("expected relevance carried over, got %.2f", rec.Relevance)
	}
	if rec.Snippet != "the details" {
		t.Errorf("unexpected snippet: %q", rec.Snippet)
	}
}

func TestAssignEmpty(t *testing.T) {
	ids, m := Assign(nil)
	if len(ids) != 0 || m.Len() != 0 {
		t.Error("expected empty assignment for empty input")
	}
}

func TestIDsPreserveOrder(t *testing.T) {
	items := []content.Item{
		{Title: "A", URL: "https://a", Source: content.SourceSearch},
		{Title: "B", URL: "https://b", Source: content.SourceForum},
	}
	_, m := Assign(items)

	ids := m.IDs()
	if ids[0] != "search_1" || ids[1] != "forum_1" {
		t.Errorf("ids out of order: %v", ids)
	}
}

func TestValidShape(t *testing.T) {
	valid := []string{"forum_1", "search_12"}
	invalid := []string{"forum", "forum_", "_1", "Forum_1", "forum 1", "forum_1x"}

	for _, id := range valid {
		if !ValidShape(id) {
			t.Errorf("expected %q to be valid", id)
		}
	}
	for _, id := range invalid {
		if ValidShape(id) {
			t.Errorf("expected %q to be invalid", id)
		}
	}
}
