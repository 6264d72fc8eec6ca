package summarize

import (
	"strings"
	"testing"

	"github.com/channelwatch/channelwatch/internal/content"
	"github.com/channelwatch/channelwatch/internal/sourceid"
)

func TestResolveCitationsInvalidNumberClamped(t *testing.T) {
	_, _, idMap := testItems()
	s := testSummarizer(t, &mockProvider{})

	in, _ := s.resolveCitations("VCSP commitments doubled [forum_9]", idMap)

	if !in.Repaired {
		t.Error("expected repair for out-of-range citation")
	}
	if in.Flagged {
		t.Error("repaired citation should not be flagged")
	}
	if len(in.SourceIDs) != 1 || in.SourceIDs[0] != "forum_1" {
		t.Errorf("expected clamp to forum_1, got %v", in.SourceIDs)
	}
	if !strings.Contains(in.Text, "[forum_1]") || strings.Contains(in.Text, "[forum_9]") {
		t.Errorf("text not rewritten: %q", in.Text)
	}
}

func TestResolveCitationsMalformedShapeNormalized(t *testing.T) {
	_, _, idMap := testItems()
	s := testSummarizer(t, &mockProvider{})

	in, _ := s.resolveCitations("Citrix partner pricing changed [Search-1]", idMap)

	if !in.Repaired || in.Flagged {
		t.Errorf("expected shape normalization repair, got %+v", in)
	}
	if len(in.SourceIDs) != 1 || in.SourceIDs[0] != "search_1" {
		t.Errorf("expected search_1, got %v", in.SourceIDs)
	}
}

func TestResolveCitationsMixedValidAndInvalid(t *testing.T) {
	_, _, idMap := testItems()
	s := testSummarizer(t, &mockProvider{})

	in, _ := s.resolveCitations("Pricing pressure across vendors [forum_1] [search_7]", idMap)

	if len(in.SourceIDs) != 2 {
		t.Fatalf("expected 2 source ids, got %v", in.SourceIDs)
	}
	if in.SourceIDs[0] != "forum_1" || in.SourceIDs[1] != "search_1" {
		t.Errorf("unexpected ids: %v", in.SourceIDs)
	}
	if !in.Repaired {
		t.Error("expected repair marker for the invalid half")
	}
}

func TestResolveCitationsUncitedMatchedByOverlap(t *testing.T) {
	_, _, idMap := testItems()
	s := testSummarizer(t, &mockProvider{})

	// Heavy word overlap with the forum_1 record title.
	in, _ := s.resolveCitations("Broadcom doubles minimum commitment requirements for VCSP partners", idMap)

	if !in.Repaired {
		t.Error("expected content-overlap repair")
	}
	if in.Flagged {
		t.Error("a confident match should not be flagged")
	}
	if len(in.SourceIDs) != 1 || in.SourceIDs[0] != "forum_1" {
		t.Errorf("expected forum_1 from overlap, got %v", in.SourceIDs)
	}
	if !strings.HasSuffix(in.Text, "[forum_1]") {
		t.Errorf("expected citation appended, got %q", in.Text)
	}
}

func TestResolveCitationsUncitedNoMatchFlagged(t *testing.T) {
	_, _, idMap := testItems()
	s := testSummarizer(t, &mockProvider{})

	in, warnings := s.resolveCitations("Completely unrelated statement about weather", idMap)

	if !in.Flagged {
		t.Error("expected flag when no record clears the repair floor")
	}
	if len(in.SourceIDs) != 1 {
		t.Errorf("flagged insight still needs a citation, got %v", in.SourceIDs)
	}
	if len(warnings) == 0 {
		t.Error("expected a warning for the flagged insight")
	}
}

func TestValidateResponseEmptySummaryRejected(t *testing.T) {
	_, _, idMap := testItems()
	s := testSummarizer(t, &mockProvider{})

	_, err := s.validateResponse(`{"executive_summary": "  ", "key_insights": [], "recommendations": [], "vendor_landscape": {}}`, idMap)
	if err == nil {
		t.Error("expected error for empty executive_summary")
	}
}

func TestValidateResponseFencedJSON(t *testing.T) {
	_, _, idMap := testItems()
	s := testSummarizer(t, &mockProvider{})

	fenced := "```json\n" + validResponse("Citrix pricing shifted [search_1]") + "\n```"
	analysis, err := s.validateResponse(fenced, idMap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(analysis.Insights) != 1 {
		t.Errorf("expected 1 insight from fenced response, got %d", len(analysis.Insights))
	}
}

func TestRepairIDFallsThrough(t *testing.T) {
	items := []content.Item{
		{Title: "A", URL: "https://a", Source: content.SourceForum},
		{Title: "B", URL: "https://b", Source: content.SourceForum},
		{Title: "C", URL: "https://c", Source: content.SourceSearch},
	}
	_, idMap := sourceid.Assign(items)

	if id, ok := repairID("forum_2", idMap); !ok || id != "forum_2" {
		t.Errorf("valid-after-normalize id mishandled: %s %v", id, ok)
	}
	if id, ok := repairID("forum_7", idMap); !ok || id != "forum_2" {
		t.Errorf("expected prefix clamp to forum_2, got %s %v", id, ok)
	}
	if _, ok := repairID("zzz9", idMap); ok {
		t.Error("expected no repair for garbage token")
	}
}
