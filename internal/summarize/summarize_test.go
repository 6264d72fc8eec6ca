package summarize

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/channelwatch/channelwatch/internal/config"
	"github.com/channelwatch/channelwatch/internal/content"
	"github.com/channelwatch/channelwatch/internal/score"
	"github.com/channelwatch/channelwatch/internal/sourceid"
)

// mockProvider implements llm.Provider for testing.
type mockProvider struct {
	response string
	err      error
	prompt   string
}

func (m *mockProvider) Generate(_ context.Context, prompt string, _ int) (string, error) {
	m.prompt = prompt
	return m.response, m.err
}

func (m *mockProvider) IsConfigured() bool { return true }

func testSummarizer(t *testing.T, p *mockProvider) *Summarizer {
	t.Helper()
	cfg, err := config.Default()
	if err != nil {
		t.Fatalf("loading default config: %v", err)
	}
	scorer := score.NewScorer(cfg.Taxonomy, cfg.Vendors)
	matcher := score.NewMatcher(cfg.Patterns)
	return NewSummarizer(p, scorer, matcher, cfg)
}

func testItems() ([]content.Item, []string, *sourceid.Map) {
	items := []content.Item{
		{
			Title:      "Broadcom doubles VCSP minimum commitment requirements",
			URL:        "https://reddit.com/r/msp/abc",
			Source:     content.SourceForum,
			Body:       "Our VCSP renewal came in at double the core commitment.",
			Engagement: 153,
			Comments:   56,
			Published:  time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC),
			Relevance:  6.5,
			Vendors:    []string{"VMware", "Broadcom"},
		},
		{
			Title:     "Citrix announces new partner pricing",
			URL:       "https://news.example.com/citrix",
			Source:    content.SourceSearch,
			Body:      "Citrix is changing how partners buy licenses.",
			Relevance: 4.0,
			Vendors:   []string{"Citrix"},
		},
	}
	ids, idMap := sourceid.Assign(items)
	return items, ids, idMap
}

func validResponse(insights ...string) string {
	data, _ := json.Marshal(map[string]any{
		"executive_summary": "Vendor pricing pressure continued this period.",
		"key_insights":      insights,
		"recommendations":   []string{"Review VCSP commitments before renewal."},
		"vendor_landscape":  map[string]string{"VMware": "Aggressive price increases."},
	})
	return string(data)
}

func TestSummarizeValidResponse(t *testing.T) {
	items, ids, idMap := testItems()
	provider := &mockProvider{response: validResponse(
		"Broadcom doubled VCSP minimum commitments this quarter [forum_1]",
	)}
	s := testSummarizer(t, provider)

	analysis := s.Summarize(context.Background(), items, ids, idMap)

	if analysis.Fallback {
		t.Fatal("expected real analysis, got fallback")
	}
	if len(analysis.Insights) != 1 {
		t.Fatalf("expected 1 insight, got %d", len(analysis.Insights))
	}
	in := analysis.Insights[0]
	if in.Repaired || in.Flagged {
		t.Errorf("valid citation should be accepted as-is: %+v", in)
	}
	if len(in.SourceIDs) != 1 || in.SourceIDs[0] != "forum_1" {
		t.Errorf("expected source id forum_1, got %v", in.SourceIDs)
	}
	if in.Confidence.Score <= 0 || in.Confidence.Score > 1.0 {
		t.Errorf("confidence out of range: %.2f", in.Confidence.Score)
	}
}

func TestSummarizePromptContainsIDsAndCitationRule(t *testing.T) {
	items, ids, idMap := testItems()
	provider := &mockProvider{response: validResponse()}
	s := testSummarizer(t, provider)

	s.Summarize(context.Background(), items, ids, idMap)

	for _, want := range []string{
		"[forum_1]", "[search_1]", "CITATION RULES",
		"Relevance: 6.5",
		"Published: 2026-08-29",
		"URL: https://reddit.com/r/msp/abc",
		"\n---\n",
	} {
		if !strings.Contains(provider.prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestSummarizeMalformedJSONFallsBack(t *testing.T) {
	items, ids, idMap := testItems()
	s := testSummarizer(t, &mockProvider{response: "I could not produce JSON, sorry."})

	analysis := s.Summarize(context.Background(), items, ids, idMap)
	if !analysis.Fallback {
		t.Error("expected fallback for unparseable response")
	}
	if len(analysis.Insights) != 0 {
		t.Error("fallback must carry no insights")
	}
}

func TestSummarizeMissingRequiredKeyFallsBack(t *testing.T) {
	items, ids, idMap := testItems()
	data, _ := json.Marshal(map[string]any{
		"executive_summary": "Summary only.",
		"key_insights":      []string{},
	})
	s := testSummarizer(t, &mockProvider{response: string(data)})

	analysis := s.Summarize(context.Background(), items, ids, idMap)
	if !analysis.Fallback {
		t.Error("expected fallback when required keys are missing")
	}
}

func TestSummarizeProviderErrorFallsBack(t *testing.T) {
	items, ids, idMap := testItems()
	s := testSummarizer(t, &mockProvider{err: errors.New("connection refused")})

	analysis := s.Summarize(context.Background(), items, ids, idMap)
	if !analysis.Fallback {
		t.Error("expected fallback on provider error")
	}
}

func TestSummarizeNoItemsIsNotFallback(t *testing.T) {
	provider := &mockProvider{response: validResponse()}
	s := testSummarizer(t, provider)

	_, idMap := sourceid.Assign(nil)
	analysis := s.Summarize(context.Background(), nil, nil, idMap)

	if analysis.Fallback {
		t.Error("an empty selection is not a model failure")
	}
	if provider.prompt != "" {
		t.Error("no model call should happen for an empty selection")
	}
	if !strings.Contains(analysis.Summary, "No relevant") {
		t.Errorf("unexpected empty-run summary: %q", analysis.Summary)
	}
}
