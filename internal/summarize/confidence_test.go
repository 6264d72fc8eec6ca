package summarize

import (
	"testing"
)

func TestConfidenceBaseOnly(t *testing.T) {
	s := testSummarizer(t, &mockProvider{})

	c := s.estimateConfidence(Insight{
		Text:      "Something shifted in the market [forum_1]",
		SourceIDs: []string{"forum_1"},
	})

	// Base 0.5 + single citation 0.1, no vendor, no numbers, no critical.
	if c.Score != 0.6 {
		t.Errorf("expected 0.6, got %.2f", c.Score)
	}
	if c.Level != "medium" {
		t.Errorf("expected medium, got %s", c.Level)
	}
	if c.Percentage != 60 {
		t.Errorf("expected 60%%, got %d", c.Percentage)
	}
}

func TestConfidenceStacksFactors(t *testing.T) {
	s := testSummarizer(t, &mockProvider{})

	c := s.estimateConfidence(Insight{
		Text:      "VMware renewals rose 40% this quarter [forum_1] [search_1]",
		SourceIDs: []string{"forum_1", "search_1"},
	})

	// Base 0.5 + tier-1 vendor 0.3 + multi 0.15 + cross 0.05 + quantified 0.1
	// would exceed 1.0; the cap applies.
	if c.Score != 1.0 {
		t.Errorf("expected capped score 1.0, got %.2f", c.Score)
	}
	if c.Level != "high" {
		t.Errorf("expected high, got %s", c.Level)
	}
	if len(c.Factors) < 3 {
		t.Errorf("expected several factors, got %v", c.Factors)
	}
}

func TestConfidenceVendorTierBoost(t *testing.T) {
	s := testSummarizer(t, &mockProvider{})

	tier1 := s.estimateConfidence(Insight{Text: "VMware changed terms"})
	tier2 := s.estimateConfidence(Insight{Text: "Veeam changed terms"})
	none := s.estimateConfidence(Insight{Text: "Somebody changed terms"})

	if tier1.Score <= tier2.Score {
		t.Errorf("tier-1 vendor should outrank tier-2: %.2f vs %.2f", tier1.Score, tier2.Score)
	}
	if tier2.Score <= none.Score {
		t.Errorf("tier-2 vendor should outrank no vendor: %.2f vs %.2f", tier2.Score, none.Score)
	}
}

func TestConfidenceOnlyHighestTierCounts(t *testing.T) {
	s := testSummarizer(t, &mockProvider{})

	one := s.estimateConfidence(Insight{Text: "VMware pricing shift"})
	two := s.estimateConfidence(Insight{Text: "VMware and Broadcom pricing shift"})

	// Both vendors are tier 1; mentioning a second must not double the boost.
	if one.Score != two.Score {
		t.Errorf("expected identical scores, got %.2f and %.2f", one.Score, two.Score)
	}
}

func TestConfidenceQuantifiedTiers(t *testing.T) {
	s := testSummarizer(t, &mockProvider{})

	some := s.estimateConfidence(Insight{Text: "Costs rose 20% for many"})
	many := s.estimateConfidence(Insight{Text: "Costs rose 20%, from $1,000 to $1,200 per host"})

	if many.Score <= some.Score {
		t.Errorf("three or more figures should score above one: %.2f vs %.2f", many.Score, some.Score)
	}
}

func TestConfidenceCriticalDensity(t *testing.T) {
	s := testSummarizer(t, &mockProvider{})

	single := s.estimateConfidence(Insight{Text: "The program shutdown was confirmed"})
	multi := s.estimateConfidence(Insight{Text: "The program shutdown follows the acquisition and a license audit"})

	if single.Score <= s.confCfg.Base {
		t.Errorf("expected critical phrase to raise score above base, got %.2f", single.Score)
	}
	if multi.Score <= single.Score {
		t.Errorf("multiple critical phrases should score higher: %.2f vs %.2f", multi.Score, single.Score)
	}
}

func TestConfidenceLowWithoutSignals(t *testing.T) {
	s := testSummarizer(t, &mockProvider{})

	c := s.estimateConfidence(Insight{Text: "General market commentary"})
	if c.Level != "low" {
		t.Errorf("expected low level at base score, got %s (%.2f)", c.Level, c.Score)
	}
	if len(c.Factors) != 0 {
		t.Errorf("expected no factors, got %v", c.Factors)
	}
}

func TestConfidenceFlaggedFactorRecorded(t *testing.T) {
	s := testSummarizer(t, &mockProvider{})

	c := s.estimateConfidence(Insight{Text: "Anything [forum_1]", SourceIDs: []string{"forum_1"}, Flagged: true})
	found := false
	for _, f := range c.Factors {
		if f == "fallback citation" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected fallback citation factor, got %v", c.Factors)
	}
}
