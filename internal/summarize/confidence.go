package summarize

import (
	"math"
	"regexp"
	"strings"
)

// quantifiedRe matches dollar amounts, percentages and standalone numbers
// of two or more digits, the signals of a quantified claim.
var quantifiedRe = regexp.MustCompile(`\$\s?[0-9][0-9,.]*|[0-9]+(?:\.[0-9]+)?%|\b[0-9]{2,}\b`)

// confidenceRule is one scoring signal applied to an insight. Every rule
// runs for every insight in order; a rule contributes its returned weight
// and, when positive, its label to the factor list.
type confidenceRule struct {
	label string
	eval  func(ins Insight, text string) float64
}

// estimateConfidence scores one insight from a fixed, ordered rule list:
// vendor tier, citation diversity, quantified data, critical-keyword
// density. The score starts at the configured base and is capped at 1.0.
func (s *Summarizer) estimateConfidence(ins Insight) Confidence {
	cfg := s.confCfg

	rules := []confidenceRule{
		{"vendor tier", func(ins Insight, text string) float64 {
			tier := s.scorer.BestTier(s.scorer.DetectVendors(text))
			if tier >= 1 && tier <= len(cfg.TierBoosts) {
				return cfg.TierBoosts[tier-1]
			}
			return 0
		}},
		{"citation count", func(ins Insight, text string) float64 {
			switch {
			case len(ins.SourceIDs) >= 2:
				return cfg.DiversityMulti
			case len(ins.SourceIDs) == 1:
				return cfg.DiversitySingle
			}
			return 0
		}},
		{"cross-source citations", func(ins Insight, text string) float64 {
			if citationSources(ins.SourceIDs) >= 2 {
				return cfg.DiversityCross
			}
			return 0
		}},
		{"quantified data", func(ins Insight, text string) float64 {
			switch n := len(quantifiedRe.FindAllString(text, -1)); {
			case n >= 3:
				return cfg.QuantifiedMany
			case n >= 1:
				return cfg.QuantifiedSome
			}
			return 0
		}},
		{"critical keywords", func(ins Insight, text string) float64 {
			switch n := s.matcher.CriticalCount(text); {
			case n >= 2:
				return cfg.CriticalMulti
			case n == 1:
				return cfg.CriticalSingle
			}
			return 0
		}},
	}

	score := cfg.Base
	var factors []string
	for _, r := range rules {
		if w := r.eval(ins, ins.Text); w > 0 {
			score += w
			factors = append(factors, r.label)
		}
	}
	if ins.Flagged {
		factors = append(factors, "fallback citation")
	}
	score = math.Min(score, 1.0)

	level := "low"
	switch {
	case score >= cfg.HighThreshold:
		level = "high"
	case score >= cfg.MediumThreshold:
		level = "medium"
	}

	return Confidence{
		Score:      score,
		Level:      level,
		Factors:    factors,
		Percentage: int(math.Round(score * 100)),
	}
}

// citationSources counts the distinct source prefixes across an insight's
// citations.
func citationSources(ids []string) int {
	seen := make(map[string]bool)
	for _, id := range ids {
		if i := strings.IndexByte(id, '_'); i > 0 {
			seen[id[:i]] = true
		}
	}
	return len(seen)
}
