// Package score computes heuristic relevance scores against the pricing
// taxonomy and detects vendor mentions. Scores are comparable only within
// a single run; they are not calibrated probabilities.
package score

import (
	"strings"

	"github.com/channelwatch/channelwatch/internal/config"
	"github.com/channelwatch/channelwatch/internal/content"
)

// Scorer scores item text against a weighted keyword taxonomy, a vendor
// list, and tiered urgency phrases.
type Scorer struct {
	categories []config.Category
	urgency    config.UrgencyTiers
	vendors    []config.Vendor

	vendorWeight float64
	vendorCap    int
}

// NewScorer creates a scorer from the configured taxonomy and vendor list.
func NewScorer(taxonomy config.Taxonomy, vendors []config.Vendor) *Scorer {
	cap := taxonomy.VendorMentionCap
	if cap <= 0 {
		cap = 3
	}
	return &Scorer{
		categories:   taxonomy.Categories,
		urgency:      taxonomy.Urgency,
		vendors:      vendors,
		vendorWeight: taxonomy.VendorMentionWeight,
		vendorCap:    cap,
	}
}

// ScoreItems assigns a relevance score and detected vendors to every item
// in place. Never fails: missing taxonomy categories score zero.
func (s *Scorer) ScoreItems(items []content.Item) []content.Item {
	for i := range items {
		text := strings.ToLower(items[i].Text())
		items[i].Vendors = s.detectVendors(text)
		items[i].Relevance = s.score(text, len(items[i].Vendors))
	}
	return items
}

// Score computes the base relevance score for a text.
func (s *Scorer) Score(text string) float64 {
	lower := strings.ToLower(text)
	return s.score(lower, len(s.detectVendors(lower)))
}

func (s *Scorer) score(lower string, vendorHits int) float64 {
	total := 0.0

	for _, cat := range s.categories {
		if cat.Weight == 0 {
			continue
		}
		hits := 0
		for _, phrase := range cat.Phrases {
			hits += strings.Count(lower, strings.ToLower(phrase))
		}
		total += float64(hits) * cat.Weight
	}

	if vendorHits > s.vendorCap {
		vendorHits = s.vendorCap
	}
	total += float64(vendorHits) * s.vendorWeight

	total += countPhrases(lower, s.urgency.High.Phrases) * s.urgency.High.Weight
	total += countPhrases(lower, s.urgency.Medium.Phrases) * s.urgency.Medium.Weight

	if total < 0 {
		total = 0
	}
	return total
}

// DetectVendors returns the canonical names of vendors mentioned in the
// text, in configured order.
func (s *Scorer) DetectVendors(text string) []string {
	return s.detectVendors(strings.ToLower(text))
}

func (s *Scorer) detectVendors(lower string) []string {
	var found []string
	for _, v := range s.vendors {
		if vendorMentioned(lower, v) {
			found = append(found, v.Name)
		}
	}
	return found
}

// VendorTier returns the configured tier for a vendor name, or 4 when the
// vendor is unknown.
func (s *Scorer) VendorTier(name string) int {
	for _, v := range s.vendors {
		if strings.EqualFold(v.Name, name) {
			return v.Tier
		}
	}
	return 4
}

// BestTier returns the highest (lowest-numbered) tier among the given
// vendor names, or 4 if none match.
func (s *Scorer) BestTier(names []string) int {
	best := 4
	for _, n := range names {
		if t := s.VendorTier(n); t < best {
			best = t
		}
	}
	return best
}

func vendorMentioned(lower string, v config.Vendor) bool {
	if strings.Contains(lower, strings.ToLower(v.Name)) {
		return true
	}
	for _, alias := range v.Aliases {
		if strings.Contains(lower, strings.ToLower(alias)) {
			return true
		}
	}
	return false
}

func countPhrases(lower string, phrases []string) float64 {
	hits := 0
	for _, p := range phrases {
		hits += strings.Count(lower, strings.ToLower(p))
	}
	return float64(hits)
}
