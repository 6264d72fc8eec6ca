// Package prioritize selects a bounded subset of scored items using
// priority tiers that balance engagement, topical relevance, and business
// criticality. Selection is deterministic: every ranking uses a stable
// sort, and ties fall back to insertion order.
package prioritize

import (
	"sort"

	"github.com/channelwatch/channelwatch/internal/config"
	"github.com/channelwatch/channelwatch/internal/content"
	"github.com/channelwatch/channelwatch/internal/score"
	"github.com/rs/zerolog/log"
)

// TierCounts records how many items each tier contributed to the selection.
type TierCounts struct {
	Engagement int
	Critical   int
	Relevance  int
	Vendor     int
	Regular    int
}

// Result holds the outcome of a selection pass.
type Result struct {
	Selected []content.Item
	PoolSize int
	Tiers    TierCounts
	Purged   int
}

// Selector buckets scored items into priority tiers and fills a budget
// tier by tier.
type Selector struct {
	cfg     config.Selection
	scorer  *score.Scorer
	matcher *score.Matcher
}

// NewSelector creates a selector over the given scoring helpers.
func NewSelector(cfg config.Selection, scorer *score.Scorer, matcher *score.Matcher) *Selector {
	return &Selector{cfg: cfg, scorer: scorer, matcher: matcher}
}

// Select picks at most cfg.Budget items from the pool. Vendor-specific
// items get their relevance boosted in place before ranking. If the pool
// fits the budget the whole pool is returned.
func (s *Selector) Select(pool []content.Item) *Result {
	work := make([]content.Item, len(pool))
	copy(work, pool)

	for i := range work {
		if s.vendorSpecific(work[i]) {
			s.applyVendorBoost(&work[i])
		}
	}

	r := &Result{PoolSize: len(work)}

	if len(work) <= s.cfg.Budget {
		r.Selected = work
		return r
	}

	taken := make([]bool, len(work))
	var selected []content.Item

	take := func(idx []int, cap int) int {
		n := 0
		for _, i := range idx {
			if len(selected) >= s.cfg.Budget || n >= cap {
				break
			}
			if taken[i] {
				continue
			}
			taken[i] = true
			selected = append(selected, work[i])
			n++
		}
		return n
	}

	// Tier 1: high-engagement items that pass the tiered relevance gate,
	// re-ranked by the relevance/engagement hybrid score.
	var t1 []int
	for i := range work {
		if s.highEngagement(work[i]) && s.passesGate(work[i]) {
			t1 = append(t1, i)
		}
	}
	sort.SliceStable(t1, func(a, b int) bool {
		return s.hybridScore(work[t1[a]]) > s.hybridScore(work[t1[b]])
	})
	r.Tiers.Engagement = take(t1, s.cfg.TierCaps.Engagement)

	// Tier 2: business-critical items, ranked with a fixed bonus. The gate
	// does not apply: urgency beats accumulated relevance here.
	var t2 []int
	for i := range work {
		if !taken[i] && s.matcher.BusinessCritical(work[i].Text()) {
			t2 = append(t2, i)
		}
	}
	sort.SliceStable(t2, func(a, b int) bool {
		return work[t2[a]].Relevance+s.cfg.CriticalBonus > work[t2[b]].Relevance+s.cfg.CriticalBonus
	})
	r.Tiers.Critical = take(t2, s.cfg.TierCaps.Critical)

	// Tier 3: high-relevance items.
	r.Tiers.Relevance = take(s.rankByRelevance(work, taken, func(it content.Item) bool {
		return it.Relevance >= s.cfg.HighRelevance
	}), s.cfg.TierCaps.Relevance)

	// Tier 4: vendor-specific items.
	r.Tiers.Vendor = take(s.rankByRelevance(work, taken, s.vendorSpecific), s.cfg.TierCaps.Vendor)

	// Tier 5: regular items fill whatever budget remains.
	r.Tiers.Regular = take(s.rankByRelevance(work, taken, func(it content.Item) bool {
		return !s.highEngagement(it) &&
			!s.matcher.BusinessCritical(it.Text()) &&
			it.Relevance < s.cfg.HighRelevance &&
			!s.vendorSpecific(it)
	}), s.cfg.Budget)

	// Cross-tier purge: drop low-relevance items that rode in on
	// engagement alone.
	kept := selected[:0]
	for _, it := range selected {
		if it.Relevance < s.cfg.PurgeFloor &&
			!s.matcher.BusinessCritical(it.Text()) &&
			!s.vendorSpecific(it) {
			r.Purged++
			continue
		}
		kept = append(kept, it)
	}
	r.Selected = kept

	log.Debug().
		Int("pool", r.PoolSize).
		Int("selected", len(r.Selected)).
		Int("purged", r.Purged).
		Msg("selection complete")

	return r
}

func (s *Selector) rankByRelevance(work []content.Item, taken []bool, match func(content.Item) bool) []int {
	var idx []int
	for i := range work {
		if !taken[i] && match(work[i]) {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return work[idx[a]].Relevance > work[idx[b]].Relevance
	})
	return idx
}

func (s *Selector) highEngagement(it content.Item) bool {
	return it.Engagement > s.cfg.EngagementThreshold || it.Comments > s.cfg.CommentThreshold
}

// vendorSpecific reports whether an item mentions a known vendor and either
// matches a vendor-experience pattern or clears the lower relevance bar.
func (s *Selector) vendorSpecific(it content.Item) bool {
	if len(it.Vendors) == 0 {
		return false
	}
	return s.matcher.VendorExperience(it.Text()) || it.Relevance >= s.cfg.VendorRelevance
}

// passesGate applies the tiered relevance gate for tier 1: full-relevance
// items always pass, mid-relevance items need a secondary topical match,
// and anything below that must be business-critical.
func (s *Selector) passesGate(it content.Item) bool {
	switch {
	case it.Relevance >= s.cfg.Gate.Full:
		return true
	case it.Relevance >= s.cfg.Gate.Secondary:
		return s.matcher.SecondaryTopical(it.Text())
	default:
		return s.matcher.BusinessCritical(it.Text())
	}
}

// hybridScore blends relevance with normalized engagement so popular
// off-topic items cannot dominate tier 1.
func (s *Selector) hybridScore(it content.Item) float64 {
	h := s.cfg.Hybrid
	engagement := float64(it.Engagement+it.Comments) / h.EngagementNorm
	if engagement > h.EngagementCap {
		engagement = h.EngagementCap
	}
	return h.RelevanceWeight*it.Relevance + h.EngagementWeight*engagement
}

// applyVendorBoost bumps a vendor-specific item's relevance by its best
// vendor tier, plus a flat bonus for high-value discussion patterns.
// The boosted score is capped.
func (s *Selector) applyVendorBoost(it *content.Item) {
	tier := s.scorer.BestTier(it.Vendors)
	if tier >= 1 && tier <= len(s.cfg.VendorBoosts) {
		it.Relevance += s.cfg.VendorBoosts[tier-1]
	}
	if s.matcher.HighValue(it.Text()) {
		it.Relevance += s.cfg.HighValueBoost
	}
	if it.Relevance > s.cfg.BoostCap {
		it.Relevance = s.cfg.BoostCap
	}
}
