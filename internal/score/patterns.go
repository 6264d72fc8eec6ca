package score

import (
	"regexp"
	"strings"

	"github.com/channelwatch/channelwatch/internal/config"
	"github.com/rs/zerolog/log"
)

// Matcher evaluates the named classification pattern lists. The lists are
// configuration, not code: each check is a plain phrase scan plus, for the
// business-critical class, a set of compiled regexes for compound signals.
type Matcher struct {
	businessCritical []string
	criticalRegex    []*regexp.Regexp
	vendorExperience []string
	operational      []string
	security         []string
	highValue        []string
}

// NewMatcher compiles the configured pattern lists. Invalid regexes are
// logged and skipped, never fatal.
func NewMatcher(p config.Patterns) *Matcher {
	m := &Matcher{
		businessCritical: lowerAll(p.BusinessCritical),
		vendorExperience: lowerAll(p.VendorExperience),
		operational:      lowerAll(p.Operational),
		security:         lowerAll(p.Security),
		highValue:        lowerAll(p.HighValue),
	}
	for _, expr := range p.CriticalRegex {
		re, err := regexp.Compile(expr)
		if err != nil {
			log.Warn().Str("pattern", expr).Err(err).Msg("skipping invalid critical regex")
			continue
		}
		m.criticalRegex = append(m.criticalRegex, re)
	}
	return m
}

// BusinessCritical reports whether the text matches any business-critical
// phrase or compound regex (acquisitions, program shutdowns, forced
// migrations).
func (m *Matcher) BusinessCritical(text string) bool {
	lower := strings.ToLower(text)
	if containsAny(lower, m.businessCritical) {
		return true
	}
	for _, re := range m.criticalRegex {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// CriticalCount returns how many distinct business-critical phrases appear
// in the text. Used for confidence estimation.
func (m *Matcher) CriticalCount(text string) int {
	lower := strings.ToLower(text)
	n := 0
	for _, p := range m.businessCritical {
		if strings.Contains(lower, p) {
			n++
		}
	}
	return n
}

// VendorExperience reports whether the text matches a vendor-experience
// phrase ("experience with", "thoughts on", ...).
func (m *Matcher) VendorExperience(text string) bool {
	return containsAny(strings.ToLower(text), m.vendorExperience)
}

// SecondaryTopical reports whether the text matches the operational or
// security pattern lists, the fallback gate for mid-relevance items.
func (m *Matcher) SecondaryTopical(text string) bool {
	lower := strings.ToLower(text)
	return containsAny(lower, m.operational) || containsAny(lower, m.security)
}

// HighValue reports whether the text matches a high-value discussion
// pattern used for the flat vendor boost.
func (m *Matcher) HighValue(text string) bool {
	return containsAny(strings.ToLower(text), m.highValue)
}

func containsAny(lower string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
