package summarize

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/channelwatch/channelwatch/internal/llm"
	"github.com/channelwatch/channelwatch/internal/sourceid"
	"github.com/rs/zerolog/log"
)

var requiredKeys = []string{"executive_summary", "key_insights", "recommendations", "vendor_landscape"}

// citationRe captures bracket tokens that look like citation attempts,
// including malformed variants such as "[source 2]" or "[Forum-3]".
var citationRe = regexp.MustCompile(`\[([A-Za-z]+[ _-]?[0-9]+)\]`)

// validateResponse parses the raw model text, checks the required JSON
// structure, and runs every insight through citation validation. A
// structural failure is returned as an error and resolves to the fallback
// analysis upstream; citation problems are repaired or flagged per insight
// and never discard the whole response.
func (s *Summarizer) validateResponse(text string, idMap *sourceid.Map) (*Analysis, error) {
	parsed := llm.ParseJSONResponse(text)
	if parsed == nil {
		return nil, errors.New("response contains no parseable JSON object")
	}

	for _, key := range requiredKeys {
		if _, ok := parsed[key]; !ok {
			return nil, fmt.Errorf("response missing required key %q", key)
		}
	}

	summary, _ := parsed["executive_summary"].(string)
	if strings.TrimSpace(summary) == "" {
		return nil, errors.New("response has empty executive_summary")
	}

	analysis := &Analysis{
		Summary:         strings.TrimSpace(summary),
		Recommendations: toStringSlice(parsed["recommendations"]),
		VendorLandscape: toStringMap(parsed["vendor_landscape"]),
	}

	rawInsights := toStringSlice(parsed["key_insights"])
	analysis.Insights = make([]Insight, 0, len(rawInsights))
	for _, raw := range rawInsights {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		insight, warnings := s.resolveCitations(raw, idMap)
		analysis.Insights = append(analysis.Insights, insight)
		analysis.Warnings = append(analysis.Warnings, warnings...)
	}

	return analysis, nil
}

// resolveCitations classifies one insight's bracket tokens and repairs what
// it can. Every returned insight carries at least one valid source id:
// invalid ids are rewritten to their closest assigned id, and an insight
// with no citation at all is matched against the record table, falling back
// to the first assigned id with the Flagged marker when no match clears the
// repair floor.
func (s *Summarizer) resolveCitations(text string, idMap *sourceid.Map) (Insight, []string) {
	insight := Insight{Text: text}
	var warnings []string

	matches := citationRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		// No citation attempt at all; match on content overlap.
		id, score := bestRecordMatch(text, idMap)
		if score >= s.confCfg.RepairFloor {
			insight.Text = text + " [" + id + "]"
			insight.SourceIDs = []string{id}
			insight.Repaired = true
			warnings = append(warnings, fmt.Sprintf("added citation [%s] to uncited insight %q", id, truncate(text, 60)))
		} else {
			fallback := idMap.IDs()[0]
			insight.Text = text + " [" + fallback + "]"
			insight.SourceIDs = []string{fallback}
			insight.Flagged = true
			warnings = append(warnings, fmt.Sprintf("no citation match for insight %q, flagged with [%s]", truncate(text, 60), fallback))
		}
		return insight, warnings
	}

	seen := make(map[string]bool)
	for _, m := range matches {
		token := m[1]
		if idMap.Has(token) {
			if !seen[token] {
				seen[token] = true
				insight.SourceIDs = append(insight.SourceIDs, token)
			}
			continue
		}

		fixed, ok := repairID(token, idMap)
		if !ok {
			fixed = idMap.IDs()[0]
			insight.Flagged = true
			warnings = append(warnings, fmt.Sprintf("unrepairable citation [%s], flagged with [%s]", token, fixed))
		} else {
			insight.Repaired = true
			warnings = append(warnings, fmt.Sprintf("repaired citation [%s] -> [%s]", token, fixed))
		}
		insight.Text = strings.ReplaceAll(insight.Text, "["+token+"]", "["+fixed+"]")
		if !seen[fixed] {
			seen[fixed] = true
			insight.SourceIDs = append(insight.SourceIDs, fixed)
		}
	}

	return insight, warnings
}

// repairID attempts to map an invalid citation token to an assigned id.
// It tries shape normalization first, then the highest id sharing the
// token's source prefix, then fuzzy similarity against all assigned ids.
func repairID(token string, idMap *sourceid.Map) (string, bool) {
	norm := strings.ToLower(token)
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	if idMap.Has(norm) {
		return norm, true
	}

	prefix, _, hasSep := strings.Cut(norm, "_")
	if hasSep {
		if best := lastIDWithPrefix(prefix, idMap); best != "" {
			return best, true
		}
	}

	bestID := ""
	bestSim := 0.0
	for _, id := range idMap.IDs() {
		sim := similarity(norm, id)
		if sim > bestSim {
			bestSim = sim
			bestID = id
		}
	}
	if bestSim >= 0.5 {
		return bestID, true
	}

	log.Debug().Str("token", token).Msg("citation token could not be repaired")
	return "", false
}

// lastIDWithPrefix returns the highest-numbered assigned id for a source
// prefix. Out-of-range citations like forum_9 clamp to the last real item
// of that source rather than jumping to an unrelated one.
func lastIDWithPrefix(prefix string, idMap *sourceid.Map) string {
	best := ""
	for _, id := range idMap.IDs() {
		if strings.HasPrefix(id, prefix+"_") {
			best = id
		}
	}
	return best
}

// similarity scores two tokens in [0,1] by containment and shared prefix
// length relative to the longer token.
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	longer := len(a)
	if len(b) > longer {
		longer = len(b)
	}
	if longer == 0 {
		return 0
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		shorter := len(a) + len(b) - longer
		return float64(shorter) / float64(longer)
	}
	common := 0
	for common < len(a) && common < len(b) && a[common] == b[common] {
		common++
	}
	return float64(common) / float64(longer)
}

// bestRecordMatch scores an uncited insight against every assigned record
// by word overlap, with extra weight on vendor mentions and title words,
// and returns the best id with its score.
func bestRecordMatch(text string, idMap *sourceid.Map) (string, float64) {
	words := wordSet(text)
	bestID := idMap.IDs()[0]
	bestScore := 0.0

	for _, rec := range idMap.Records() {
		score := 0.0
		for w := range wordSet(rec.Title) {
			if words[w] {
				score++
			}
		}
		lower := strings.ToLower(text)
		for _, v := range rec.Vendors {
			if strings.Contains(lower, strings.ToLower(v)) {
				score += 2
			}
		}
		if score > bestScore {
			bestScore = score
			bestID = rec.SourceID
		}
	}
	return bestID, bestScore
}

// wordSet lowercases a string and returns its distinct words longer than
// three characters, which drops stop words cheaply.
func wordSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(s)) {
		w = strings.Trim(w, ".,;:!?\"'()[]")
		if len(w) > 3 {
			set[w] = true
		}
	}
	return set
}

func toStringSlice(v any) []string {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, e := range raw {
		if s, ok := e.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

func toStringMap(v any) map[string]string {
	raw, ok := v.(map[string]any)
	if !ok {
		return map[string]string{}
	}
	out := make(map[string]string, len(raw))
	for k, e := range raw {
		if s, ok := e.(string); ok {
			out[k] = s
		}
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
