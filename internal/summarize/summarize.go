// Package summarize turns the selected item set into citation-linked
// pricing insights: it builds the model prompt, runs the single LLM call,
// validates and repairs citations in the response, and attaches a
// confidence estimate to every insight.
package summarize

import (
	"context"
	"fmt"

	"github.com/channelwatch/channelwatch/internal/config"
	"github.com/channelwatch/channelwatch/internal/content"
	"github.com/channelwatch/channelwatch/internal/llm"
	"github.com/channelwatch/channelwatch/internal/score"
	"github.com/channelwatch/channelwatch/internal/sourceid"
	"github.com/rs/zerolog/log"
)

// Confidence is the post-hoc confidence estimate for one insight.
type Confidence struct {
	Score      float64  `json:"score"`
	Level      string   `json:"level"` // "low", "medium", "high"
	Factors    []string `json:"factors"`
	Percentage int      `json:"percentage"`
}

// Insight is one validated, citation-linked model claim.
type Insight struct {
	Text       string     `json:"text"`
	SourceIDs  []string   `json:"source_ids"`
	Confidence Confidence `json:"confidence"`
	Repaired   bool       `json:"repaired,omitempty"`
	Flagged    bool       `json:"flagged,omitempty"`
}

// Analysis is the validated model output for a run. Fallback marks the
// fixed empty structure produced when the model response could not be
// used, which is distinct from a run that simply found nothing relevant.
type Analysis struct {
	Summary         string
	Insights        []Insight
	Recommendations []string
	VendorLandscape map[string]string
	Fallback        bool
	Warnings        []string
}

const fallbackSummary = "Automated analysis was unavailable for this run. " +
	"The collected items were selected and recorded, but no insights could be generated."

// NewFallbackAnalysis returns the deterministic, content-free structure
// used when the model call or its response fails.
func NewFallbackAnalysis(reason string) *Analysis {
	return &Analysis{
		Summary:         fallbackSummary,
		Insights:        []Insight{},
		Recommendations: []string{},
		VendorLandscape: map[string]string{},
		Fallback:        true,
		Warnings:        []string{reason},
	}
}

// Summarizer drives the prompt -> model -> validation sequence.
type Summarizer struct {
	provider  llm.Provider
	scorer    *score.Scorer
	matcher   *score.Matcher
	promptCfg config.Prompt
	confCfg   config.Confidence
	maxTokens int
}

// NewSummarizer creates a summarizer.
func NewSummarizer(provider llm.Provider, scorer *score.Scorer, matcher *score.Matcher, cfg *config.Config) *Summarizer {
	return &Summarizer{
		provider:  provider,
		scorer:    scorer,
		matcher:   matcher,
		promptCfg: cfg.Prompt,
		confCfg:   cfg.Confidence,
		maxTokens: cfg.LLM.MaxTokens,
	}
}

// Summarize analyzes the selected items. All failure modes resolve to the
// fallback analysis; this never returns nil and never panics.
func (s *Summarizer) Summarize(ctx context.Context, items []content.Item, ids []string, idMap *sourceid.Map) *Analysis {
	if s.provider == nil {
		log.Warn().Msg("no LLM provider available for summarization")
		return NewFallbackAnalysis("no LLM provider configured")
	}
	if len(items) == 0 || idMap.Len() == 0 {
		// Nothing selected is not a model failure: report it as such.
		return &Analysis{
			Summary:         "No relevant pricing content was found for this period.",
			Insights:        []Insight{},
			Recommendations: []string{},
			VendorLandscape: map[string]string{},
		}
	}

	prompt := BuildPrompt(items, ids, s.promptCfg)

	responseText, err := s.provider.Generate(ctx, prompt, s.maxTokens)
	if err != nil {
		log.Error().Err(err).Msg("LLM call failed")
		return NewFallbackAnalysis(fmt.Sprintf("model call failed: %v", err))
	}

	analysis, err := s.validateResponse(responseText, idMap)
	if err != nil {
		log.Error().Err(err).Msg("model response failed validation")
		return NewFallbackAnalysis(fmt.Sprintf("invalid model response: %v", err))
	}

	for i := range analysis.Insights {
		analysis.Insights[i].Confidence = s.estimateConfidence(analysis.Insights[i])
	}

	log.Info().
		Int("insights", len(analysis.Insights)).
		Int("recommendations", len(analysis.Recommendations)).
		Msg("summarization complete")

	return analysis
}
