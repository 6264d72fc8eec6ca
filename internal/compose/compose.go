// Package compose assembles the final pricing report for a period from the
// validated analysis and the citation record table, and persists it.
package compose

import (
	"fmt"
	"sort"
	"strings"

	"github.com/channelwatch/channelwatch/internal/database"
	"github.com/channelwatch/channelwatch/internal/sourceid"
	"github.com/channelwatch/channelwatch/internal/summarize"
	"github.com/rs/zerolog/log"
)

// Metrics carries run counts into the stored report.
type Metrics struct {
	ItemCount     int
	SelectedCount int
}

// Composer writes reports and their insights to the database.
type Composer struct {
	db *database.DB
}

// NewComposer creates a report composer.
func NewComposer(db *database.DB) *Composer {
	return &Composer{db: db}
}

// ComposeReport assembles the markdown report for a period, stores the
// report and its insights, and records the run. The returned report is the
// stored row.
func (c *Composer) ComposeReport(periodID, runID string, analysis *summarize.Analysis, idMap *sourceid.Map, metrics Metrics) (*database.Report, error) {
	body := assembleBody(periodID, analysis, idMap)

	report := database.Report{
		PeriodID:        periodID,
		RunID:           &runID,
		Summary:         analysis.Summary,
		BodyMarkdown:    body,
		Recommendations: analysis.Recommendations,
		VendorLandscape: analysis.VendorLandscape,
		Fallback:        analysis.Fallback,
		ItemCount:       metrics.ItemCount,
		SelectedCount:   metrics.SelectedCount,
		VendorsAnalyzed: len(analysis.VendorLandscape),
		PricingSignals:  len(analysis.Insights),
	}

	if _, err := c.db.InsertReport(report); err != nil {
		return nil, fmt.Errorf("storing report: %w", err)
	}

	rows := make([]database.InsightRow, 0, len(analysis.Insights))
	for _, in := range analysis.Insights {
		rows = append(rows, database.InsightRow{
			PeriodID:          periodID,
			Text:              in.Text,
			SourceIDs:         in.SourceIDs,
			ConfidenceScore:   in.Confidence.Score,
			ConfidenceLevel:   in.Confidence.Level,
			ConfidenceFactors: in.Confidence.Factors,
			Repaired:          in.Repaired,
			Flagged:           in.Flagged,
		})
	}
	if err := c.db.ReplaceInsights(periodID, rows); err != nil {
		return nil, fmt.Errorf("storing insights: %w", err)
	}

	if _, err := c.db.InsertRunReport(periodID, &runID, metrics.ItemCount, metrics.SelectedCount, len(analysis.Insights)); err != nil {
		return nil, fmt.Errorf("storing run report: %w", err)
	}

	log.Info().
		Str("period", periodID).
		Int("insights", len(analysis.Insights)).
		Bool("fallback", analysis.Fallback).
		Msg("report composed")

	return c.db.GetReport(periodID)
}

func assembleBody(periodID string, analysis *summarize.Analysis, idMap *sourceid.Map) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Pricing Intelligence Report: %s\n\n", database.FormatPeriodDisplay(periodID))

	if analysis.Fallback {
		b.WriteString("> Automated analysis was unavailable for this run. Collected sources are listed below.\n\n")
	}

	b.WriteString("## Executive Summary\n\n")
	b.WriteString(analysis.Summary)
	b.WriteString("\n")

	if len(analysis.Insights) > 0 {
		b.WriteString("\n## Key Insights\n\n")
		for _, in := range analysis.Insights {
			line := fmt.Sprintf("- %s *(%s confidence, %d%%)*", in.Text, in.Confidence.Level, in.Confidence.Percentage)
			if in.Flagged {
				line += " (flagged citation)"
			}
			b.WriteString(line + "\n")
		}
	}

	if len(analysis.Recommendations) > 0 {
		b.WriteString("\n## Recommendations\n\n")
		for _, r := range analysis.Recommendations {
			b.WriteString("- " + r + "\n")
		}
	}

	if len(analysis.VendorLandscape) > 0 {
		b.WriteString("\n## Vendor Landscape\n\n")
		for _, vendor := range sortedKeys(analysis.VendorLandscape) {
			fmt.Fprintf(&b, "- **%s**: %s\n", vendor, analysis.VendorLandscape[vendor])
		}
	}

	if idMap != nil && idMap.Len() > 0 {
		b.WriteString("\n## Sources\n\n")
		for _, rec := range idMap.Records() {
			fmt.Fprintf(&b, "- `[%s]` [%s](%s)\n", rec.SourceID, rec.Title, rec.URL)
		}
	}

	return b.String()
}

// sortedKeys gives the vendor landscape a stable rendering order.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
