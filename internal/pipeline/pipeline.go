// Package pipeline orchestrates the report generation run: collect, fetch,
// score, select, summarize, compose.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/channelwatch/channelwatch/internal/collect"
	"github.com/channelwatch/channelwatch/internal/compose"
	"github.com/channelwatch/channelwatch/internal/config"
	"github.com/channelwatch/channelwatch/internal/content"
	"github.com/channelwatch/channelwatch/internal/database"
	"github.com/channelwatch/channelwatch/internal/dedupe"
	"github.com/channelwatch/channelwatch/internal/fetch"
	"github.com/channelwatch/channelwatch/internal/llm"
	"github.com/channelwatch/channelwatch/internal/prioritize"
	"github.com/channelwatch/channelwatch/internal/score"
	"github.com/channelwatch/channelwatch/internal/sourceid"
	"github.com/channelwatch/channelwatch/internal/summarize"
)

// StepResult holds the result of a single pipeline step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result holds the results of a full pipeline run.
type Result struct {
	PeriodID string
	RunID    string
	Steps    []StepResult
}

// Pipeline orchestrates the 6-step report pipeline.
type Pipeline struct {
	cfg      *config.Config
	db       *database.DB
	provider llm.Provider
	scorer   *score.Scorer
	matcher  *score.Matcher

	// Run state carried between steps.
	pool     []content.Item
	selected []content.Item
	ids      []string
	idMap    *sourceid.Map
	analysis *summarize.Analysis
}

// New creates a new pipeline. The scorer sees the configured vendors merged
// with the active DB watchlist, so vendors added or re-tiered through the
// CLI or web UI affect scoring, selection and confidence.
func New(cfg *config.Config, db *database.DB) *Pipeline {
	vendors := mergeWatchlist(cfg.Vendors, db)
	return &Pipeline{
		cfg:      cfg,
		db:       db,
		provider: llm.CreateProvider(cfg.LLM),
		scorer:   score.NewScorer(cfg.Taxonomy, vendors),
		matcher:  score.NewMatcher(cfg.Patterns),
	}
}

// mergeWatchlist folds the active watchlist vendors into the configured
// list. A watchlist entry with the same name replaces the config entry;
// new names are appended.
func mergeWatchlist(configured []config.Vendor, db *database.DB) []config.Vendor {
	active, err := db.GetActiveVendors()
	if err != nil {
		log.Warn().Err(err).Msg("loading vendor watchlist failed, using configured vendors only")
		return configured
	}
	if len(active) == 0 {
		return configured
	}

	out := make([]config.Vendor, len(configured))
	copy(out, configured)
	index := make(map[string]int, len(out))
	for i, v := range out {
		index[strings.ToLower(v.Name)] = i
	}
	for _, w := range active {
		v := config.Vendor{Name: w.Name, Tier: w.Tier, Aliases: w.Aliases}
		if i, ok := index[strings.ToLower(w.Name)]; ok {
			out[i] = v
		} else {
			out = append(out, v)
		}
	}
	return out
}

// Run executes the full 6-step pipeline.
func (p *Pipeline) Run(ctx context.Context, periodID string, daysBack int) *Result {
	r := &Result{PeriodID: periodID, RunID: uuid.NewString()}

	// Step 1: Collect
	step := p.runCollect(periodID, daysBack)
	r.Steps = append(r.Steps, step)
	if step.Err != nil {
		return r
	}

	// Step 2: Fetch bodies
	step = p.runFetch(periodID)
	r.Steps = append(r.Steps, step)

	// Step 3: Score
	step = p.runScore(periodID)
	r.Steps = append(r.Steps, step)
	if step.Err != nil {
		return r
	}

	// Step 4: Select
	step = p.runSelect(periodID)
	r.Steps = append(r.Steps, step)
	if step.Err != nil {
		return r
	}

	// Step 5: Summarize
	step = p.runSummarize(ctx)
	r.Steps = append(r.Steps, step)

	// Step 6: Compose
	step = p.runCompose(periodID, r.RunID)
	r.Steps = append(r.Steps, step)

	return r
}

// DryRun shows what each step would do without executing.
func (p *Pipeline) DryRun(periodID string) *Result {
	r := &Result{PeriodID: periodID}

	items, _ := p.db.GetItemsForPeriod(periodID)
	r.Steps = append(r.Steps, StepResult{
		Name:    "Collect",
		Summary: fmt.Sprintf("[dry-run] %d items already in DB for %s", len(items), periodID),
	})

	needing, _ := p.db.GetItemsNeedingFetch(&periodID)
	r.Steps = append(r.Steps, StepResult{
		Name:    "Fetch",
		Summary: fmt.Sprintf("[dry-run] %d items need body fetching", len(needing)),
	})

	unscored := 0
	for _, it := range items {
		if it.Relevance == 0 && len(it.Vendors) == 0 {
			unscored++
		}
	}
	r.Steps = append(r.Steps, StepResult{
		Name:    "Score",
		Summary: fmt.Sprintf("[dry-run] %d items look unscored", unscored),
	})

	r.Steps = append(r.Steps, StepResult{
		Name:    "Select",
		Summary: fmt.Sprintf("[dry-run] Would select up to %d of %d items", p.cfg.Selection.Budget, len(items)),
	})

	r.Steps = append(r.Steps, StepResult{
		Name:    "Summarize",
		Summary: "[dry-run] Would call the LLM for analysis",
	})

	report, _ := p.db.GetReport(periodID)
	if report != nil {
		r.Steps = append(r.Steps, StepResult{
			Name:    "Compose",
			Summary: fmt.Sprintf("[dry-run] Report already exists for %s", periodID),
		})
	} else {
		r.Steps = append(r.Steps, StepResult{
			Name:    "Compose",
			Summary: fmt.Sprintf("[dry-run] Would compose report for %s", periodID),
		})
	}

	return r
}

func (p *Pipeline) runCollect(periodID string, daysBack int) StepResult {
	log.Info().Msg("step 1/6: collecting items")
	collector := collect.NewCollector(p.cfg, p.db, daysBack)
	result := collector.Collect(periodID)
	return StepResult{
		Name:    "Collect",
		Summary: fmt.Sprintf("Found %d new items (%d total, %d duplicates)", result.NewItems, result.TotalFound, result.Duplicates),
	}
}

func (p *Pipeline) runFetch(periodID string) StepResult {
	log.Info().Msg("step 2/6: fetching item bodies")
	fetcher := fetch.NewBodyFetcher(p.db, 15*time.Second)
	result := fetcher.FetchMissingBodies(&periodID)
	return StepResult{
		Name:    "Fetch",
		Summary: fmt.Sprintf("Fetched %d bodies, %d failed", result.Fetched, result.Failed),
	}
}

func (p *Pipeline) runScore(periodID string) StepResult {
	log.Info().Msg("step 3/6: scoring items")
	rows, err := p.db.GetItemsForPeriod(periodID)
	if err != nil {
		return StepResult{Name: "Score", Err: err}
	}

	items := make([]content.Item, len(rows))
	idByURL := make(map[string]int64, len(rows))
	for i, row := range rows {
		items[i] = fromRow(row)
		idByURL[row.URL] = row.ID
	}

	// The URL constraint only catches same-link duplicates; items collected
	// across runs of the same period can repeat under distinct URLs.
	pool := dedupe.Deduplicate(items)
	p.scorer.ScoreItems(pool)

	for _, it := range pool {
		if id, ok := idByURL[it.URL]; ok {
			if err := p.db.UpdateItemScore(id, it.Relevance, it.Vendors); err != nil {
				return StepResult{Name: "Score", Err: err}
			}
		}
	}

	p.pool = pool
	return StepResult{
		Name:    "Score",
		Summary: fmt.Sprintf("Scored %d items (%d duplicates dropped)", len(pool), len(items)-len(pool)),
	}
}

func (p *Pipeline) runSelect(periodID string) StepResult {
	log.Info().Msg("step 4/6: selecting items")
	selector := prioritize.NewSelector(p.cfg.Selection, p.scorer, p.matcher)
	result := selector.Select(p.pool)

	p.selected = result.Selected
	p.ids, p.idMap = sourceid.Assign(p.selected)

	// Persist the selection and the citation table before the model call,
	// so a failed summarization still leaves a traceable run.
	rows, err := p.db.GetItemsForPeriod(periodID)
	if err != nil {
		return StepResult{Name: "Select", Err: err}
	}
	byURL := make(map[string]int64, len(rows))
	for _, row := range rows {
		byURL[row.URL] = row.ID
	}
	var selectedIDs []int64
	for _, it := range p.selected {
		if id, ok := byURL[it.URL]; ok {
			selectedIDs = append(selectedIDs, id)
		}
	}
	if err := p.db.MarkItemsSelected(periodID, selectedIDs); err != nil {
		return StepResult{Name: "Select", Err: err}
	}

	records := make([]database.SourceRecord, 0, p.idMap.Len())
	for _, rec := range p.idMap.Records() {
		snippet := rec.Snippet
		records = append(records, database.SourceRecord{
			PeriodID:  periodID,
			SourceID:  rec.SourceID,
			Title:     rec.Title,
			URL:       rec.URL,
			Source:    string(rec.Source),
			Snippet:   &snippet,
			Relevance: rec.Relevance,
			Vendors:   rec.Vendors,
		})
	}
	if err := p.db.ReplaceSourceRecords(periodID, records); err != nil {
		return StepResult{Name: "Select", Err: err}
	}

	return StepResult{
		Name: "Select",
		Summary: fmt.Sprintf("Selected %d of %d items (tiers %d/%d/%d/%d/%d, purged %d)",
			len(result.Selected), result.PoolSize,
			result.Tiers.Engagement, result.Tiers.Critical, result.Tiers.Relevance,
			result.Tiers.Vendor, result.Tiers.Regular, result.Purged),
	}
}

func (p *Pipeline) runSummarize(ctx context.Context) StepResult {
	log.Info().Msg("step 5/6: summarizing")

	timeout := time.Duration(p.cfg.LLM.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	summarizer := summarize.NewSummarizer(p.provider, p.scorer, p.matcher, p.cfg)
	p.analysis = summarizer.Summarize(ctx, p.selected, p.ids, p.idMap)

	if p.analysis.Fallback {
		return StepResult{
			Name:    "Summarize",
			Summary: "Model analysis unavailable, using fallback report",
		}
	}
	return StepResult{
		Name:    "Summarize",
		Summary: fmt.Sprintf("Generated %d insights, %d recommendations", len(p.analysis.Insights), len(p.analysis.Recommendations)),
	}
}

func (p *Pipeline) runCompose(periodID, runID string) StepResult {
	log.Info().Msg("step 6/6: composing report")
	comp := compose.NewComposer(p.db)
	report, err := comp.ComposeReport(periodID, runID, p.analysis, p.idMap, compose.Metrics{
		ItemCount:     len(p.pool),
		SelectedCount: len(p.selected),
	})
	if err != nil {
		return StepResult{Name: "Compose", Err: err}
	}
	return StepResult{
		Name:    "Compose",
		Summary: fmt.Sprintf("Report composed: %d insights from %d selected items", report.PricingSignals, report.SelectedCount),
	}
}

// fromRow converts a stored item back to the in-memory form used by the
// scorer and selector.
func fromRow(row database.Item) content.Item {
	it := content.Item{
		Source:     content.Source(row.Source),
		URL:        row.URL,
		Title:      row.Title,
		Engagement: row.Engagement,
		Comments:   row.Comments,
		Relevance:  row.Relevance,
		Vendors:    row.Vendors,
	}
	if row.NativeID != nil {
		it.NativeID = *row.NativeID
	}
	if row.Body != nil {
		it.Body = *row.Body
	}
	if row.PublishedDate != nil {
		if t, err := time.Parse("2006-01-02", *row.PublishedDate); err == nil {
			it.Published = t
		}
	}
	return it
}
