package database

import (
	"database/sql"
	"encoding/json"
	"strings"
)

// InsertReport inserts or replaces the report for a period.
func (db *DB) InsertReport(r Report) (int64, error) {
	landscape, err := marshalMap(r.VendorLandscape)
	if err != nil {
		return 0, err
	}
	result, err := db.conn.Exec(
		`INSERT OR REPLACE INTO reports
		(period_id, run_id, summary, body_markdown, recommendations, vendor_landscape, fallback,
		item_count, selected_count, vendors_analyzed, pricing_signals)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.PeriodID, r.RunID, r.Summary, r.BodyMarkdown, marshalStrings(r.Recommendations),
		landscape, boolInt(r.Fallback), r.ItemCount, r.SelectedCount, r.VendorsAnalyzed, r.PricingSignals,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// GetReport returns the report for a period, or nil if none exists.
func (db *DB) GetReport(periodID string) (*Report, error) {
	row := db.conn.QueryRow(reportColumns+" FROM reports WHERE period_id = ?", periodID)
	r, err := scanReport(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// GetAllReports returns all reports ordered by period_id DESC.
func (db *DB) GetAllReports() ([]Report, error) {
	rows, err := db.conn.Query(reportColumns + " FROM reports ORDER BY period_id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []Report
	for rows.Next() {
		r, err := scanReportRows(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *r)
	}
	return reports, rows.Err()
}

// InsertRunReport inserts or replaces a run report.
func (db *DB) InsertRunReport(periodID string, runID *string, itemCount, selectedCount, insightCount int) (int64, error) {
	result, err := db.conn.Exec(
		`INSERT OR REPLACE INTO run_reports (period_id, run_id, item_count, selected_count, insight_count)
		VALUES (?, ?, ?, ?, ?)`,
		periodID, runID, itemCount, selectedCount, insightCount,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// GetLastRunDate returns the end date from the most recent run report.
// Returns empty string if no runs exist.
func (db *DB) GetLastRunDate() (string, error) {
	row := db.conn.QueryRow("SELECT period_id FROM run_reports ORDER BY period_id DESC LIMIT 1")

	var periodID string
	if err := row.Scan(&periodID); err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", err
	}

	// Range format: "YYYY-MM-DD..YYYY-MM-DD", return the end date.
	if strings.Contains(periodID, "..") {
		parts := strings.SplitN(periodID, "..", 2)
		if len(parts) == 2 {
			return parts[1], nil
		}
	}
	return periodID, nil
}

// GetStats returns aggregate database statistics.
func (db *DB) GetStats() (*Stats, error) {
	s := &Stats{}

	queries := []struct {
		sql  string
		dest *int
	}{
		{"SELECT COUNT(*) FROM items", &s.TotalItems},
		{"SELECT COUNT(*) FROM items WHERE selected = 1", &s.SelectedItems},
		{"SELECT COUNT(*) FROM items WHERE source = 'forum'", &s.ItemsByForum},
		{"SELECT COUNT(*) FROM items WHERE source = 'search'", &s.ItemsBySearch},
		{"SELECT COUNT(DISTINCT period_id) FROM items", &s.PeriodsWithItems},
		{"SELECT COUNT(*) FROM reports", &s.Reports},
		{"SELECT COUNT(*) FROM insights", &s.Insights},
		{"SELECT COUNT(*) FROM vendor_watchlist", &s.TotalVendors},
		{"SELECT COUNT(*) FROM vendor_watchlist WHERE is_active = 1", &s.ActiveVendors},
	}

	for _, q := range queries {
		if err := db.conn.QueryRow(q.sql).Scan(q.dest); err != nil {
			return nil, err
		}
	}

	return s, nil
}

const reportColumns = `SELECT id, period_id, run_id, summary, body_markdown, recommendations,
	vendor_landscape, fallback, item_count, selected_count, vendors_analyzed, pricing_signals, generated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row *sql.Row) (*Report, error)       { return scanReportFrom(row) }
func scanReportRows(rows *sql.Rows) (*Report, error) { return scanReportFrom(rows) }

func scanReportFrom(row rowScanner) (*Report, error) {
	var r Report
	var recs, landscape *string
	var fallback int
	if err := row.Scan(&r.ID, &r.PeriodID, &r.RunID, &r.Summary, &r.BodyMarkdown,
		&recs, &landscape, &fallback, &r.ItemCount, &r.SelectedCount,
		&r.VendorsAnalyzed, &r.PricingSignals, &r.GeneratedAt); err != nil {
		return nil, err
	}
	r.Recommendations = unmarshalStrings(recs)
	r.Fallback = fallback != 0
	r.VendorLandscape = unmarshalMap(landscape)
	return &r, nil
}

func marshalMap(m map[string]string) (*string, error) {
	if len(m) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	s := string(data)
	return &s, nil
}

func unmarshalMap(col *string) map[string]string {
	out := map[string]string{}
	if col == nil || *col == "" {
		return out
	}
	if err := json.Unmarshal([]byte(*col), &out); err != nil {
		return map[string]string{}
	}
	return out
}
