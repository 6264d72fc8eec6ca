package database

import "database/sql"

// Migration represents a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "initial schema",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS items (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    native_id TEXT,
    source TEXT NOT NULL,
    url TEXT UNIQUE NOT NULL,
    title TEXT NOT NULL,
    body TEXT,
    engagement INTEGER DEFAULT 0,
    comments INTEGER DEFAULT 0,
    published_date TEXT,
    period_id TEXT,
    relevance REAL DEFAULT 0,
    vendors TEXT,
    selected INTEGER DEFAULT 0,
    body_fetched INTEGER DEFAULT 0,
    collected_at TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS source_records (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    period_id TEXT NOT NULL,
    source_id TEXT NOT NULL,
    title TEXT NOT NULL,
    url TEXT NOT NULL,
    source TEXT NOT NULL,
    snippet TEXT,
    relevance REAL DEFAULT 0,
    vendors TEXT,
    created_at TEXT DEFAULT (datetime('now')),
    UNIQUE (period_id, source_id)
);

CREATE TABLE IF NOT EXISTS insights (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    period_id TEXT NOT NULL,
    text TEXT NOT NULL,
    source_ids TEXT,
    confidence_score REAL DEFAULT 0,
    confidence_level TEXT,
    confidence_factors TEXT,
    repaired INTEGER DEFAULT 0,
    flagged INTEGER DEFAULT 0,
    created_at TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS reports (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    period_id TEXT UNIQUE NOT NULL,
    run_id TEXT,
    summary TEXT NOT NULL,
    body_markdown TEXT NOT NULL,
    recommendations TEXT,
    vendor_landscape TEXT,
    fallback INTEGER DEFAULT 0,
    item_count INTEGER DEFAULT 0,
    selected_count INTEGER DEFAULT 0,
    vendors_analyzed INTEGER DEFAULT 0,
    pricing_signals INTEGER DEFAULT 0,
    generated_at TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS vendor_watchlist (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT UNIQUE NOT NULL,
    tier INTEGER NOT NULL DEFAULT 3 CHECK(tier BETWEEN 1 AND 3),
    aliases TEXT,
    is_active INTEGER DEFAULT 1,
    created_at TEXT DEFAULT (datetime('now')),
    updated_at TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS run_reports (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    period_id TEXT UNIQUE NOT NULL,
    run_id TEXT,
    generated_at TEXT DEFAULT (datetime('now')),
    item_count INTEGER DEFAULT 0,
    selected_count INTEGER DEFAULT 0,
    insight_count INTEGER DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_items_period ON items(period_id);
CREATE INDEX IF NOT EXISTS idx_items_url ON items(url);
CREATE INDEX IF NOT EXISTS idx_source_records_period ON source_records(period_id);
CREATE INDEX IF NOT EXISTS idx_insights_period ON insights(period_id);
CREATE INDEX IF NOT EXISTS idx_reports_period ON reports(period_id);
`)
			return err
		},
	},
}

// latestVersion returns the highest migration version number.
func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}
