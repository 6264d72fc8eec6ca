package database

import (
	"database/sql"
	"encoding/json"
)

// InsertItem inserts a collected item. Returns the ID on success, 0 if the
// URL is already present.
func (db *DB) InsertItem(it Item) (int64, error) {
	result, err := db.conn.Exec(
		`INSERT INTO items (native_id, source, url, title, body, engagement, comments, published_date, period_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		it.NativeID, it.Source, it.URL, it.Title, it.Body,
		it.Engagement, it.Comments, it.PublishedDate, it.PeriodID,
	)
	if err != nil {
		// Duplicate URL constraint
		return 0, nil //nolint: nilerr
	}
	return result.LastInsertId()
}

// GetItemsForPeriod returns items for a period, ordered by collected_at DESC.
func (db *DB) GetItemsForPeriod(periodID string) ([]Item, error) {
	rows, err := db.conn.Query(itemColumns+" FROM items WHERE period_id = ? ORDER BY collected_at DESC", periodID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanItems(rows)
}

// GetItemsNeedingFetch returns items with an empty body that have not had a
// fetch attempt yet.
func (db *DB) GetItemsNeedingFetch(periodID *string) ([]Item, error) {
	query := itemColumns + " FROM items WHERE (body IS NULL OR body = '') AND body_fetched = 0"
	var args []any
	if periodID != nil {
		query += " AND period_id = ?"
		args = append(args, *periodID)
	}
	query += " ORDER BY collected_at DESC"

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanItems(rows)
}

// UpdateItemBody stores fetched body text for an item.
func (db *DB) UpdateItemBody(itemID int64, body *string) error {
	_, err := db.conn.Exec("UPDATE items SET body = ?, body_fetched = 1 WHERE id = ?", body, itemID)
	return err
}

// MarkItemFetchAttempted marks that a body fetch was tried.
func (db *DB) MarkItemFetchAttempted(itemID int64) error {
	_, err := db.conn.Exec("UPDATE items SET body_fetched = 1 WHERE id = ?", itemID)
	return err
}

// UpdateItemScore stores the relevance score and detected vendors.
func (db *DB) UpdateItemScore(itemID int64, relevance float64, vendors []string) error {
	_, err := db.conn.Exec(
		"UPDATE items SET relevance = ?, vendors = ? WHERE id = ?",
		relevance, marshalStrings(vendors), itemID,
	)
	return err
}

// MarkItemsSelected flags the given items as selected for a run, clearing
// any selection left from an earlier run of the same period.
func (db *DB) MarkItemsSelected(periodID string, itemIDs []int64) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec("UPDATE items SET selected = 0 WHERE period_id = ?", periodID); err != nil {
		tx.Rollback()
		return err
	}
	for _, id := range itemIDs {
		if _, err := tx.Exec("UPDATE items SET selected = 1 WHERE id = ?", id); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// GetItemByID returns a single item by ID.
func (db *DB) GetItemByID(itemID int64) (*Item, error) {
	row := db.conn.QueryRow(itemColumns+" FROM items WHERE id = ?", itemID)
	it, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return it, nil
}

const itemColumns = `SELECT id, native_id, source, url, title, body, engagement, comments,
	published_date, period_id, relevance, vendors, selected, body_fetched, collected_at`

func scanItems(rows *sql.Rows) ([]Item, error) {
	var items []Item
	for rows.Next() {
		var it Item
		var vendors *string
		var selected, fetched int
		if err := rows.Scan(&it.ID, &it.NativeID, &it.Source, &it.URL, &it.Title, &it.Body,
			&it.Engagement, &it.Comments, &it.PublishedDate, &it.PeriodID,
			&it.Relevance, &vendors, &selected, &fetched, &it.CollectedAt); err != nil {
			return nil, err
		}
		it.Vendors = unmarshalStrings(vendors)
		it.Selected = selected != 0
		it.BodyFetched = fetched != 0
		items = append(items, it)
	}
	return items, rows.Err()
}

func scanItem(row *sql.Row) (*Item, error) {
	var it Item
	var vendors *string
	var selected, fetched int
	if err := row.Scan(&it.ID, &it.NativeID, &it.Source, &it.URL, &it.Title, &it.Body,
		&it.Engagement, &it.Comments, &it.PublishedDate, &it.PeriodID,
		&it.Relevance, &vendors, &selected, &fetched, &it.CollectedAt); err != nil {
		return nil, err
	}
	it.Vendors = unmarshalStrings(vendors)
	it.Selected = selected != 0
	it.BodyFetched = fetched != 0
	return &it, nil
}

// marshalStrings encodes a string slice as a JSON text column, or nil for
// an empty slice.
func marshalStrings(ss []string) *string {
	if len(ss) == 0 {
		return nil
	}
	data, err := json.Marshal(ss)
	if err != nil {
		return nil
	}
	s := string(data)
	return &s
}

func unmarshalStrings(col *string) []string {
	if col == nil || *col == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(*col), &out); err != nil {
		return nil
	}
	return out
}
