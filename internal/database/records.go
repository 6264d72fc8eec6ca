package database

import "database/sql"

// ReplaceSourceRecords is atomic per period: it deletes any records
// from an earlier run of the period and inserts the new table, so source
// ids never mix across runs.
func (db *DB) ReplaceSourceRecords(periodID string, records []SourceRecord) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM source_records WHERE period_id = ?", periodID); err != nil {
		tx.Rollback()
		return err
	}
	for _, r := range records {
		_, err := tx.Exec(
			`INSERT INTO source_records (period_id, source_id, title, url, source, snippet, relevance, vendors)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			periodID, r.SourceID, r.Title, r.URL, r.Source, r.Snippet, r.Relevance, marshalStrings(r.Vendors),
		)
		if err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// GetSourceRecords returns the citation records for a period in insertion
// order.
func (db *DB) GetSourceRecords(periodID string) ([]SourceRecord, error) {
	rows, err := db.conn.Query(
		`SELECT id, period_id, source_id, title, url, source, snippet, relevance, vendors, created_at
		FROM source_records WHERE period_id = ? ORDER BY id`, periodID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []SourceRecord
	for rows.Next() {
		var r SourceRecord
		var vendors *string
		if err := rows.Scan(&r.ID, &r.PeriodID, &r.SourceID, &r.Title, &r.URL, &r.Source,
			&r.Snippet, &r.Relevance, &vendors, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.Vendors = unmarshalStrings(vendors)
		records = append(records, r)
	}
	return records, rows.Err()
}

// GetSourceRecord returns one citation record by period and source id.
func (db *DB) GetSourceRecord(periodID, sourceID string) (*SourceRecord, error) {
	row := db.conn.QueryRow(
		`SELECT id, period_id, source_id, title, url, source, snippet, relevance, vendors, created_at
		FROM source_records WHERE period_id = ? AND source_id = ?`, periodID, sourceID,
	)
	var r SourceRecord
	var vendors *string
	if err := row.Scan(&r.ID, &r.PeriodID, &r.SourceID, &r.Title, &r.URL, &r.Source,
		&r.Snippet, &r.Relevance, &vendors, &r.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	r.Vendors = unmarshalStrings(vendors)
	return &r, nil
}
