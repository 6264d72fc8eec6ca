package database

// ReplaceInsights replaces the stored insights for a period.
func (db *DB) ReplaceInsights(periodID string, insights []InsightRow) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM insights WHERE period_id = ?", periodID); err != nil {
		tx.Rollback()
		return err
	}
	for _, in := range insights {
		_, err := tx.Exec(
			`INSERT INTO insights (period_id, text, source_ids, confidence_score, confidence_level,
			confidence_factors, repaired, flagged)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			periodID, in.Text, marshalStrings(in.SourceIDs), in.ConfidenceScore, in.ConfidenceLevel,
			marshalStrings(in.ConfidenceFactors), boolInt(in.Repaired), boolInt(in.Flagged),
		)
		if err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// GetInsightsForPeriod returns stored insights in insertion order.
func (db *DB) GetInsightsForPeriod(periodID string) ([]InsightRow, error) {
	rows, err := db.conn.Query(
		`SELECT id, period_id, text, source_ids, confidence_score, confidence_level,
		confidence_factors, repaired, flagged, created_at
		FROM insights WHERE period_id = ? ORDER BY id`, periodID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var insights []InsightRow
	for rows.Next() {
		var in InsightRow
		var ids, factors *string
		var repaired, flagged int
		if err := rows.Scan(&in.ID, &in.PeriodID, &in.Text, &ids, &in.ConfidenceScore,
			&in.ConfidenceLevel, &factors, &repaired, &flagged, &in.CreatedAt); err != nil {
			return nil, err
		}
		in.SourceIDs = unmarshalStrings(ids)
		in.ConfidenceFactors = unmarshalStrings(factors)
		in.Repaired = repaired != 0
		in.Flagged = flagged != 0
		insights = append(insights, in)
	}
	return insights, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
