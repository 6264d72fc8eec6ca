package database

import (
	"database/sql"
	"fmt"
	"strings"
)

// InsertVendor adds a vendor to the watchlist.
func (db *DB) InsertVendor(name string, tier int, aliases []string) (int64, error) {
	result, err := db.conn.Exec(
		"INSERT INTO vendor_watchlist (name, tier, aliases) VALUES (?, ?, ?)",
		name, tier, marshalStrings(aliases),
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// GetAllVendors returns all watchlist vendors ordered by tier then name.
func (db *DB) GetAllVendors() ([]WatchedVendor, error) {
	return db.queryVendors("SELECT id, name, tier, aliases, is_active, created_at, updated_at FROM vendor_watchlist ORDER BY tier, name")
}

// GetActiveVendors returns only the active watchlist vendors.
func (db *DB) GetActiveVendors() ([]WatchedVendor, error) {
	return db.queryVendors("SELECT id, name, tier, aliases, is_active, created_at, updated_at FROM vendor_watchlist WHERE is_active = 1 ORDER BY tier, name")
}

// GetVendorByName returns a watchlist vendor by exact name, or nil.
func (db *DB) GetVendorByName(name string) (*WatchedVendor, error) {
	row := db.conn.QueryRow(
		"SELECT id, name, tier, aliases, is_active, created_at, updated_at FROM vendor_watchlist WHERE name = ?",
		name,
	)
	v, err := scanVendor(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

// UpdateVendor updates specified fields of a watchlist vendor.
func (db *DB) UpdateVendor(vendorID int64, tier *int, aliases []string) error {
	var updates []string
	var args []any

	if tier != nil {
		updates = append(updates, "tier = ?")
		args = append(args, *tier)
	}
	if aliases != nil {
		updates = append(updates, "aliases = ?")
		args = append(args, marshalStrings(aliases))
	}
	if len(updates) == 0 {
		return nil
	}

	updates = append(updates, "updated_at = datetime('now')")
	args = append(args, vendorID)

	query := fmt.Sprintf("UPDATE vendor_watchlist SET %s WHERE id = ?", strings.Join(updates, ", "))
	_, err := db.conn.Exec(query, args...)
	return err
}

// ToggleVendor toggles the active state of a watchlist vendor.
func (db *DB) ToggleVendor(vendorID int64) error {
	_, err := db.conn.Exec(
		"UPDATE vendor_watchlist SET is_active = NOT is_active, updated_at = datetime('now') WHERE id = ?",
		vendorID,
	)
	return err
}

// DeleteVendor removes a vendor from the watchlist.
func (db *DB) DeleteVendor(vendorID int64) error {
	_, err := db.conn.Exec("DELETE FROM vendor_watchlist WHERE id = ?", vendorID)
	return err
}

func (db *DB) queryVendors(query string, args ...any) ([]WatchedVendor, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vendors []WatchedVendor
	for rows.Next() {
		var v WatchedVendor
		var aliases *string
		var active int
		if err := rows.Scan(&v.ID, &v.Name, &v.Tier, &aliases, &active, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, err
		}
		v.Aliases = unmarshalStrings(aliases)
		v.IsActive = active != 0
		vendors = append(vendors, v)
	}
	return vendors, rows.Err()
}

func scanVendor(row *sql.Row) (*WatchedVendor, error) {
	var v WatchedVendor
	var aliases *string
	var active int
	if err := row.Scan(&v.ID, &v.Name, &v.Tier, &aliases, &active, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return nil, err
	}
	v.Aliases = unmarshalStrings(aliases)
	v.IsActive = active != 0
	return &v, nil
}
