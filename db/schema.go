// ABOUTME: Database schema for deals and reference entities
// ABOUTME: Stage is stored as its label and constrained to the eight pipeline stages
package db

import (
	"database/sql"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS deals (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	client_name TEXT NOT NULL,
	product_name TEXT NOT NULL,
	stage TEXT NOT NULL CHECK(stage IN (
		'Lead Generated', 'Contacted', 'Application Submitted', 'Application Under Review',
		'Deal Finalized', 'Payment Confirmed', 'Completed', 'Lost')),
	description TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_deals_stage ON deals(stage);

CREATE TABLE IF NOT EXISTS entities (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	type TEXT NOT NULL CHECK(type IN ('client', 'product')),
	UNIQUE(name, type)
);

CREATE INDEX IF NOT EXISTS idx_entities_type ON entities(type);
`

func InitSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// Tables lists user tables, used by the migrate tool to report state.
func Tables(db *sql.DB) ([]string, error) {
	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}
