// ABOUTME: Reference entity (client and product) storage
// ABOUTME: Entities are seeded by operators and only ever read by the deal UI
package db

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/harperreed/dealflow/models"
)

func ListEntities(db *sql.DB) ([]models.Entity, error) {
	rows, err := db.Query("SELECT id, name, type FROM entities ORDER BY type, name")
	if err != nil {
		return nil, fmt.Errorf("failed to query entities: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entities := []models.Entity{}
	for rows.Next() {
		var e models.Entity
		var typ string
		if err := rows.Scan(&e.ID, &e.Name, &typ); err != nil {
			return nil, fmt.Errorf("failed to scan entity: %w", err)
		}
		e.Type = models.EntityType(typ)
		entities = append(entities, e)
	}
	return entities, rows.Err()
}

// UpsertEntity inserts an entity unless one with the same name and type exists.
// It returns the entity's id either way.
func UpsertEntity(db *sql.DB, name string, typ models.EntityType) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("%w: entity name cannot be empty", models.ErrValidation)
	}
	if typ != models.EntityClient && typ != models.EntityProduct {
		return 0, fmt.Errorf("%w: unknown entity type %q", models.ErrValidation, typ)
	}

	if _, err := db.Exec("INSERT OR IGNORE INTO entities (name, type) VALUES (?, ?)", name, string(typ)); err != nil {
		return 0, fmt.Errorf("failed to insert entity: %w", err)
	}

	var id int64
	if err := db.QueryRow("SELECT id FROM entities WHERE name = ? AND type = ?", name, string(typ)).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to read entity id: %w", err)
	}
	return id, nil
}
