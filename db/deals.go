// ABOUTME: Deal database operations for the reference server
// ABOUTME: List, get, create, partial update and delete against the deals table
package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/dealflow/models"
)

const dealColumns = "id, client_name, product_name, stage, description, created_at"

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDeal(row rowScanner) (models.Deal, error) {
	var d models.Deal
	var id int64
	var stage string
	if err := row.Scan(&id, &d.ClientName, &d.ProductName, &stage, &d.Description, &d.CreatedAt); err != nil {
		return models.Deal{}, err
	}
	d.ID = models.DealID(id)
	d.Stage = models.Stage(stage)
	return d, nil
}

func ListDeals(db *sql.DB) ([]models.Deal, error) {
	rows, err := db.Query("SELECT " + dealColumns + " FROM deals ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query deals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	deals := []models.Deal{}
	for rows.Next() {
		d, err := scanDeal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deal: %w", err)
		}
		deals = append(deals, d)
	}
	return deals, rows.Err()
}

// GetDeal returns models.ErrNotFound when no deal has the id.
func GetDeal(db *sql.DB, id models.DealID) (models.Deal, error) {
	d, err := scanDeal(db.QueryRow("SELECT "+dealColumns+" FROM deals WHERE id = ?", int64(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Deal{}, fmt.Errorf("%w: %s", models.ErrNotFound, id)
	}
	if err != nil {
		return models.Deal{}, fmt.Errorf("failed to get deal: %w", err)
	}
	return d, nil
}

func CreateDeal(db *sql.DB, draft models.DealDraft) (models.Deal, error) {
	if err := draft.Prepare(time.Now()); err != nil {
		return models.Deal{}, err
	}

	res, err := db.Exec(`
		INSERT INTO deals (client_name, product_name, stage, description, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, draft.ClientName, draft.ProductName, string(draft.Stage), draft.Description, draft.CreatedAt)
	if err != nil {
		return models.Deal{}, fmt.Errorf("failed to insert deal: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return models.Deal{}, fmt.Errorf("failed to read deal id: %w", err)
	}
	return draft.WithID(models.DealID(id)), nil
}

// UpdateDeal writes only the fields set in the patch and returns the full record.
func UpdateDeal(db *sql.DB, id models.DealID, patch models.DealPatch) (models.Deal, error) {
	if err := patch.Validate(); err != nil {
		return models.Deal{}, err
	}

	sets := []string{}
	args := []interface{}{}
	if patch.ClientName != nil {
		sets = append(sets, "client_name = ?")
		args = append(args, strings.TrimSpace(*patch.ClientName))
	}
	if patch.ProductName != nil {
		sets = append(sets, "product_name = ?")
		args = append(args, strings.TrimSpace(*patch.ProductName))
	}
	if patch.Stage != nil {
		sets = append(sets, "stage = ?")
		args = append(args, string(*patch.Stage))
	}
	if patch.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *patch.Description)
	}

	if len(sets) > 0 {
		sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
		args = append(args, int64(id))
		res, err := db.Exec("UPDATE deals SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
		if err != nil {
			return models.Deal{}, fmt.Errorf("failed to update deal: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return models.Deal{}, fmt.Errorf("%w: %s", models.ErrNotFound, id)
		}
	}

	return GetDeal(db, id)
}

func DeleteDeal(db *sql.DB, id models.DealID) error {
	res, err := db.Exec("DELETE FROM deals WHERE id = ?", int64(id))
	if err != nil {
		return fmt.Errorf("failed to delete deal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", models.ErrNotFound, id)
	}
	return nil
}
