// Package stock tracks back-of-house inventory items.
package stock

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gastro/pkg/platform/sentinel"
)

// Item is one inventory position.
type Item struct {
	ID   int64   `json:"Id"`
	Name string  `json:"Name"`
	Unit string  `json:"Unit"`
	Qty  float64 `json:"Qty"`
}

// UpdateParams carries optional fields for a partial item update.
type UpdateParams struct {
	Name *string  `json:"Name"`
	Unit *string  `json:"Unit"`
	Qty  *float64 `json:"Qty"`
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) List(ctx context.Context) ([]Item, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, unit, qty FROM stock_items ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("listing stock: %w", err)
	}
	defer rows.Close()

	out := make([]Item, 0)
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.Name, &it.Unit, &it.Qty); err != nil {
			return nil, fmt.Errorf("scanning stock row: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (s *Store) Create(ctx context.Context, name, unit string, qty float64) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO stock_items (name, unit, qty) VALUES ($1, $2, $3) RETURNING id`,
		name, unit, qty).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting stock item: %w", err)
	}
	return id, nil
}

func (s *Store) Update(ctx context.Context, id int64, p UpdateParams) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE stock_items SET
			name = COALESCE($2, name),
			unit = COALESCE($3, unit),
			qty  = COALESCE($4, qty)
		WHERE id = $1`,
		id, p.Name, p.Unit, p.Qty)
	if err != nil {
		return fmt.Errorf("updating stock item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking stock update: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// Adjust shifts the quantity by delta and returns the new value. Quantities
// are clamped at zero so a stale terminal cannot drive stock negative.
func (s *Store) Adjust(ctx context.Context, id int64, delta float64) (float64, error) {
	var newQty float64
	err := s.db.QueryRowContext(ctx, `
		UPDATE stock_items SET qty = GREATEST(qty + $2, 0)
		WHERE id = $1
		RETURNING qty`, id, delta).Scan(&newQty)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, sentinel.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("adjusting stock item: %w", err)
	}
	return newQty, nil
}
