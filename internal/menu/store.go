package menu

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"gastro/pkg/platform/sentinel"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) List(ctx context.Context) ([]Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, COALESCE(category, ''), price
		FROM menu_items
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing menu: %w", err)
	}
	defer rows.Close()

	out := make([]Item, 0)
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.Name, &it.Category, &it.Price); err != nil {
			return nil, fmt.Errorf("scanning menu row: %w", err)
		}
		if it.Category == "" {
			it.Category = DefaultCategory
		}
		it.IsActive = true
		out = append(out, it)
	}
	return out, rows.Err()
}

// Sync makes the card match the payload: items with ids are upserted and
// every item missing from the payload is removed together with its order
// lines. Runs in one transaction.
func (s *Store) Sync(ctx context.Context, items []SyncItem) (kept, removed int, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("beginning menu sync: %w", err)
	}
	defer tx.Rollback()

	keepIDs := make([]int64, 0, len(items))
	for _, it := range items {
		if it.ID == nil || it.Name == "" {
			continue
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO menu_items (id, name, category, price, description, allergens)
			VALUES ($1, $2, $3, $4, COALESCE($5, ''), $6)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				category = EXCLUDED.category,
				price = EXCLUDED.price,
				description = EXCLUDED.description,
				allergens = EXCLUDED.allergens`,
			*it.ID, it.Name, it.Category, it.Price, it.Description, it.Allergens)
		if err != nil {
			return 0, 0, fmt.Errorf("upserting menu item %d: %w", *it.ID, err)
		}
		keepIDs = append(keepIDs, *it.ID)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM order_items
		WHERE menu_item_id IN (SELECT id FROM menu_items WHERE NOT (id = ANY($1)))`,
		pq.Array(keepIDs))
	if err != nil {
		return 0, 0, fmt.Errorf("deleting orphaned order lines: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM menu_items WHERE NOT (id = ANY($1))`, pq.Array(keepIDs))
	if err != nil {
		return 0, 0, fmt.Errorf("deleting absent menu items: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, 0, fmt.Errorf("checking menu sync: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("committing menu sync: %w", err)
	}
	return len(keepIDs), int(n), nil
}

// Delete removes one menu item with any order lines referencing it.
func (s *Store) Delete(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning menu delete: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM order_items WHERE menu_item_id = $1`, id); err != nil {
		return fmt.Errorf("deleting order lines: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM menu_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting menu item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking menu delete: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return tx.Commit()
}
