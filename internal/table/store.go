package table

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"gastro/pkg/platform/sentinel"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// List returns the floor plan: every table joined with its map placement.
// Tables without a placement default to the origin on level 0.
func (s *Store) List(ctx context.Context) ([]View, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, COALESCE(m.name, 'Stolik ' || t.table_number), t.seats,
		       COALESCE(m.x_pos, 0), COALESCE(m.y_pos, 0), COALESCE(m.level, 0)
		FROM dining_tables t
		LEFT JOIN table_map m ON m.table_id = t.id
		ORDER BY t.id`)
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	defer rows.Close()

	out := make([]View, 0)
	for rows.Next() {
		var v View
		if err := rows.Scan(&v.ID, &v.Name, &v.Seats, &v.X, &v.Y, &v.Level); err != nil {
			return nil, fmt.Errorf("scanning table row: %w", err)
		}
		v.Width = defaultWidth
		v.Height = defaultHeight
		v.Status = statusFree
		out = append(out, v)
	}
	return out, rows.Err()
}

// Sync replaces the floor plan for every level present in the payload and
// upserts the backing table rows. Other levels keep their placements.
func (s *Store) Sync(ctx context.Context, items []SyncItem) (applied int, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning table sync: %w", err)
	}
	defer tx.Rollback()

	zoneID, err := ensureDefaultZone(ctx, tx)
	if err != nil {
		return 0, err
	}

	levels := map[int]bool{}
	for _, it := range items {
		if it.ID == nil {
			continue
		}
		lvl := 0
		if it.Level != nil {
			lvl = *it.Level
		}
		if !levels[lvl] {
			if _, err := tx.ExecContext(ctx, `DELETE FROM table_map WHERE level = $1`, lvl); err != nil {
				return 0, fmt.Errorf("clearing level %d: %w", lvl, err)
			}
			levels[lvl] = true
		}

		seats := defaultSeats
		if it.Seats != nil {
			seats = *it.Seats
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO dining_tables (id, table_number, seats, zone_id)
			VALUES ($1, $1, $2, $3)
			ON CONFLICT (id) DO UPDATE SET seats = EXCLUDED.seats`,
			*it.ID, seats, zoneID)
		if err != nil {
			return 0, fmt.Errorf("upserting table %d: %w", *it.ID, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO table_map (table_id, x_pos, y_pos, rotation, name, level)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (table_id) DO UPDATE SET
				x_pos = EXCLUDED.x_pos, y_pos = EXCLUDED.y_pos,
				rotation = EXCLUDED.rotation, name = EXCLUDED.name, level = EXCLUDED.level`,
			*it.ID, int(math.Round(it.X)), int(math.Round(it.Y)), int(math.Round(it.Rotation)), it.Name, lvl)
		if err != nil {
			return 0, fmt.Errorf("placing table %d: %w", *it.ID, err)
		}
		applied++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing table sync: %w", err)
	}
	return applied, nil
}

// UpdateSeats changes the seat count of one table.
func (s *Store) UpdateSeats(ctx context.Context, id int64, seats int) error {
	res, err := s.db.ExecContext(ctx, `UPDATE dining_tables SET seats = $2 WHERE id = $1`, id, seats)
	if err != nil {
		return fmt.Errorf("updating seats: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking seats update: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// ensureDefaultZone returns the id of some zone, creating "Sala" when the
// zones table is empty. Floor-plan syncs can arrive before any zone setup.
func ensureDefaultZone(ctx context.Context, tx *sql.Tx) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx, `SELECT id FROM zones ORDER BY id LIMIT 1`).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("finding default zone: %w", err)
	}
	err = tx.QueryRowContext(ctx, `INSERT INTO zones (name) VALUES ('Sala') RETURNING id`).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("creating default zone: %w", err)
	}
	return id, nil
}
