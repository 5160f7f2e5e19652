package zone

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// List returns every zone with its assigned table ids and the staff ids of
// its assigned waiters.
func (s *Store) List(ctx context.Context) ([]Group, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT z.id, z.name,
		       COALESCE((SELECT array_agg(tz.table_id ORDER BY tz.table_id)
		                 FROM table_zones tz WHERE tz.zone_id = z.id), '{}'),
		       COALESCE((SELECT array_agg(w.staff_id ORDER BY w.staff_id)
		                 FROM waiter_zones wz
		                 JOIN waiters w ON w.id = wz.waiter_id
		                 WHERE wz.zone_id = z.id), '{}')
		FROM zones z
		ORDER BY z.id`)
	if err != nil {
		return nil, fmt.Errorf("listing zones: %w", err)
	}
	defer rows.Close()

	out := make([]Group, 0)
	for rows.Next() {
		var g Group
		var tables, staffIDs pq.Int64Array
		if err := rows.Scan(&g.ID, &g.Name, &tables, &staffIDs); err != nil {
			return nil, fmt.Errorf("scanning zone row: %w", err)
		}
		g.AssignedTableIDs = tables
		g.AssignedStaffIDs = staffIDs
		out = append(out, g)
	}
	return out, rows.Err()
}

// Sync replaces the zone setup with the payload: zones are upserted by id,
// all table and waiter assignments are rebuilt, and the legacy single-zone
// columns on dining_tables and waiters are pointed at the first zone each
// belongs to. Waiter rows are created on demand for assigned staff.
func (s *Store) Sync(ctx context.Context, groups []Group) (applied int, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning zone sync: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM table_zones`); err != nil {
		return 0, fmt.Errorf("clearing table assignments: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM waiter_zones`); err != nil {
		return 0, fmt.Errorf("clearing waiter assignments: %w", err)
	}

	for _, g := range groups {
		if g.ID == 0 || g.Name == "" {
			continue
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO zones (id, name) VALUES ($1, $2)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`,
			g.ID, g.Name)
		if err != nil {
			return 0, fmt.Errorf("upserting zone %d: %w", g.ID, err)
		}

		for _, tableID := range g.AssignedTableIDs {
			res, err := tx.ExecContext(ctx, `
				INSERT INTO table_zones (table_id, zone_id)
				SELECT $1, $2 WHERE EXISTS (SELECT 1 FROM dining_tables WHERE id = $1)
				ON CONFLICT DO NOTHING`,
				tableID, g.ID)
			if err != nil {
				return 0, fmt.Errorf("assigning table %d to zone %d: %w", tableID, g.ID, err)
			}
			if n, _ := res.RowsAffected(); n > 0 {
				// First assignment wins for the legacy column.
				_, err = tx.ExecContext(ctx, `
					UPDATE dining_tables SET zone_id = $2
					WHERE id = $1 AND NOT EXISTS (
						SELECT 1 FROM table_zones WHERE table_id = $1 AND zone_id <> $2
					)`, tableID, g.ID)
				if err != nil {
					return 0, fmt.Errorf("updating primary zone of table %d: %w", tableID, err)
				}
			}
		}

		for _, staffID := range g.AssignedStaffIDs {
			var waiterID int64
			err := tx.QueryRowContext(ctx, `SELECT id FROM waiters WHERE staff_id = $1`, staffID).Scan(&waiterID)
			if err == sql.ErrNoRows {
				err = tx.QueryRowContext(ctx, `
					INSERT INTO waiters (staff_id, zone_id)
					SELECT $1, $2 WHERE EXISTS (SELECT 1 FROM staff WHERE id = $1)
					RETURNING id`, staffID, g.ID).Scan(&waiterID)
				if err == sql.ErrNoRows {
					continue
				}
			}
			if err != nil {
				return 0, fmt.Errorf("resolving waiter for staff %d: %w", staffID, err)
			}
			_, err = tx.ExecContext(ctx, `
				INSERT INTO waiter_zones (waiter_id, zone_id) VALUES ($1, $2)
				ON CONFLICT DO NOTHING`, waiterID, g.ID)
			if err != nil {
				return 0, fmt.Errorf("assigning waiter %d to zone %d: %w", waiterID, g.ID, err)
			}
			_, err = tx.ExecContext(ctx, `
				UPDATE waiters SET zone_id = $2
				WHERE id = $1 AND NOT EXISTS (
					SELECT 1 FROM waiter_zones WHERE waiter_id = $1 AND zone_id <> $2
				)`, waiterID, g.ID)
			if err != nil {
				return 0, fmt.Errorf("updating primary zone of waiter %d: %w", waiterID, err)
			}
		}
		applied++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing zone sync: %w", err)
	}
	return applied, nil
}
