package reservation

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gastro/pkg/platform/sentinel"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) List(ctx context.Context) ([]View, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, first_name, last_name, COALESCE(phone, ''), people_count,
		       res_date, res_time, approved, table_id
		FROM reservations
		ORDER BY res_date, res_time, id`)
	if err != nil {
		return nil, fmt.Errorf("listing reservations: %w", err)
	}
	defer rows.Close()

	out := make([]View, 0)
	for rows.Next() {
		var (
			v       View
			day     time.Time
			clock   time.Time
			tableID sql.NullInt64
		)
		err := rows.Scan(&v.ID, &v.FirstName, &v.LastName, &v.Phone, &v.PeopleCount,
			&day, &clock, &v.Approved, &tableID)
		if err != nil {
			return nil, fmt.Errorf("scanning reservation row: %w", err)
		}
		v.Date = day.Format("2006-01-02")
		v.Time = clock.Format("15:04")
		v.StartTime = v.Date + "T" + clock.Format("15:04:05")
		if tableID.Valid {
			v.TableID = &tableID.Int64
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// ReplaceAll swaps the whole reservation book for the given records in one
// transaction. Records keep their client ids when present.
func (s *Store) ReplaceAll(ctx context.Context, records []Record) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning reservation sync: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM reservations`); err != nil {
		return 0, fmt.Errorf("clearing reservations: %w", err)
	}
	inserted := 0
	for _, rec := range records {
		if rec.ID != nil {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO reservations (id, first_name, last_name, phone, people_count, res_date, res_time, approved, table_id)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
				*rec.ID, rec.FirstName, rec.LastName, rec.Phone, rec.PeopleCount,
				rec.Day.Format("2006-01-02"), rec.Time, rec.Approved, rec.TableID)
		} else {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO reservations (first_name, last_name, phone, people_count, res_date, res_time, approved, table_id)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				rec.FirstName, rec.LastName, rec.Phone, rec.PeopleCount,
				rec.Day.Format("2006-01-02"), rec.Time, rec.Approved, rec.TableID)
		}
		if err != nil {
			return 0, fmt.Errorf("inserting reservation: %w", err)
		}
		inserted++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing reservation sync: %w", err)
	}
	return inserted, nil
}

// SetApproved flips the approval flag of one reservation.
func (s *Store) SetApproved(ctx context.Context, id int64, approved bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE reservations SET approved = $2 WHERE id = $1`, id, approved)
	if err != nil {
		return fmt.Errorf("updating approval: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking approval update: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
