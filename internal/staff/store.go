package staff

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gastro/pkg/platform/sentinel"
)

// ErrPasswordMismatch is returned by ChangePassword when the supplied old
// password hash does not match the stored one.
var ErrPasswordMismatch = errors.New("password mismatch")

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// List returns all staff members joined with their credentials, ordered by id.
// Members without a credential row still appear, with empty login fields.
func (s *Store) List(ctx context.Context) ([]View, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.first_name, s.last_name, s.phone,
		       COALESCE(c.login, ''), COALESCE(c.password_hash, '')
		FROM staff s
		LEFT JOIN credentials c ON c.staff_id = s.id
		ORDER BY s.id`)
	if err != nil {
		return nil, fmt.Errorf("listing staff: %w", err)
	}
	defer rows.Close()

	out := make([]View, 0)
	for rows.Next() {
		var v View
		if err := rows.Scan(&v.ID, &v.FirstName, &v.LastName, &v.Phone, &v.Login, &v.PasswordHash); err != nil {
			return nil, fmt.Errorf("scanning staff row: %w", err)
		}
		v.IsActive = true
		out = append(out, v)
	}
	return out, rows.Err()
}

// FindByLogin returns the credential and staff member for a login.
func (s *Store) FindByLogin(ctx context.Context, login string) (*Credential, *Member, error) {
	var c Credential
	var m Member
	err := s.db.QueryRowContext(ctx, `
		SELECT c.staff_id, c.login, c.password_hash, COALESCE(c.salt, ''),
		       s.id, s.staff_number, s.first_name, s.last_name, s.phone
		FROM credentials c
		JOIN staff s ON s.id = c.staff_id
		WHERE c.login = $1`, login).
		Scan(&c.StaffID, &c.Login, &c.PasswordHash, &c.Salt,
			&m.ID, &m.Number, &m.FirstName, &m.LastName, &m.Phone)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("finding credentials for login: %w", err)
	}
	return &c, &m, nil
}

// Create inserts a staff member with the next free staff number and a
// credential row, in one transaction.
func (s *Store) Create(ctx context.Context, p CreateParams) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning staff create: %w", err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO staff (staff_number, first_name, last_name, phone)
		VALUES ((SELECT COALESCE(MAX(staff_number), 0) + 1 FROM staff), $1, $2, $3)
		RETURNING id`,
		p.FirstName, p.LastName, p.Phone).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting staff: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO credentials (staff_id, login, password_hash, salt)
		VALUES ($1, $2, $3, '')`,
		id, p.Login, p.PasswordHash)
	if err != nil {
		return 0, fmt.Errorf("inserting credentials: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing staff create: %w", err)
	}
	return id, nil
}

// Update applies the non-nil fields of p to the staff member and its
// credential row.
func (s *Store) Update(ctx context.Context, id int64, p UpdateParams) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning staff update: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE staff SET
			first_name = COALESCE($2, first_name),
			last_name  = COALESCE($3, last_name),
			phone      = COALESCE($4, phone)
		WHERE id = $1`,
		id, p.FirstName, p.LastName, p.Phone)
	if err != nil {
		return fmt.Errorf("updating staff: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking staff update: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	if p.Login != nil || p.PasswordHash != nil {
		_, err = tx.ExecContext(ctx, `
			UPDATE credentials SET
				login         = COALESCE($2, login),
				password_hash = COALESCE($3, password_hash)
			WHERE staff_id = $1`,
			id, p.Login, p.PasswordHash)
		if err != nil {
			return fmt.Errorf("updating credentials: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing staff update: %w", err)
	}
	return nil
}

// Delete removes a staff member with its credential and waiter rows. A member
// whose waiter record still owns orders cannot be deleted and yields
// sentinel.ErrConflict.
func (s *Store) Delete(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning staff delete: %w", err)
	}
	defer tx.Rollback()

	var hasOrders bool
	err = tx.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM orders o
			JOIN waiters w ON w.id = o.waiter_id
			WHERE w.staff_id = $1
		)`, id).Scan(&hasOrders)
	if err != nil {
		return fmt.Errorf("checking staff orders: %w", err)
	}
	if hasOrders {
		return sentinel.ErrConflict
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM waiter_zones WHERE waiter_id IN (SELECT id FROM waiters WHERE staff_id = $1)`, id); err != nil {
		return fmt.Errorf("deleting waiter zones: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM waiters WHERE staff_id = $1`, id); err != nil {
		return fmt.Errorf("deleting waiter: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM credentials WHERE staff_id = $1`, id); err != nil {
		return fmt.Errorf("deleting credentials: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM staff WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting staff: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking staff delete: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return tx.Commit()
}

// Sync upserts the given staff records by id in one transaction and reports
// how many rows were created versus updated. Items without an id are skipped.
func (s *Store) Sync(ctx context.Context, items []SyncItem) (created, updated int, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("beginning staff sync: %w", err)
	}
	defer tx.Rollback()

	for _, it := range items {
		if it.ID == nil {
			continue
		}
		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM staff WHERE id = $1)`, *it.ID).Scan(&exists); err != nil {
			return 0, 0, fmt.Errorf("checking staff %d: %w", *it.ID, err)
		}
		if exists {
			_, err = tx.ExecContext(ctx, `
				UPDATE staff SET first_name = $2, last_name = $3, phone = $4 WHERE id = $1`,
				*it.ID, it.FirstName, it.LastName, it.Phone)
			if err != nil {
				return 0, 0, fmt.Errorf("updating staff %d: %w", *it.ID, err)
			}
			updated++
		} else {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO staff (id, staff_number, first_name, last_name, phone)
				VALUES ($1, (SELECT COALESCE(MAX(staff_number), 0) + 1 FROM staff), $2, $3, $4)`,
				*it.ID, it.FirstName, it.LastName, it.Phone)
			if err != nil {
				return 0, 0, fmt.Errorf("inserting staff %d: %w", *it.ID, err)
			}
			created++
		}
		if it.Login != "" {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO credentials (staff_id, login, password_hash, salt)
				VALUES ($1, $2, $3, '')
				ON CONFLICT (staff_id) DO UPDATE
				SET login = EXCLUDED.login, password_hash = EXCLUDED.password_hash`,
				*it.ID, it.Login, it.PasswordHash)
			if err != nil {
				return 0, 0, fmt.Errorf("upserting credentials for staff %d: %w", *it.ID, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("committing staff sync: %w", err)
	}
	return created, updated, nil
}

// ChangePassword swaps the stored password hash after verifying the old one.
func (s *Store) ChangePassword(ctx context.Context, id int64, oldHash, newHash string) error {
	var stored string
	err := s.db.QueryRowContext(ctx, `SELECT password_hash FROM credentials WHERE staff_id = $1`, id).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("reading credentials: %w", err)
	}
	if stored != oldHash {
		return ErrPasswordMismatch
	}
	_, err = s.db.ExecContext(ctx, `UPDATE credentials SET password_hash = $2 WHERE staff_id = $1`, id, newHash)
	if err != nil {
		return fmt.Errorf("updating password: %w", err)
	}
	return nil
}
