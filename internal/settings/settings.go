// Package settings stores the key-value options POS clients tune, with a
// typed view over the reservation options.
package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
)

// Option is one settings row.
type Option struct {
	ID          int64   `json:"Id"`
	Name        string  `json:"Name"`
	Value       string  `json:"Value"`
	Type        *string `json:"Type"`
	Description *string `json:"Description"`
}

// ReservationSettings is the typed view over the reservation option keys.
type ReservationSettings struct {
	RequireApproval            bool   `json:"RequireApproval"`
	ReservationIntervalMinutes int    `json:"ReservationIntervalMinutes"`
	OpenFrom                   string `json:"OpenFrom"`
	CloseTo                    string `json:"CloseTo"`
}

// Option keys the first-generation clients introduced, kept verbatim.
const (
	KeyRequireApproval = "Zatwierdzanie_Rezerwacji"
	KeyInterval        = "Odstep_miedzy_rezerwacjami"
	KeyOpenFrom        = "godziny_otwarcia_od"
	KeyCloseTo         = "godziny_zamkniecia_od"
)

// DefaultReservationSettings applies when no option rows exist yet.
var DefaultReservationSettings = ReservationSettings{
	RequireApproval:            false,
	ReservationIntervalMinutes: 30,
	OpenFrom:                   "10:00",
	CloseTo:                    "22:00",
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) List(ctx context.Context) ([]Option, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, option_name, option_value, value_type, description
		FROM settings ORDER BY option_name`)
	if err != nil {
		return nil, fmt.Errorf("listing settings: %w", err)
	}
	defer rows.Close()

	out := make([]Option, 0)
	for rows.Next() {
		var o Option
		if err := rows.Scan(&o.ID, &o.Name, &o.Value, &o.Type, &o.Description); err != nil {
			return nil, fmt.Errorf("scanning settings row: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *Store) getValue(ctx context.Context, name string) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT option_value FROM settings WHERE option_name = $1`, name).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading option %q: %w", name, err)
	}
	return v, true, nil
}

// Reservations assembles the typed reservation view, falling back to the
// defaults for missing keys.
func (s *Store) Reservations(ctx context.Context) (ReservationSettings, error) {
	out := DefaultReservationSettings

	if v, ok, err := s.getValue(ctx, KeyRequireApproval); err != nil {
		return out, err
	} else if ok {
		out.RequireApproval = v == "1" || v == "true"
	}
	if v, ok, err := s.getValue(ctx, KeyInterval); err != nil {
		return out, err
	} else if ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			out.ReservationIntervalMinutes = n
		}
	}
	if v, ok, err := s.getValue(ctx, KeyOpenFrom); err != nil {
		return out, err
	} else if ok && v != "" {
		out.OpenFrom = v
	}
	if v, ok, err := s.getValue(ctx, KeyCloseTo); err != nil {
		return out, err
	} else if ok && v != "" {
		out.CloseTo = v
	}
	return out, nil
}

// SetReservations writes the typed view back to its option rows in one
// transaction.
func (s *Store) SetReservations(ctx context.Context, rs ReservationSettings) error {
	approval := "0"
	if rs.RequireApproval {
		approval = "1"
	}
	return s.SetBulk(ctx, map[string]string{
		KeyRequireApproval: approval,
		KeyInterval:        strconv.Itoa(rs.ReservationIntervalMinutes),
		KeyOpenFrom:        rs.OpenFrom,
		KeyCloseTo:         rs.CloseTo,
	})
}

// SetBulk upserts a batch of option values in one transaction.
func (s *Store) SetBulk(ctx context.Context, values map[string]string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning settings update: %w", err)
	}
	defer tx.Rollback()

	for name, value := range values {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO settings (option_name, option_value)
			VALUES ($1, $2)
			ON CONFLICT (option_name) DO UPDATE SET option_value = EXCLUDED.option_value`,
			name, value)
		if err != nil {
			return fmt.Errorf("upserting option %q: %w", name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing settings update: %w", err)
	}
	return nil
}
