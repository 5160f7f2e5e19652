package reservation

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// View is one reservation as POS clients exchange it. StartTime combines
// Date and Time for clients that bind a single field.
type View struct {
	ID          int64  `json:"Id"`
	FirstName   string `json:"FirstName"`
	LastName    string `json:"LastName"`
	Phone       string `json:"Phone"`
	PeopleCount int    `json:"PeopleCount"`
	Date        string `json:"Date"`
	Time        string `json:"Time"`
	StartTime   string `json:"StartTime"`
	Approved    bool   `json:"Approved"`
	TableID     *int64 `json:"TableId"`
}

// SyncItem is one element of the reservation sync payload. Date and Time may
// be absent when StartTime carries both.
type SyncItem struct {
	ID          *int64      `json:"Id"`
	FirstName   string      `json:"FirstName"`
	LastName    string      `json:"LastName"`
	Phone       string      `json:"Phone"`
	PeopleCount int         `json:"Ile_osob"`
	Date        string      `json:"Date"`
	Time        string      `json:"Time"`
	StartTime   string      `json:"StartTime"`
	Approved    LenientBool `json:"Approved"`
	TableID     *int64      `json:"TableId"`
}

// Record is the parsed form a SyncItem resolves to.
type Record struct {
	ID          *int64
	FirstName   string
	LastName    string
	Phone       string
	PeopleCount int
	Day         time.Time
	Time        string
	Approved    bool
	TableID     *int64
}

// Resolve parses the item's date and time, falling back to StartTime when
// the split fields are absent. It fails when neither form parses.
func (it SyncItem) Resolve() (Record, error) {
	day, clock, err := splitDateTime(it.Date, it.Time, it.StartTime)
	if err != nil {
		return Record{}, err
	}
	people := it.PeopleCount
	if people < 1 {
		people = 1
	}
	return Record{
		ID:          it.ID,
		FirstName:   it.FirstName,
		LastName:    it.LastName,
		Phone:       it.Phone,
		PeopleCount: people,
		Day:         day,
		Time:        clock,
		Approved:    bool(it.Approved),
		TableID:     it.TableID,
	}, nil
}

func splitDateTime(date, clock, start string) (time.Time, string, error) {
	if date != "" {
		d, err := parseDay(date)
		if err != nil {
			return time.Time{}, "", err
		}
		c, err := parseClock(clock)
		if err != nil {
			return time.Time{}, "", err
		}
		return d, c, nil
	}
	if start == "" {
		return time.Time{}, "", fmt.Errorf("no date given")
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02T15:04"} {
		if t, err := time.Parse(layout, start); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), t.Format("15:04:05"), nil
		}
	}
	return time.Time{}, "", fmt.Errorf("unparseable start time %q", start)
}

// parseDay accepts ISO dates and the dd.mm.yyyy form older clients send.
func parseDay(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "02.01.2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}

// parseClock accepts HH:MM and HH:MM:SS, defaulting empty to noon.
func parseClock(s string) (string, error) {
	if s == "" {
		return "12:00:00", nil
	}
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("15:04:05"), nil
		}
	}
	return "", fmt.Errorf("unparseable time %q", s)
}

// LenientBool accepts the booleans POS clients actually send: true, "true",
// 1, "1", "yes", "tak".
type LenientBool bool

func (b *LenientBool) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case bool:
		*b = LenientBool(t)
	case float64:
		*b = LenientBool(t != 0)
	case string:
		s := strings.ToLower(strings.TrimSpace(t))
		*b = LenientBool(s == "true" || s == "1" || s == "yes" || s == "tak")
	default:
		*b = false
	}
	return nil
}
