package report

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the wire format for report dates throughout the API.
const DateLayout = "2006-01-02"

// ParseDate parses a strict YYYY-MM-DD date.
func ParseDate(value string) (time.Time, error) {
	d, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", value, err)
	}
	return d, nil
}

// Report is the full accumulated archive for one calendar date. Entries are
// kept as raw JSON so uploaded entries survive byte-for-byte; the archive
// only ever appends to the sequence. Extra carries any other top-level
// fields found on disk so they round-trip across appends.
type Report struct {
	Date    string
	Entries []json.RawMessage
	Extra   map[string]json.RawMessage
}

// MarshalJSON flattens Extra back into the top-level object alongside the
// canonical Date and Entries fields.
func (r Report) MarshalJSON() ([]byte, error) {
	fields := make(map[string]json.RawMessage, len(r.Extra)+2)
	for k, v := range r.Extra {
		fields[k] = v
	}
	date, err := json.Marshal(r.Date)
	if err != nil {
		return nil, err
	}
	fields["Date"] = date
	entries := r.Entries
	if entries == nil {
		entries = []json.RawMessage{}
	}
	rawEntries, err := json.Marshal(entries)
	if err != nil {
		return nil, err
	}
	fields["Entries"] = rawEntries
	return json.Marshal(fields)
}

// UnmarshalJSON splits the object into the typed Date and Entries fields and
// parks everything else in Extra.
func (r *Report) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	*r = Report{Entries: []json.RawMessage{}}
	if raw, ok := fields["Date"]; ok {
		if err := json.Unmarshal(raw, &r.Date); err != nil {
			return fmt.Errorf("invalid report Date: %w", err)
		}
	}
	if raw, ok := fields["Entries"]; ok {
		var entries []json.RawMessage
		if err := json.Unmarshal(raw, &entries); err != nil {
			return fmt.Errorf("invalid report Entries: %w", err)
		}
		if entries != nil {
			r.Entries = entries
		}
	}

	delete(fields, "Date")
	delete(fields, "Entries")
	if len(fields) > 0 {
		r.Extra = fields
	}
	return nil
}

// Entry is one archived submission. Source and Payload stay raw because
// clients post arbitrary nested JSON.
type Entry struct {
	ReceivedAt string          `json:"ReceivedAt"`
	Date       string          `json:"Date,omitempty"`
	Source     json.RawMessage `json:"Source"`
	Payload    json.RawMessage `json:"Payload"`
}

// Marshal renders the entry for appending to a report.
func (e Entry) Marshal() (json.RawMessage, error) {
	raw, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal entry: %w", err)
	}
	return raw, nil
}

// FileInfo describes one archived report file.
type FileInfo struct {
	Date      string `json:"Date"`
	Path      string `json:"Path"`
	SizeBytes int64  `json:"SizeBytes"`
}

// ReceivedAtStamp formats a timestamp the way archive entries carry it:
// UTC, second precision, trailing Z.
func ReceivedAtStamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05") + "Z"
}
