package report

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"gastro/pkg/platform/sentinel"
)

func testArchive(t *testing.T) *Archive {
	t.Helper()
	return NewArchive(t.TempDir(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDate(s)
	require.NoError(t, err)
	return d
}

func rawEntry(t *testing.T, source string, payload any) json.RawMessage {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	raw, err := Entry{
		ReceivedAt: ReceivedAtStamp(time.Now()),
		Source:     json.RawMessage(fmt.Sprintf("%q", source)),
		Payload:    body,
	}.Marshal()
	require.NoError(t, err)
	return raw
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-06-01")
	require.NoError(t, err)
	assert.Equal(t, "2025-06-01", d.Format(DateLayout))

	for _, bad := range []string{"", "01.06.2025", "2025-6-1", "2025-06-01T10:00:00", "yesterday"} {
		_, err := ParseDate(bad)
		assert.Error(t, err, bad)
	}
}

func TestPathLayout(t *testing.T) {
	a := NewArchive("raports", slog.New(slog.NewTextHandler(io.Discard, nil)))
	d := mustDate(t, "2025-06-01")
	assert.Equal(t, filepath.Join("raports", "2025", "06", "2025-06-01.json.gz"), a.Path(d))
}

func TestAppendPreservesCallOrder(t *testing.T) {
	a := testArchive(t)
	d := mustDate(t, "2025-06-01")

	_, err := a.Append(d, []json.RawMessage{rawEntry(t, "POS", map[string]int{"x": 1})})
	require.NoError(t, err)
	merged, err := a.Append(d, []json.RawMessage{rawEntry(t, "POS", map[string]int{"x": 2})})
	require.NoError(t, err)
	assert.Len(t, merged.Entries, 2)

	rep, err := a.ReadDay(d)
	require.NoError(t, err)
	require.Len(t, rep.Entries, 2)

	var first, second Entry
	require.NoError(t, json.Unmarshal(rep.Entries[0], &first))
	require.NoError(t, json.Unmarshal(rep.Entries[1], &second))
	assert.JSONEq(t, `{"x":1}`, string(first.Payload))
	assert.JSONEq(t, `{"x":2}`, string(second.Payload))
}

func TestAppendDifferentDatesDoNotInterfere(t *testing.T) {
	a := testArchive(t)
	d1 := mustDate(t, "2025-06-01")
	d2 := mustDate(t, "2025-06-02")

	_, err := a.Append(d1, []json.RawMessage{rawEntry(t, "POS", 1)})
	require.NoError(t, err)
	_, err = a.Append(d2, []json.RawMessage{rawEntry(t, "POS", 2)})
	require.NoError(t, err)

	r1, err := a.ReadDay(d1)
	require.NoError(t, err)
	r2, err := a.ReadDay(d2)
	require.NoError(t, err)
	assert.Len(t, r1.Entries, 1)
	assert.Len(t, r2.Entries, 1)
	assert.Equal(t, "2025-06-01", r1.Date)
	assert.Equal(t, "2025-06-02", r2.Date)
}

// Concurrent appends to the same date must all survive; the lock serializes
// the read-merge-write cycle so no append clobbers another.
func TestConcurrentAppendsLoseNothing(t *testing.T) {
	a := testArchive(t)
	d := mustDate(t, "2025-06-01")
	const appenders = 20

	var g errgroup.Group
	for i := 0; i < appenders; i++ {
		g.Go(func() error {
			_, err := a.Append(d, []json.RawMessage{rawEntry(t, "POS", map[string]int{"n": i})})
			return err
		})
	}
	require.NoError(t, g.Wait())

	rep, err := a.ReadDay(d)
	require.NoError(t, err)
	assert.Len(t, rep.Entries, appenders)
}

func TestReadDayMissing(t *testing.T) {
	a := testArchive(t)
	_, err := a.ReadDay(mustDate(t, "2099-01-01"))
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestExistsAndRemove(t *testing.T) {
	a := testArchive(t)
	d := mustDate(t, "2025-06-01")
	assert.False(t, a.Exists(d))

	_, err := a.Append(d, []json.RawMessage{rawEntry(t, "POS", 1)})
	require.NoError(t, err)
	assert.True(t, a.Exists(d))

	require.NoError(t, a.Remove(d))
	assert.False(t, a.Exists(d))
	assert.ErrorIs(t, a.Remove(d), sentinel.ErrNotFound)
}

func TestNormalizeRepairsMalformedShapes(t *testing.T) {
	d := mustDate(t, "2025-06-01")

	cases := map[string]string{
		"empty object":     `{}`,
		"wrong date":       `{"Date":"1999-01-01","Entries":null}`,
		"entries not list": `{"Date":"2025-06-01","Entries":{"oops":true}}`,
		"not an object":    `[1,2,3]`,
		"garbage":          `nonsense`,
	}
	for name, raw := range cases {
		rep := normalize(d, []byte(raw))
		assert.Equal(t, "2025-06-01", rep.Date, name)
		assert.NotNil(t, rep.Entries, name)
		assert.Empty(t, rep.Entries, name)
	}

	rep := normalize(d, []byte(`{"Entries":[{"a":1},{"b":2}]}`))
	assert.Len(t, rep.Entries, 2)
}

func TestNormalizeKeepsUnknownTopLevelFields(t *testing.T) {
	d := mustDate(t, "2025-06-01")

	rep := normalize(d, []byte(`{"Date":"2025-06-01","Entries":[{"a":1}],"Generator":"pos-3"}`))
	assert.Len(t, rep.Entries, 1)
	require.Contains(t, rep.Extra, "Generator")
	assert.JSONEq(t, `"pos-3"`, string(rep.Extra["Generator"]))
}

// Fields the archive does not know about must survive the read-merge-write
// cycle, both in memory and in the rewritten file.
func TestAppendPreservesUnknownTopLevelFields(t *testing.T) {
	a := testArchive(t)
	d := mustDate(t, "2025-06-01")
	path := a.Path(d)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))

	f, err := os.Create(path)
	require.NoError(t, err)
	zw := gzip.NewWriter(f)
	_, err = zw.Write([]byte(`{"Date":"2025-06-01","Entries":[],"Generator":"pos-3"}`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	merged, err := a.Append(d, []json.RawMessage{rawEntry(t, "POS", 1)})
	require.NoError(t, err)
	require.Contains(t, merged.Extra, "Generator")

	rep, err := a.ReadDay(d)
	require.NoError(t, err)
	assert.Len(t, rep.Entries, 1)
	require.Contains(t, rep.Extra, "Generator")
	assert.JSONEq(t, `"pos-3"`, string(rep.Extra["Generator"]))
}

func TestAppendToHandEditedFileNormalizes(t *testing.T) {
	a := testArchive(t)
	d := mustDate(t, "2025-06-01")
	path := a.Path(d)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))

	// A file whose Entries field was mangled out-of-band.
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := gzip.NewWriter(f)
	_, err = zw.Write([]byte(`{"Date":"2025-06-01","Entries":"broken"}`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	merged, err := a.Append(d, []json.RawMessage{rawEntry(t, "POS", 1)})
	require.NoError(t, err)
	assert.Len(t, merged.Entries, 1)
}

func TestEntriesFromUploadVerbatim(t *testing.T) {
	now := time.Now()
	var obj map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(`{"Date":"2025-06-01","Entries":[{"x":1},{"x":2}]}`), &obj))

	entries, err := EntriesFromUpload(obj, now)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.JSONEq(t, `{"x":1}`, string(entries[0]))
	assert.JSONEq(t, `{"x":2}`, string(entries[1]))
}

func TestEntriesFromUploadWrapsTypedObject(t *testing.T) {
	now := time.Now()
	var obj map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(`{"Date":"2025-06-01","Source":"POS","Payload":{"total":12}}`), &obj))

	entries, err := EntriesFromUpload(obj, now)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	var entry Entry
	require.NoError(t, json.Unmarshal(entries[0], &entry))
	assert.JSONEq(t, `"POS"`, string(entry.Source))
	assert.JSONEq(t, `{"total":12}`, string(entry.Payload))
	assert.NotEmpty(t, entry.ReceivedAt)
}

func TestEntriesFromUploadWrapsUntypedObject(t *testing.T) {
	now := time.Now()
	var obj map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(`{"Date":"2025-06-01","Till":3}`), &obj))

	entries, err := EntriesFromUpload(obj, now)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	var entry Entry
	require.NoError(t, json.Unmarshal(entries[0], &entry))
	require.NotNil(t, entry.Payload)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(entry.Payload, &payload))
	assert.Equal(t, float64(3), payload["Till"])
}

// A null Entries field is not an entry list; the object falls through to the
// single-entry wrap path instead of appending nothing.
func TestEntriesFromUploadNullEntriesWrapsObject(t *testing.T) {
	now := time.Now()
	var obj map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(`{"Date":"2025-06-01","Entries":null,"Till":3}`), &obj))

	entries, err := EntriesFromUpload(obj, now)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	var entry Entry
	require.NoError(t, json.Unmarshal(entries[0], &entry))

	var payload map[string]any
	require.NoError(t, json.Unmarshal(entry.Payload, &payload))
	assert.Equal(t, float64(3), payload["Till"])
}

func TestListFiltersByYearAndMonth(t *testing.T) {
	a := testArchive(t)
	for _, day := range []string{"2024-12-31", "2025-06-01", "2025-06-15", "2025-07-01"} {
		_, err := a.Append(mustDate(t, day), []json.RawMessage{rawEntry(t, "POS", day)})
		require.NoError(t, err)
	}

	all, err := a.List("", "")
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "2024-12-31", all[0].Date)
	assert.Greater(t, all[0].SizeBytes, int64(0))

	june, err := a.List("2025", "6")
	require.NoError(t, err)
	require.Len(t, june, 2)
	assert.Equal(t, "2025-06-01", june[0].Date)
	assert.Equal(t, "2025-06-15", june[1].Date)

	empty, err := a.List("2030", "")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

// The month filter narrows on its own path segment even without a year, so
// a month-only query never falls back to listing the whole archive.
func TestListMonthWithoutYearMatchesNothing(t *testing.T) {
	a := testArchive(t)
	_, err := a.Append(mustDate(t, "2025-06-01"), []json.RawMessage{rawEntry(t, "POS", 1)})
	require.NoError(t, err)

	got, err := a.List("", "6")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFilesAreGzipJSONOnDisk(t *testing.T) {
	a := testArchive(t)
	d := mustDate(t, "2025-06-01")
	_, err := a.Append(d, []json.RawMessage{rawEntry(t, "POS", 1)})
	require.NoError(t, err)

	f, err := os.Open(a.Path(d))
	require.NoError(t, err)
	defer f.Close()

	zr, err := gzip.NewReader(f)
	require.NoError(t, err)
	body, err := io.ReadAll(zr)
	require.NoError(t, err)

	var rep Report
	require.NoError(t, json.Unmarshal(body, &rep))
	assert.Equal(t, "2025-06-01", rep.Date)
	assert.Len(t, rep.Entries, 1)
}
