// Package report implements the day-report archive: one gzip-compressed JSON
// document per calendar date, extended by concurrent appenders. A per-date
// advisory lock serializes the read-merge-write cycle so no append is lost,
// and every write goes through temp file + fsync + atomic rename so readers
// only ever observe complete files.
package report

import (
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gastro/pkg/platform/sentinel"
)

const (
	fileExt = ".json.gz"
	lockExt = ".json.gz.lock"
	tmpExt  = ".json.gz.tmp"
)

// Archive stores day reports under dir/YYYY/MM/YYYY-MM-DD.json.gz.
type Archive struct {
	dir    string
	logger *slog.Logger
}

func NewArchive(dir string, logger *slog.Logger) *Archive {
	return &Archive{dir: dir, logger: logger}
}

// LockingActive reports whether OS-level advisory locking is in effect on
// this platform. When false, concurrent appenders fall back to atomic-rename
// semantics only (last merge wins).
func (a *Archive) LockingActive() bool {
	return lockingSupported
}

// Path returns the archive file path for a date.
func (a *Archive) Path(d time.Time) string {
	return filepath.Join(a.dir, fmt.Sprintf("%04d", d.Year()), fmt.Sprintf("%02d", d.Month()), d.Format(DateLayout)+fileExt)
}

// Exists reports whether a report file exists for the date. No lock; a
// concurrent writer either has or has not renamed the file into place.
func (a *Archive) Exists(d time.Time) bool {
	_, err := os.Stat(a.Path(d))
	return err == nil
}

// Append merges new entries into the date's report while holding the per-date
// lock and returns the merged document. Entries keep the order given.
func (a *Archive) Append(d time.Time, entries []json.RawMessage) (*Report, error) {
	path := a.Path(d)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create report directory: %w", err)
	}

	var merged *Report
	err := a.withLock(d, func() error {
		raw, err := a.readRaw(path)
		if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return err
		}

		merged = normalize(d, raw)
		merged.Entries = append(merged.Entries, entries...)
		return a.writeAtomic(path, merged)
	})
	if err != nil {
		return nil, err
	}
	return merged, nil
}

// ReadDay returns the normalized report for the date. Lock-free: the
// atomic-rename write strategy guarantees a complete file or none.
func (a *Archive) ReadDay(d time.Time) (*Report, error) {
	raw, err := a.readRaw(a.Path(d))
	if err != nil {
		return nil, err
	}
	return normalize(d, raw), nil
}

// Remove deletes the date's report file. Only the closed-orders purge flow
// calls this; the archive itself never discards entries.
func (a *Archive) Remove(d time.Time) error {
	err := os.Remove(a.Path(d))
	if errors.Is(err, fs.ErrNotExist) {
		return sentinel.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("remove report: %w", err)
	}
	return nil
}

// List scans the archive tree, optionally narrowed to a year and month, and
// returns file descriptors ordered by path. Each filter appends its own path
// segment, so a month given without a year matches nothing.
func (a *Archive) List(year, month string) ([]FileInfo, error) {
	base := a.dir
	if year != "" {
		base = filepath.Join(base, padLeft(year, 4))
	}
	if month != "" {
		base = filepath.Join(base, padLeft(month, 2))
	}

	items := []FileInfo{}
	err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), fileExt) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		items = append(items, FileInfo{
			Date:      strings.TrimSuffix(d.Name(), fileExt),
			Path:      path,
			SizeBytes: info.Size(),
		})
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return []FileInfo{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan reports: %w", err)
	}

	sort.Slice(items, func(i, j int) bool { return items[i].Path < items[j].Path })
	return items, nil
}

// withLock runs fn while holding an exclusive lock on the date's sibling
// lock file, blocking until acquired. The lock is released on every exit
// path; on platforms without flock the call degrades to atomic-write-only.
func (a *Archive) withLock(d time.Time, fn func() error) error {
	lockPath := a.Path(d) + ".lock"
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o640)
	if err != nil {
		return fmt.Errorf("open lock file: %w", err)
	}
	defer f.Close()

	if err := flockExclusive(f); err != nil {
		return fmt.Errorf("acquire report lock: %w", err)
	}
	defer func() {
		if err := flockRelease(f); err != nil {
			a.logger.Warn("failed to release report lock", "path", lockPath, "error", err)
		}
	}()

	return fn()
}

// readRaw returns the decompressed file contents, or sentinel.ErrNotFound.
func (a *Archive) readRaw(path string) ([]byte, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open report: %w", err)
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("decompress report: %w", err)
	}
	defer zr.Close()

	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	return raw, nil
}

// writeAtomic writes the report to a temp file in the same directory, flushes
// it, and renames it over the target. A crash mid-write orphans the temp file
// and leaves the previous complete file intact.
func (a *Archive) writeAtomic(path string, rep *Report) error {
	body, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	tmpPath := strings.TrimSuffix(path, fileExt) + tmpExt
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp report: %w", err)
	}

	zw := gzip.NewWriter(f)
	if _, err := zw.Write(body); err != nil {
		zw.Close()
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("compress report: %w", err)
	}
	if err := zw.Close(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("flush compressed report: %w", err)
	}

	// Durability is best-effort: a failed fsync is logged, not fatal.
	if err := f.Sync(); err != nil {
		a.logger.Warn("report fsync failed", "path", tmpPath, "error", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp report: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace report: %w", err)
	}
	return nil
}

// normalize coerces whatever is on disk into a well-typed report for the
// date: Date is always the canonical ISO date, Entries is always an array.
// Other top-level fields pass through untouched.
func normalize(d time.Time, raw []byte) *Report {
	rep := &Report{Date: d.Format(DateLayout), Entries: []json.RawMessage{}}
	if len(raw) == 0 {
		return rep
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return rep
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(fields["Entries"], &entries); err == nil && entries != nil {
		rep.Entries = entries
	}

	delete(fields, "Date")
	delete(fields, "Entries")
	if len(fields) > 0 {
		rep.Extra = fields
	}
	return rep
}

// EntriesFromUpload extracts the entries carried by an uploaded report
// object: an Entries array is taken verbatim; anything else, a null Entries
// included, makes the whole object a single entry, wrapping its
// Source/Payload fields when present or the raw object as payload when
// untyped.
func EntriesFromUpload(obj map[string]json.RawMessage, now time.Time) ([]json.RawMessage, error) {
	if rawEntries, ok := obj["Entries"]; ok {
		var entries []json.RawMessage
		if err := json.Unmarshal(rawEntries, &entries); err == nil && entries != nil {
			return entries, nil
		}
	}

	entry := Entry{ReceivedAt: ReceivedAtStamp(now)}
	source, hasSource := obj["Source"]
	payload, hasPayload := obj["Payload"]
	if hasSource || hasPayload {
		entry.Source = source
		entry.Payload = payload
	} else {
		whole, err := json.Marshal(obj)
		if err != nil {
			return nil, fmt.Errorf("marshal upload object: %w", err)
		}
		entry.Payload = whole
	}

	raw, err := entry.Marshal()
	if err != nil {
		return nil, err
	}
	return []json.RawMessage{raw}, nil
}

func padLeft(s string, width int) string {
	for len(s) < width {
		s = "0" + s
	}
	return s
}
