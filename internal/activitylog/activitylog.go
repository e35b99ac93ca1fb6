package activitylog

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// ErrNotFound is returned when the activity log file does not exist yet.
// The dashboard renders this as an empty state, not as a crash.
var ErrNotFound = errors.New("activity log file not found")

// Entry is one line of the activity log, best-effort parsed. The file is
// written by the face-recognition client as "name,timestamp" records; the
// web layer only ever reads it.
type Entry struct {
	// ID is the 1-based line number. Line numbers are stable because the
	// file is append-only, so they double as the dedup cursor for pollers.
	ID        int        `json:"id"`
	Subject   string     `json:"subject,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
	Raw       string     `json:"raw"`
	Parsed    bool       `json:"parsed"`
}

// Label renders the entry the way the dashboard shows it. Well-formed
// records get the login label; malformed lines fall back to the raw text.
func (e Entry) Label() string {
	if !e.Parsed {
		return e.Raw
	}
	ts := e.Raw
	if idx := strings.Index(e.Raw, ","); idx >= 0 {
		ts = strings.TrimSpace(e.Raw[idx+1:])
	}
	if e.Timestamp != nil {
		ts = e.Timestamp.Format("02/01/2006 15:04:05")
	}
	return fmt.Sprintf("[%s] - ĐĂNG NHẬP: %s", ts, e.Subject)
}

// Reader reads the append-only activity log file.
type Reader struct {
	path string
}

// NewReader creates a reader over the given log file path.
func NewReader(path string) *Reader {
	return &Reader{path: path}
}

// Read returns the raw file contents.
func (r *Reader) Read() (string, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to read activity log: %w", err)
	}
	return string(data), nil
}

// Tail returns the entries after the given line number. Polling with the
// last seen ID when no new lines were appended yields an empty slice, so a
// 2-second poll never re-renders the same tail.
func (r *Reader) Tail(sinceID int) ([]Entry, error) {
	raw, err := r.Read()
	if err != nil {
		return nil, err
	}

	var entries []Entry
	for i, line := range strings.Split(raw, "\n") {
		id := i + 1
		line = strings.TrimSpace(line)
		if line == "" || id <= sinceID {
			continue
		}
		entries = append(entries, parseLine(id, line))
	}
	return entries, nil
}

// parseLine splits a "name,timestamp" record. Lines that do not fit the
// shape are kept as opaque raw entries rather than dropped.
func parseLine(id int, line string) Entry {
	entry := Entry{ID: id, Raw: line}

	idx := strings.Index(line, ",")
	if idx <= 0 {
		return entry
	}

	entry.Subject = strings.TrimSpace(line[:idx])
	entry.Parsed = true

	// Timestamp parsing is best effort; an unparsable timestamp still
	// leaves a valid login entry with the raw text available.
	tsStr := strings.TrimSpace(line[idx+1:])
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05"} {
		if ts, err := time.Parse(layout, tsStr); err == nil {
			entry.Timestamp = &ts
			break
		}
	}
	return entry
}
