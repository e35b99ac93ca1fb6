package activitylog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLog(t *testing.T, contents string) *Reader {
	t.Helper()
	path := filepath.Join(t.TempDir(), "activity_log.txt")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return NewReader(path)
}

func TestReadMissingFile(t *testing.T) {
	r := NewReader(filepath.Join(t.TempDir(), "nope.txt"))

	_, err := r.Read()
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = r.Tail(0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTailParsesRecordsAndKeepsMalformedLines(t *testing.T) {
	r := writeLog(t, "Alice,2024-01-01T10:00:00Z\nBobMalformedLine\n")

	entries, err := r.Tail(0)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.True(t, entries[0].Parsed)
	assert.Equal(t, "Alice", entries[0].Subject)
	require.NotNil(t, entries[0].Timestamp)
	assert.Contains(t, entries[0].Label(), "ĐĂNG NHẬP: Alice")

	// The malformed line survives as an opaque info entry.
	assert.False(t, entries[1].Parsed)
	assert.Equal(t, "BobMalformedLine", entries[1].Raw)
	assert.Equal(t, "BobMalformedLine", entries[1].Label())
}

// Polling twice with the last seen ID and no new lines yields nothing.
func TestTailIsIdempotent(t *testing.T) {
	r := writeLog(t, "Alice,2024-01-01T10:00:00Z\nBinh,2024-01-01T10:05:00Z\n")

	first, err := r.Tail(0)
	require.NoError(t, err)
	require.Len(t, first, 2)
	lastID := first[len(first)-1].ID

	second, err := r.Tail(lastID)
	require.NoError(t, err)
	assert.Empty(t, second)
}

func TestTailPicksUpAppendedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activity_log.txt")
	require.NoError(t, os.WriteFile(path, []byte("Alice,2024-01-01T10:00:00Z\n"), 0o644))
	r := NewReader(path)

	first, err := r.Tail(0)
	require.NoError(t, err)
	require.Len(t, first, 1)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("Chau,2024-01-01 10:10:00\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	second, err := r.Tail(first[0].ID)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, "Chau", second[0].Subject)
	assert.True(t, second[0].Parsed)
	require.NotNil(t, second[0].Timestamp, "space-separated layout should parse too")
	assert.Greater(t, second[0].ID, first[0].ID)
}

func TestBlankAndCommaFirstLines(t *testing.T) {
	r := writeLog(t, "\n,orphan timestamp\nAlice,2024-01-01T10:00:00Z\n\n")

	entries, err := r.Tail(0)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// A line starting with a comma has no subject; keep it raw.
	assert.False(t, entries[0].Parsed)
	assert.Equal(t, ",orphan timestamp", entries[0].Raw)

	assert.True(t, entries[1].Parsed)
	assert.Equal(t, "Alice", entries[1].Subject)
}

func TestUnparsableTimestampStillRendersLogin(t *testing.T) {
	r := writeLog(t, "Alice,yesterday afternoon\n")

	entries, err := r.Tail(0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Parsed)
	assert.Nil(t, entries[0].Timestamp)
	assert.Equal(t, "[yesterday afternoon] - ĐĂNG NHẬP: Alice", entries[0].Label())
}
