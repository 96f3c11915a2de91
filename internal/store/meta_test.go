package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func metaPath(t *testing.T) string {
	return filepath.Join(t.TempDir(), "meta.json.zst")
}

func TestMetaSyncRoundTrip(t *testing.T) {
	path := metaPath(t)

	m, err := LoadMeta(path)
	require.NoError(t, err)
	assert.Zero(t, m.Len())

	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m.Set("key1", Record{URL: "https://a/1.jpg", Timestamp: ts, LastAccess: ts})
	m.Set("key2", Record{URL: "https://a/2.jpg", Timestamp: ts.Add(time.Hour), LastAccess: ts})
	require.NoError(t, m.Sync())

	reloaded, err := LoadMeta(path)
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.Len())

	rec, ok := reloaded.Get("key1")
	require.True(t, ok)
	assert.Equal(t, "https://a/1.jpg", rec.URL)
	assert.True(t, rec.Timestamp.Equal(ts))
}

func TestMetaSyncSkipsWhenClean(t *testing.T) {
	path := metaPath(t)
	m, err := LoadMeta(path)
	require.NoError(t, err)

	require.NoError(t, m.Sync())
	assert.NoFileExists(t, path, "nothing to persist for an untouched table")
}

func TestMetaTouch(t *testing.T) {
	m, err := LoadMeta(metaPath(t))
	require.NoError(t, err)

	ts := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	m.Set("k", Record{URL: "u", Timestamp: ts, LastAccess: ts})

	later := ts.Add(time.Hour)
	m.Touch("k", later)
	rec, _ := m.Get("k")
	assert.True(t, rec.LastAccess.Equal(later))
	assert.True(t, rec.Timestamp.Equal(ts), "touch must not move the staleness timestamp")

	// Touching an unknown key is a no-op.
	m.Touch("unknown", later)
	_, ok := m.Get("unknown")
	assert.False(t, ok)
}

func TestMetaCorruptFile(t *testing.T) {
	path := metaPath(t)
	require.NoError(t, os.WriteFile(path, []byte("definitely not a table"), 0644))

	_, err := LoadMeta(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCorrupt))
}

func TestMetaRemove(t *testing.T) {
	path := metaPath(t)
	m, err := LoadMeta(path)
	require.NoError(t, err)

	m.Set("k", Record{URL: "u"})
	require.NoError(t, m.Sync())
	require.FileExists(t, path)

	require.NoError(t, m.Remove())
	assert.NoFileExists(t, path)
	assert.Zero(t, m.Len())

	// Removing again is safe.
	require.NoError(t, m.Remove())
}

func TestMetaDelete(t *testing.T) {
	m, err := LoadMeta(metaPath(t))
	require.NoError(t, err)

	m.Set("a", Record{URL: "u1"})
	m.Set("b", Record{URL: "u2"})

	m.Delete("a")
	assert.Equal(t, 1, m.Len())
	_, ok := m.Get("a")
	assert.False(t, ok)

	// Deleting a missing key is a no-op.
	m.Delete("a")
	assert.Equal(t, 1, m.Len())
}
