package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var exts = []string{"png", "jpg"}

func TestLocalWriteReplacesOtherFormat(t *testing.T) {
	s, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Write("abc", "jpg", []byte("jpeg bytes"), exts...))
	require.NoError(t, s.Write("abc", "png", []byte("png bytes"), exts...))

	data, ext, ok := s.Probe("abc", exts)
	require.True(t, ok)
	assert.Equal(t, "png", ext)
	assert.Equal(t, []byte("png bytes"), data)

	_, err = os.Stat(s.Path("abc", "jpg"))
	assert.True(t, os.IsNotExist(err), "only one blob per key")
}

func TestLocalProbeOrder(t *testing.T) {
	s, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	_, _, ok := s.Probe("missing", exts)
	assert.False(t, ok)

	require.NoError(t, s.Write("k", "jpg", []byte("x")))
	data, ext, ok := s.Probe("k", exts)
	require.True(t, ok)
	assert.Equal(t, "jpg", ext)
	assert.Equal(t, []byte("x"), data)
}

func TestLocalUsageAndFiles(t *testing.T) {
	s, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Write("a", "jpg", make([]byte, 100)))
	require.NoError(t, s.Write("b", "png", make([]byte, 50)))

	assert.Equal(t, int64(150), s.Usage())

	files, err := s.Files()
	require.NoError(t, err)
	require.Len(t, files, 2)
	for _, f := range files {
		assert.Contains(t, []string{"a", "b"}, f.Key)
		assert.False(t, f.ModTime.IsZero())
	}
}

func TestLocalDelete(t *testing.T) {
	s, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Write("a", "jpg", []byte("x")))
	require.NoError(t, s.Delete("a", exts))
	_, _, ok := s.Probe("a", exts)
	assert.False(t, ok)

	// Deleting again is not an error.
	require.NoError(t, s.Delete("a", exts))
}

func TestLocalClearIdempotent(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocal(dir)
	require.NoError(t, err)

	require.NoError(t, s.Write("a", "jpg", []byte("x")))
	require.NoError(t, s.Write("b", "png", []byte("y")))

	require.NoError(t, s.Clear())
	assert.Zero(t, s.Usage())
	require.NoError(t, s.Clear())

	// Even a missing directory is fine.
	require.NoError(t, os.RemoveAll(dir))
	require.NoError(t, s.Clear())
}

func TestLocalPath(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocal(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "deadbeef.png"), s.Path("deadbeef", "png"))
}
