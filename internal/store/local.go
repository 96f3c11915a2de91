// Package store implements the persisted state of the cache: one image file
// per cache key, a metadata table serialized as a single blob, and the
// settings record holding the format version and the kill switch.
package store

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// FileInfo describes one stored image file.
type FileInfo struct {
	Key     string
	Ext     string
	Size    int64
	ModTime time.Time
}

// Local stores encoded images as <key>.<ext> directly under a directory.
// At most one file exists per key at a time.
type Local struct {
	dir string
}

// NewLocal creates the directory if needed and returns the store.
func NewLocal(dir string) (*Local, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrapf(err, "create cache dir %s", dir)
	}
	return &Local{dir: dir}, nil
}

func (s *Local) Dir() string { return s.dir }

// Write stores data under key with the given extension, replacing any blob
// previously stored for the key in another format.
func (s *Local) Write(key, ext string, data []byte, others ...string) error {
	if err := os.WriteFile(s.Path(key, ext), data, 0644); err != nil {
		return errors.Wrapf(err, "write %s.%s", key, ext)
	}
	for _, other := range others {
		if other == ext {
			continue
		}
		if err := os.Remove(s.Path(key, other)); err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err, "drop stale %s.%s", key, other)
		}
	}
	return nil
}

// Probe tries each extension in order and returns the first blob found.
func (s *Local) Probe(key string, exts []string) ([]byte, string, bool) {
	for _, ext := range exts {
		if data, err := os.ReadFile(s.Path(key, ext)); err == nil {
			return data, ext, true
		}
	}
	return nil, "", false
}

// Delete removes every blob stored under key. Missing files are not errors.
func (s *Local) Delete(key string, exts []string) error {
	for _, ext := range exts {
		if err := os.Remove(s.Path(key, ext)); err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err, "remove %s.%s", key, ext)
		}
	}
	return nil
}

// Files lists every stored image file with its size and mtime.
func (s *Local) Files() ([]FileInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "list cache dir")
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		name := entry.Name()
		ext := strings.TrimPrefix(filepath.Ext(name), ".")
		files = append(files, FileInfo{
			Key:     strings.TrimSuffix(name, filepath.Ext(name)),
			Ext:     ext,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	return files, nil
}

// Usage returns the total size of all stored image files.
func (s *Local) Usage() int64 {
	files, err := s.Files()
	if err != nil {
		return 0
	}
	var total int64
	for _, f := range files {
		total += f.Size
	}
	return total
}

// Clear removes every file in the cache directory. Safe to call when the
// directory is already empty or missing.
func (s *Local) Clear() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(err, "list cache dir")
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err, "remove %s", entry.Name())
		}
	}
	return nil
}

// Path returns the filesystem path for a key and extension.
func (s *Local) Path(key, ext string) string {
	return filepath.Join(s.dir, key+"."+ext)
}
