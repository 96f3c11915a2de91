package store

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/restomenu/menucache/internal/compression"
)

// ErrCorrupt marks a metadata table that failed to parse. The cache treats
// this as total corruption and wipes the table.
var ErrCorrupt = errors.New("store: corrupt metadata table")

// Record is the per-entry metadata: the source URL, the timestamp the
// remote resource carried, and the last local access for eviction ordering.
type Record struct {
	URL        string    `json:"url"`
	Timestamp  time.Time `json:"timestamp"`
	LastAccess time.Time `json:"last_access"`
}

// Meta is the metadata table, persisted as one zstd-compressed JSON blob.
// All access goes through the table's mutex; concurrent fetch completions
// touch it freely.
type Meta struct {
	path string

	mu      sync.Mutex
	records map[string]Record
	dirty   bool
}

// LoadMeta reads the table from path. A missing file yields an empty table;
// an unreadable or unparsable file yields ErrCorrupt.
func LoadMeta(path string) (*Meta, error) {
	m := &Meta{path: path, records: make(map[string]Record)}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		return nil, errors.Wrap(ErrCorrupt, err.Error())
	}

	if err := json.Unmarshal(compression.Decompress(data), &m.records); err != nil {
		return nil, errors.Wrap(ErrCorrupt, err.Error())
	}
	return m, nil
}

// Get returns the record for a cache key.
func (m *Meta) Get(key string) (Record, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[key]
	return rec, ok
}

// Set merges a record into the table.
func (m *Meta) Set(key string, rec Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[key] = rec
	m.dirty = true
}

// Touch updates the last-access time of an existing record.
func (m *Meta) Touch(key string, t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[key]
	if !ok {
		return
	}
	rec.LastAccess = t
	m.records[key] = rec
	m.dirty = true
}

// Delete removes a record.
func (m *Meta) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[key]; ok {
		delete(m.records, key)
		m.dirty = true
	}
}

// Len returns the number of records.
func (m *Meta) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// Records returns a copy of the table for iteration.
func (m *Meta) Records() map[string]Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]Record, len(m.records))
	for k, v := range m.records {
		out[k] = v
	}
	return out
}

// Sync persists the table if it changed since the last sync.
func (m *Meta) Sync() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.dirty {
		return nil
	}

	data, err := json.Marshal(m.records)
	if err != nil {
		return errors.Wrap(err, "serialize metadata")
	}
	if err := os.WriteFile(m.path, compression.Compress(data), 0644); err != nil {
		return errors.Wrap(err, "write metadata")
	}
	m.dirty = false
	return nil
}

// Remove deletes the persisted table and empties the in-memory copy. Used
// for the corruption wipe; safe when the file is already gone.
func (m *Meta) Remove() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = make(map[string]Record)
	m.dirty = false
	if err := os.Remove(m.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "remove metadata")
	}
	return nil
}

// RemoveMetaFile deletes a metadata table from disk without loading it.
func RemoveMetaFile(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "remove metadata")
	}
	return nil
}
