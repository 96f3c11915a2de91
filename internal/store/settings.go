package store

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

// Settings holds the two persisted scalars of the cache: the on-disk format
// version and the kill switch. The zero version forces a wipe-and-migrate on
// first open against the current format constant.
type Settings struct {
	Version int  `json:"version"`
	Enabled bool `json:"enabled"`
}

// DefaultSettings is the state of a cache that has never run.
func DefaultSettings() Settings {
	return Settings{Version: 0, Enabled: true}
}

// LoadSettings reads the settings file. A missing or unparsable file yields
// the defaults; settings are advisory state, not worth failing over.
func LoadSettings(path string) Settings {
	data, err := os.ReadFile(path)
	if err != nil {
		return DefaultSettings()
	}

	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return DefaultSettings()
	}
	return s
}

// SaveSettings persists the settings file.
func SaveSettings(path string, s Settings) error {
	data, err := json.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "serialize settings")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(err, "write settings")
	}
	return nil
}
