package updater

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	cacheFileName = "update-check.json"

	// DefaultCacheMaxAge bounds how often the release API is consulted.
	DefaultCacheMaxAge = 24 * time.Hour
)

// CheckState is the persisted outcome of the last release check.
type CheckState struct {
	LatestVersion   string    `json:"latest_version"`
	CurrentVersion  string    `json:"current_version"`
	ReleaseURL      string    `json:"release_url,omitempty"`
	CheckedAt       time.Time `json:"checked_at"`
	UpdateAvailable bool      `json:"update_available"`
}

// LoadCheckState reads the persisted check state from the config
// directory. A missing file is not an error: it returns nil, nil.
func LoadCheckState(configDir string) (*CheckState, error) {
	data, err := os.ReadFile(filepath.Join(configDir, cacheFileName))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading update-check state: %w", err)
	}

	var state CheckState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parsing update-check state: %w", err)
	}
	return &state, nil
}

// SaveCheckState persists the check state under the config directory.
func SaveCheckState(configDir string, state *CheckState) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding update-check state: %w", err)
	}

	if err := os.WriteFile(filepath.Join(configDir, cacheFileName), data, 0644); err != nil {
		return fmt.Errorf("writing update-check state: %w", err)
	}
	return nil
}

// IsStale reports whether the state is missing or older than maxAge.
func IsStale(state *CheckState, maxAge time.Duration) bool {
	if state == nil {
		return true
	}
	return time.Since(state.CheckedAt) > maxAge
}
