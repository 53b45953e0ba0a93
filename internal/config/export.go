package config

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/treeship-labs/treeship/internal/errs"
)

// ExportFileName is the per-project export config, looked up at the
// export root. It is always in the scanner's exact-name exclusion set.
const ExportFileName = "treeship.yaml"

// Defaults for the export pipeline. The target leaves ~35% headroom under
// the hard cap to absorb text-rendering overhead.
const (
	DefaultPrefix     = "EXPORT_PART"
	DefaultTargetKB   = 650
	DefaultHardCapKB  = 1024
	DefaultChunkCapKB = 1024
	DefaultBranch     = "main"
)

// GistSettings configures the gist channel.
type GistSettings struct {
	Public      bool   `yaml:"public"`
	Description string `yaml:"description"`
	FileCapKB   int64  `yaml:"file_cap_kb"`
}

// Export is the per-project export configuration (treeship.yaml). The
// access token is deliberately not part of this file: it lives in the
// environment or the global config, never in a path the scanner walks.
type Export struct {
	Prefix     string       `yaml:"prefix"`
	OutDir     string       `yaml:"out"`
	Channel    string       `yaml:"channel"`
	Repo       string       `yaml:"repo"`
	Branch     string       `yaml:"branch"`
	TargetKB   int64        `yaml:"target_kb"`
	HardCapKB  int64        `yaml:"hard_cap_kb"`
	ChunkCapKB int64        `yaml:"chunk_cap_kb"`
	Gist       GistSettings `yaml:"gist"`
	Exclude    []string     `yaml:"exclude"`
}

// DefaultExport returns the configuration used when no treeship.yaml exists.
func DefaultExport() *Export {
	return &Export{
		Prefix:     DefaultPrefix,
		Channel:    "none",
		Branch:     DefaultBranch,
		TargetKB:   DefaultTargetKB,
		HardCapKB:  DefaultHardCapKB,
		ChunkCapKB: DefaultChunkCapKB,
		Gist:       GistSettings{FileCapKB: DefaultHardCapKB},
	}
}

// applyDefaults fills zero-valued fields.
func (e *Export) applyDefaults() {
	d := DefaultExport()
	if e.Prefix == "" {
		e.Prefix = d.Prefix
	}
	if e.Channel == "" {
		e.Channel = d.Channel
	}
	if e.Branch == "" {
		e.Branch = d.Branch
	}
	if e.TargetKB == 0 {
		e.TargetKB = d.TargetKB
	}
	if e.HardCapKB == 0 {
		e.HardCapKB = d.HardCapKB
	}
	if e.ChunkCapKB == 0 {
		e.ChunkCapKB = d.ChunkCapKB
	}
	if e.Gist.FileCapKB == 0 {
		e.Gist.FileCapKB = d.Gist.FileCapKB
	}
}

// TargetBytes returns the soft bundle threshold in bytes.
func (e *Export) TargetBytes() int64 { return e.TargetKB * 1024 }

// HardCapBytes returns the hard bundle cap in bytes.
func (e *Export) HardCapBytes() int64 { return e.HardCapKB * 1024 }

// ChunkCapBytes returns the single-file chunk cap in bytes.
func (e *Export) ChunkCapBytes() int64 { return e.ChunkCapKB * 1024 }

// GistFileCapBytes returns the gist per-file cap in bytes.
func (e *Export) GistFileCapBytes() int64 { return e.Gist.FileCapKB * 1024 }

// LoadExport reads and validates the export config at path. A missing
// file yields the defaults; a present but invalid file is a
// configuration error carrying the schema issues.
func LoadExport(path string) (*Export, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultExport(), nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	result, err := ValidateExport(data)
	if err != nil {
		return nil, fmt.Errorf("validating %s: %w", path, err)
	}
	if !result.Valid {
		return nil, errs.NewConfigError(path, nil,
			errs.Wrap(errs.ErrConfiguration, result.Summary()))
	}

	var e Export
	if err := yaml.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	e.applyDefaults()

	if e.TargetKB > e.HardCapKB {
		return nil, errs.NewConfigError("target_kb", e.TargetKB,
			errs.Wrapf(errs.ErrConfiguration, "must not exceed hard_cap_kb (%d)", e.HardCapKB))
	}
	if e.Channel == "git" && e.Repo == "" {
		return nil, errs.NewConfigError("repo", nil,
			errs.Wrap(errs.ErrConfiguration, "the git channel requires an owner/name repo"))
	}

	return &e, nil
}
