// Package scaffold generates a starter treeship.yaml for a project.
package scaffold

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/treeship-labs/treeship/internal/config"
)

// Data holds the template variables for the generated config.
type Data struct {
	Prefix     string
	Channel    string
	Repo       string
	Branch     string
	TargetKB   int64
	HardCapKB  int64
	ChunkCapKB int64
}

// Result holds the outcome of a generation.
type Result struct {
	Path     string
	Warnings []string
}

// NewData returns template data seeded with the pipeline defaults.
func NewData(channel, repo string) *Data {
	if channel == "" {
		channel = "none"
	}
	return &Data{
		Prefix:     config.DefaultPrefix,
		Channel:    channel,
		Repo:       repo,
		Branch:     config.DefaultBranch,
		TargetKB:   config.DefaultTargetKB,
		HardCapKB:  config.DefaultHardCapKB,
		ChunkCapKB: config.DefaultChunkCapKB,
	}
}

const configTemplate = `# Treeship export configuration.
# The access token is NOT configured here: set TREESHIP_TOKEN (or
# GITHUB_TOKEN), or run ` + "`treeship config set github.token <token>`" + `.

prefix: {{ .Prefix }}
channel: {{ .Channel }}
{{- if .Repo }}
repo: {{ .Repo }}
branch: {{ .Branch }}
{{- end }}
target_kb: {{ .TargetKB }}
hard_cap_kb: {{ .HardCapKB }}
chunk_cap_kb: {{ .ChunkCapKB }}
exclude:
  - "*.log"
  - "*.tmp"
`

// Generate writes treeship.yaml into dir. An existing file is never
// overwritten. The generated file is validated against the same schema
// the export command applies, so init can never produce a config that
// export rejects.
func Generate(dir string, data *Data) (*Result, error) {
	path := filepath.Join(dir, config.ExportFileName)
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("%s already exists; remove it first", path)
	}

	tmpl, err := template.New("config").Parse(configTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing config template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("rendering config template: %w", err)
	}

	result := &Result{Path: path}
	if validation, err := config.ValidateExport(buf.Bytes()); err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("could not validate generated config: %v", err))
	} else if !validation.Valid {
		return nil, fmt.Errorf("generated config is invalid: %s", validation.Summary())
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating directory: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", path, err)
	}
	return result, nil
}
