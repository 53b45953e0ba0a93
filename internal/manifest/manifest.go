// Package manifest records the durable outcome of an export run: the
// artifacts produced, their sizes, and the publish results. The manifest
// is written once at the end of a run and is the record a later run (or a
// human) consults; the plain-text INDEX artifact remains the shareable
// summary rendered next to the parts.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/treeship-labs/treeship/internal/publish"
	"github.com/treeship-labs/treeship/internal/render"
)

// ArtifactRecord is one produced artifact.
type ArtifactRecord struct {
	FileName  string `yaml:"file"`
	SizeBytes int64  `yaml:"size"`
	Kind      string `yaml:"kind"`
}

// PublishRecord is one publish outcome with a redacted diagnostic.
type PublishRecord struct {
	Channel     string `yaml:"channel"`
	ArtifactRef string `yaml:"artifact,omitempty"`
	RemoteURL   string `yaml:"url,omitempty"`
	Status      string `yaml:"status"`
	Error       string `yaml:"error,omitempty"`
}

// RunManifest is the full record of one export run.
type RunManifest struct {
	GeneratedAt    time.Time        `yaml:"generated_at"`
	Root           string           `yaml:"root"`
	Channel        string           `yaml:"channel,omitempty"`
	TargetBytes    int64            `yaml:"target_bytes,omitempty"`
	HardCapBytes   int64            `yaml:"hard_cap_bytes,omitempty"`
	ChunkCapBytes  int64            `yaml:"chunk_cap_bytes,omitempty"`
	TotalSizeBytes int64            `yaml:"total_size_bytes"`
	Artifacts      []ArtifactRecord `yaml:"artifacts"`
	Published      []PublishRecord  `yaml:"published,omitempty"`
}

// FileName returns the manifest's on-disk name for the given prefix.
func FileName(prefix string) string {
	return fmt.Sprintf("%s_RUN.yaml", prefix)
}

// New builds a manifest from the run's artifacts and publish results.
func New(root, channel string, artifacts []render.Artifact, results []publish.Result, now time.Time) *RunManifest {
	m := &RunManifest{
		GeneratedAt: now,
		Root:        root,
		Channel:     channel,
	}
	for _, a := range artifacts {
		m.Artifacts = append(m.Artifacts, ArtifactRecord{
			FileName:  a.FileName,
			SizeBytes: a.SizeBytes,
			Kind:      string(a.Kind),
		})
		m.TotalSizeBytes += a.SizeBytes
	}
	for _, r := range results {
		rec := PublishRecord{
			Channel:     string(r.Channel),
			ArtifactRef: r.ArtifactRef,
			RemoteURL:   r.RemoteURL,
			Status:      string(r.Status),
		}
		if r.Err != nil {
			rec.Error = r.Err.Error()
		}
		m.Published = append(m.Published, rec)
	}
	return m
}

// Write serializes the manifest as YAML under outDir and returns its path.
func (m *RunManifest) Write(outDir, prefix string) (string, error) {
	data, err := yaml.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encoding manifest: %w", err)
	}

	path := filepath.Join(outDir, FileName(prefix))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing manifest: %w", err)
	}
	return path, nil
}

// Read loads a previously written manifest.
func Read(path string) (*RunManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var m RunManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return &m, nil
}
