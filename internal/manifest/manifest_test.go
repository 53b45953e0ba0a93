package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/treeship-labs/treeship/internal/publish"
	"github.com/treeship-labs/treeship/internal/render"
)

func TestNewRecordsArtifactsAndResults(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	artifacts := []render.Artifact{
		{FileName: "EXPORT_PART_001.txt", SizeBytes: 1000, Kind: render.KindPart},
		{FileName: "EXPORT_PART_INDEX.txt", SizeBytes: 120, Kind: render.KindIndex},
	}
	results := []publish.Result{
		{Channel: publish.ChannelGist, ArtifactRef: "EXPORT_PART_001.txt",
			RemoteURL: "https://gist.github.com/abc", Status: publish.StatusSuccess},
		{Channel: publish.ChannelGist, ArtifactRef: "EXPORT_PART_INDEX.txt",
			Status: publish.StatusFailure, Err: errors.New("simulated")},
	}

	m := New("/src/project", "gist", artifacts, results, now)

	if len(m.Artifacts) != 2 {
		t.Fatalf("got %d artifact records", len(m.Artifacts))
	}
	if m.TotalSizeBytes != 1120 {
		t.Errorf("TotalSizeBytes = %d", m.TotalSizeBytes)
	}
	if len(m.Published) != 2 {
		t.Fatalf("got %d publish records", len(m.Published))
	}
	if m.Published[1].Error != "simulated" {
		t.Errorf("failure diagnostic not recorded: %+v", m.Published[1])
	}
}

func TestWriteAndRead(t *testing.T) {
	dir := t.TempDir()
	now := time.Now().UTC().Truncate(time.Second)
	m := New("/src", "git", []render.Artifact{
		{FileName: "EXPORT_PART_001.txt", SizeBytes: 42, Kind: render.KindPart},
	}, nil, now)
	m.TargetBytes = 650 * 1024
	m.HardCapBytes = 1024 * 1024

	path, err := m.Write(dir, "EXPORT_PART")
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if filepath.Base(path) != "EXPORT_PART_RUN.yaml" {
		t.Errorf("manifest path = %s", path)
	}

	loaded, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if loaded.Root != "/src" || loaded.Channel != "git" {
		t.Errorf("round-trip lost fields: %+v", loaded)
	}
	if len(loaded.Artifacts) != 1 || loaded.Artifacts[0].SizeBytes != 42 {
		t.Errorf("round-trip lost artifacts: %+v", loaded.Artifacts)
	}
	if loaded.TargetBytes != 650*1024 {
		t.Errorf("TargetBytes = %d", loaded.TargetBytes)
	}
}

func TestManifestListsExactlyWrittenArtifacts(t *testing.T) {
	// Manifest completeness: records must match what is actually on disk.
	dir := t.TempDir()
	var artifacts []render.Artifact
	for _, name := range []string{"EXPORT_PART_001.txt", "EXPORT_PART_002.txt"} {
		content := strings.Repeat("x", 10)
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		artifacts = append(artifacts, render.Artifact{FileName: name, SizeBytes: 10, Kind: render.KindPart})
	}

	m := New(dir, "", artifacts, nil, time.Now())
	for _, rec := range m.Artifacts {
		info, err := os.Stat(filepath.Join(dir, rec.FileName))
		if err != nil {
			t.Errorf("manifest lists %s which is not on disk", rec.FileName)
			continue
		}
		if info.Size() != rec.SizeBytes {
			t.Errorf("%s: manifest size %d, on-disk %d", rec.FileName, rec.SizeBytes, info.Size())
		}
	}
}
