package render

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/treeship-labs/treeship/internal/pack"
	"github.com/treeship-labs/treeship/internal/scan"
)

var testTime = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func bundleOf(t *testing.T, dir, name, content string) pack.Bundle {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return pack.Bundle{
		Ordinal: 1,
		Members: []scan.SourceFile{{
			Path:         name,
			AbsolutePath: path,
			SizeBytes:    int64(len(content)),
		}},
		TotalSizeBytes: int64(len(content)),
		CapKind:        pack.CapNormal,
	}
}

func TestWriteBundleHeaderAndNumbering(t *testing.T) {
	tmp := t.TempDir()
	b := bundleOf(t, tmp, "hello.go", "package main\n\nfunc main() {}\n")

	var sb strings.Builder
	if err := WriteBundle(&sb, b, 3, testTime); err != nil {
		t.Fatalf("WriteBundle: %v", err)
	}
	out := sb.String()

	for _, want := range []string{
		" EXPORT PART 1 of 3",
		" Generated: 2026-03-14 09:30:00 UTC",
		"FILE: hello.go",
		"     1 | package main",
		"     2 | ",
		"     3 | func main() {}",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
}

func TestWriteBundleUnreadableMemberContinues(t *testing.T) {
	tmp := t.TempDir()
	good := filepath.Join(tmp, "good.txt")
	if err := os.WriteFile(good, []byte("fine\n"), 0644); err != nil {
		t.Fatal(err)
	}

	b := pack.Bundle{
		Ordinal: 1,
		Members: []scan.SourceFile{
			{Path: "missing.txt", AbsolutePath: filepath.Join(tmp, "missing.txt"), SizeBytes: 10},
			{Path: "good.txt", AbsolutePath: good, SizeBytes: 5},
		},
		TotalSizeBytes: 15,
		CapKind:        pack.CapNormal,
	}

	var sb strings.Builder
	if err := WriteBundle(&sb, b, 1, testTime); err != nil {
		t.Fatalf("WriteBundle should not abort on unreadable member: %v", err)
	}
	out := sb.String()

	if !strings.Contains(out, "[error reading file:") {
		t.Error("expected in-band error marker for unreadable member")
	}
	if !strings.Contains(out, "     1 | fine") {
		t.Error("remaining members should still be rendered")
	}
}

func TestWriteBundleOversizedNote(t *testing.T) {
	tmp := t.TempDir()
	b := bundleOf(t, tmp, "big.bin", "x")
	b.CapKind = pack.CapOversized

	var sb strings.Builder
	if err := WriteBundle(&sb, b, 1, testTime); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(sb.String(), "exceeding the size cap") {
		t.Error("oversized singleton should be flagged in the header")
	}
}

func TestWriteIndexBundleEntries(t *testing.T) {
	entries := []IndexEntry{
		{
			Artifact: Artifact{FileName: "EXPORT_PART_001.txt", SizeBytes: 2048, Kind: KindPart},
			Members:  []Member{{Path: "a.go", SizeBytes: 1000}, {Path: "b.go", SizeBytes: 900}},
		},
	}

	var sb strings.Builder
	if err := WriteIndex(&sb, entries, testTime); err != nil {
		t.Fatal(err)
	}
	out := sb.String()

	for _, want := range []string{
		" EXPORT INDEX",
		"EXPORT_PART_001.txt  2.0 KiB  (2 files)",
		"    - a.go (1000 B)",
		"    - b.go (900 B)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("index missing %q\n%s", want, out)
		}
	}
}

func TestWriteIndexChunkEntries(t *testing.T) {
	entries := []IndexEntry{
		{
			Artifact:  Artifact{FileName: "EXPORT_PART_001.bin", SizeBytes: 1048576, Kind: KindPart},
			ByteStart: 0,
			ByteEnd:   1048576,
		},
		{
			Artifact:  Artifact{FileName: "EXPORT_PART_002.bin", SizeBytes: 524288, Kind: KindPart},
			ByteStart: 1048576,
			ByteEnd:   1572864,
		},
	}

	var sb strings.Builder
	if err := WriteIndex(&sb, entries, testTime); err != nil {
		t.Fatal(err)
	}
	out := sb.String()

	if !strings.Contains(out, "EXPORT_PART_001.bin  1.0 MiB  bytes [0, 1048576)") {
		t.Errorf("chunk entry missing byte range:\n%s", out)
	}
	if !strings.Contains(out, "bytes [1048576, 1572864)") {
		t.Errorf("second chunk entry missing byte range:\n%s", out)
	}
}

func TestRenderBundleWritesFile(t *testing.T) {
	src := t.TempDir()
	out := t.TempDir()
	b := bundleOf(t, src, "one.txt", "single line\n")

	artifact, members, err := RenderBundle(out, "EXPORT_PART", b, 1, testTime)
	if err != nil {
		t.Fatalf("RenderBundle: %v", err)
	}

	if artifact.FileName != "EXPORT_PART_001.txt" {
		t.Errorf("FileName = %s", artifact.FileName)
	}
	if artifact.Kind != KindPart {
		t.Errorf("Kind = %s", artifact.Kind)
	}

	info, err := os.Stat(filepath.Join(out, artifact.FileName))
	if err != nil {
		t.Fatalf("artifact not on disk: %v", err)
	}
	if info.Size() != artifact.SizeBytes {
		t.Errorf("recorded size %d, on-disk %d", artifact.SizeBytes, info.Size())
	}
	if len(members) != 1 || members[0].Path != "one.txt" {
		t.Errorf("members = %+v", members)
	}
}

func TestRenderIndexWritesFile(t *testing.T) {
	out := t.TempDir()
	entries := []IndexEntry{
		{Artifact: Artifact{FileName: "EXPORT_PART_001.txt", SizeBytes: 100, Kind: KindPart}},
	}

	artifact, err := RenderIndex(out, "EXPORT_PART", entries, testTime)
	if err != nil {
		t.Fatalf("RenderIndex: %v", err)
	}
	if artifact.FileName != "EXPORT_PART_INDEX.txt" || artifact.Kind != KindIndex {
		t.Errorf("artifact = %+v", artifact)
	}
	if _, err := os.Stat(filepath.Join(out, artifact.FileName)); err != nil {
		t.Errorf("index not on disk: %v", err)
	}
}
