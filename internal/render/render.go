package render

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/treeship-labs/treeship/internal/pack"
)

// Kind distinguishes part artifacts from the per-run index artifact.
type Kind string

const (
	KindPart  Kind = "part"
	KindIndex Kind = "index"
)

// Artifact describes one file the renderer wrote to disk.
type Artifact struct {
	FileName  string
	SizeBytes int64
	Kind      Kind
}

// Member is one entry in an index sub-listing.
type Member struct {
	Path      string
	SizeBytes int64
}

// IndexEntry is one artifact line in the index, with either a member
// sub-listing (bundle parts) or a byte range (chunk parts).
type IndexEntry struct {
	Artifact
	Members   []Member
	ByteStart int64
	ByteEnd   int64 // exclusive; > 0 marks a chunk entry
}

const (
	rule       = "================================================================================"
	memberRule = "--------------------------------------------------------------------------------"
	lineWidth  = 6
	timeLayout = "2006-01-02 15:04:05 MST"
)

// BundleFileName returns the on-disk name for a bundle part artifact.
func BundleFileName(prefix string, ordinal int) string {
	return fmt.Sprintf("%s_%03d.txt", prefix, ordinal)
}

// IndexFileName returns the on-disk name for the run's index artifact.
func IndexFileName(prefix string) string {
	return fmt.Sprintf("%s_INDEX.txt", prefix)
}

// WriteBundle serializes a bundle into one human-readable text artifact:
// a run header, then each member file with a separator, its relative path
// and size, and its content with fixed-width 1-based line numbers. An
// unreadable member gets an in-band error marker and rendering continues.
func WriteBundle(w io.Writer, b pack.Bundle, bundleCount int, now time.Time) error {
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, " EXPORT PART %d of %d\n", b.Ordinal, bundleCount)
	fmt.Fprintf(w, " Generated: %s\n", now.Format(timeLayout))
	fmt.Fprintf(w, " Contents: %d files, %s\n", len(b.Members), humanize.IBytes(uint64(b.TotalSizeBytes)))
	if b.CapKind == pack.CapOversized {
		fmt.Fprintln(w, " Note: single file exceeding the size cap, emitted alone")
	}
	fmt.Fprintln(w, rule)

	for _, m := range b.Members {
		fmt.Fprintln(w)
		fmt.Fprintln(w, memberRule)
		fmt.Fprintf(w, "FILE: %s (%s)\n", m.Path, humanize.IBytes(uint64(m.SizeBytes)))
		fmt.Fprintln(w, memberRule)

		if err := writeNumberedContent(w, m.AbsolutePath); err != nil {
			fmt.Fprintf(w, "[error reading file: %v]\n", err)
		}
	}

	return nil
}

// writeNumberedContent copies the file line by line with left-padded
// 1-based line numbers.
func writeNumberedContent(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 1
	for scanner.Scan() {
		fmt.Fprintf(w, "%*d | %s\n", lineWidth, lineNo, scanner.Text())
		lineNo++
	}
	return scanner.Err()
}

// WriteIndex serializes the run-level index: the same header style as a
// bundle, then one line per artifact with its size, followed by either a
// member sub-listing or a byte range.
func WriteIndex(w io.Writer, entries []IndexEntry, now time.Time) error {
	var total int64
	for _, e := range entries {
		total += e.SizeBytes
	}

	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, " EXPORT INDEX")
	fmt.Fprintf(w, " Generated: %s\n", now.Format(timeLayout))
	fmt.Fprintf(w, " Artifacts: %d parts, %s total\n", len(entries), humanize.IBytes(uint64(total)))
	fmt.Fprintln(w, rule)

	for _, e := range entries {
		fmt.Fprintln(w)
		if e.ByteEnd > 0 {
			fmt.Fprintf(w, "%s  %s  bytes [%d, %d)\n",
				e.FileName, humanize.IBytes(uint64(e.SizeBytes)), e.ByteStart, e.ByteEnd)
			continue
		}
		fmt.Fprintf(w, "%s  %s  (%d files)\n",
			e.FileName, humanize.IBytes(uint64(e.SizeBytes)), len(e.Members))
		for _, m := range e.Members {
			fmt.Fprintf(w, "    - %s (%s)\n", m.Path, humanize.IBytes(uint64(m.SizeBytes)))
		}
	}

	return nil
}

// RenderBundle writes a bundle artifact under outDir and returns its
// on-disk record plus the member listing for the index.
func RenderBundle(outDir, prefix string, b pack.Bundle, bundleCount int, now time.Time) (Artifact, []Member, error) {
	name := BundleFileName(prefix, b.Ordinal)
	path := filepath.Join(outDir, name)

	f, err := os.Create(path)
	if err != nil {
		return Artifact{}, nil, fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	if err := WriteBundle(f, b, bundleCount, now); err != nil {
		return Artifact{}, nil, err
	}
	if err := f.Close(); err != nil {
		return Artifact{}, nil, fmt.Errorf("closing %s: %w", path, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return Artifact{}, nil, fmt.Errorf("stat %s: %w", path, err)
	}

	members := make([]Member, 0, len(b.Members))
	for _, m := range b.Members {
		members = append(members, Member{Path: m.Path, SizeBytes: m.SizeBytes})
	}

	return Artifact{FileName: name, SizeBytes: info.Size(), Kind: KindPart}, members, nil
}

// RenderIndex writes the index artifact under outDir and returns its record.
func RenderIndex(outDir, prefix string, entries []IndexEntry, now time.Time) (Artifact, error) {
	name := IndexFileName(prefix)
	path := filepath.Join(outDir, name)

	f, err := os.Create(path)
	if err != nil {
		return Artifact{}, fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	if err := WriteIndex(f, entries, now); err != nil {
		return Artifact{}, err
	}
	if err := f.Close(); err != nil {
		return Artifact{}, fmt.Errorf("closing %s: %w", path, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return Artifact{}, fmt.Errorf("stat %s: %w", path, err)
	}

	return Artifact{FileName: name, SizeBytes: info.Size(), Kind: KindIndex}, nil
}
