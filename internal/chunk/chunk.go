package chunk

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/treeship-labs/treeship/internal/errs"
)

// Span is one contiguous byte range of the input file. Ordinals are
// 1-based; ByteEnd is exclusive. Spans are contiguous, non-overlapping,
// and together cover exactly [0, size).
type Span struct {
	Ordinal   int
	ByteStart int64
	ByteEnd   int64
}

// Part records one chunk artifact written to disk.
type Part struct {
	Span
	FileName  string
	SizeBytes int64
}

// Result is the outcome of splitting one file.
type Result struct {
	SourcePath string
	SourceSize int64
	CapBytes   int64
	Parts      []Part
}

// Plan computes the spans for a file of the given size under the cap.
// A zero-size file yields no spans, which callers report as a diagnostic.
func Plan(size, capBytes int64) ([]Span, error) {
	if capBytes <= 0 {
		return nil, errs.NewConfigError("cap", capBytes, fmt.Errorf("must be positive"))
	}
	if size < 0 {
		return nil, errs.NewConfigError("size", size, fmt.Errorf("must be non-negative"))
	}
	if size == 0 {
		return nil, nil
	}

	count := int((size + capBytes - 1) / capBytes)
	spans := make([]Span, 0, count)
	for i := 1; i <= count; i++ {
		start := int64(i-1) * capBytes
		end := start + capBytes
		if end > size {
			end = size
		}
		spans = append(spans, Span{Ordinal: i, ByteStart: start, ByteEnd: end})
	}
	return spans, nil
}

// Split copies the file's byte ranges verbatim into sequentially numbered
// part files under outDir. No framing is added: each part is a raw slice
// of the original, safe for binary content, and concatenating the parts in
// ordinal order reproduces the file exactly.
func Split(path string, capBytes int64, outDir, prefix string) (*Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.Wrapf(errs.ErrPathNotFound, "input file %s", path)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, errs.NewConfigError("file", path, fmt.Errorf("is a directory, expected a file"))
	}

	spans, err := Plan(info.Size(), capBytes)
	if err != nil {
		return nil, err
	}

	result := &Result{
		SourcePath: path,
		SourceSize: info.Size(),
		CapBytes:   capBytes,
	}
	if len(spans) == 0 {
		return result, nil
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	src, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer src.Close()

	for _, span := range spans {
		name := fmt.Sprintf("%s_%03d.bin", prefix, span.Ordinal)
		outPath := filepath.Join(outDir, name)

		if err := writePart(src, span, outPath); err != nil {
			return nil, fmt.Errorf("writing part %d: %w", span.Ordinal, err)
		}
		result.Parts = append(result.Parts, Part{
			Span:      span,
			FileName:  name,
			SizeBytes: span.ByteEnd - span.ByteStart,
		})
	}

	return result, nil
}

func writePart(src *os.File, span Span, outPath string) error {
	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := src.Seek(span.ByteStart, io.SeekStart); err != nil {
		return err
	}
	if _, err := io.CopyN(out, src, span.ByteEnd-span.ByteStart); err != nil {
		return err
	}
	return out.Close()
}
