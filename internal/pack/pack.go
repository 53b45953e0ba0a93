package pack

import (
	"fmt"
	"sort"

	"github.com/treeship-labs/treeship/internal/errs"
	"github.com/treeship-labs/treeship/internal/scan"
)

// CapKind distinguishes normal bundles from oversized singletons.
type CapKind string

const (
	// CapNormal marks a bundle whose total size is within the hard cap.
	CapNormal CapKind = "normal"

	// CapOversized marks a bundle holding exactly one file that alone
	// exceeds the hard cap.
	CapOversized CapKind = "oversized-singleton"
)

// Bundle is a size-bounded group of whole files destined for one rendered
// artifact. Members keep the order they were packed in.
type Bundle struct {
	Ordinal        int
	Members        []scan.SourceFile
	TotalSizeBytes int64
	CapKind        CapKind
}

// Group packs files into bundles using first-fit-decreasing with an
// oversized escape. targetBytes is the soft threshold that leaves headroom
// for rendering overhead; hardCapBytes is the platform hard limit and only
// decides oversized-singleton status. Files are sorted descending by size
// with a stable sort, so equal-size files keep their scan order.
func Group(files []scan.SourceFile, targetBytes, hardCapBytes int64) ([]Bundle, error) {
	if targetBytes <= 0 {
		return nil, errs.NewConfigError("target", targetBytes, fmt.Errorf("must be positive"))
	}
	if hardCapBytes < targetBytes {
		return nil, errs.NewConfigError("hard-cap", hardCapBytes,
			fmt.Errorf("must be at least the target %d", targetBytes))
	}
	if len(files) == 0 {
		return nil, nil
	}

	sorted := make([]scan.SourceFile, len(files))
	copy(sorted, files)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SizeBytes > sorted[j].SizeBytes
	})

	var bundles []Bundle
	var current []scan.SourceFile
	var currentSize int64

	flush := func(kind CapKind) {
		if len(current) == 0 {
			return
		}
		bundles = append(bundles, Bundle{
			Ordinal:        len(bundles) + 1,
			Members:        current,
			TotalSizeBytes: currentSize,
			CapKind:        kind,
		})
		current = nil
		currentSize = 0
	}

	for _, f := range sorted {
		switch {
		case f.SizeBytes > hardCapBytes:
			flush(CapNormal)
			current = []scan.SourceFile{f}
			currentSize = f.SizeBytes
			flush(CapOversized)

		case len(current) > 0 && currentSize+f.SizeBytes > targetBytes:
			flush(CapNormal)
			current = []scan.SourceFile{f}
			currentSize = f.SizeBytes

		default:
			// Also the empty-bundle exception: a file over the target
			// but within the hard cap still starts its own bundle.
			current = append(current, f)
			currentSize += f.SizeBytes
		}
	}
	flush(CapNormal)

	return bundles, nil
}
