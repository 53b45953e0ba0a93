package scan

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/treeship-labs/treeship/internal/errs"
)

// SourceFile is an immutable snapshot of one file discovered under the
// export root, captured once per run.
type SourceFile struct {
	Path         string // relative to the root, forward slashes
	AbsolutePath string
	SizeBytes    int64
	LastModified time.Time
}

// excludedDirNames are directory names skipped entirely during the walk.
var excludedDirNames = map[string]bool{
	".git":         true,
	".hg":          true,
	".svn":         true,
	"node_modules": true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
	"target":       true,
	"out":          true,
	"__pycache__":  true,
	".venv":        true,
	".idea":        true,
	".vscode":      true,
}

// excludedFileNames are file names skipped regardless of location.
var excludedFileNames = map[string]bool{
	".DS_Store": true,
	"Thumbs.db": true,
}

// Rules controls which files a scan yields.
type Rules struct {
	// ArtifactPrefix excludes this run's own output from the next scan.
	// Any file whose base name starts with the prefix is skipped.
	ArtifactPrefix string

	// SecretFiles are excluded by exact base name, independent of any
	// pattern, so credentials never enter the artifact stream.
	SecretFiles []string

	// ExcludeGlobs are additional shell-style patterns matched against
	// the file base name (e.g. "*.log").
	ExcludeGlobs []string
}

// DefaultRules returns the exclusion set used by the export command.
// secretFiles should name every config file that may hold a token.
func DefaultRules(artifactPrefix string, secretFiles ...string) Rules {
	return Rules{
		ArtifactPrefix: artifactPrefix,
		SecretFiles:    secretFiles,
		ExcludeGlobs:   []string{"*.log", "*.tmp", "*.lock"},
	}
}

// excludesFile reports whether the rules exclude the given base name.
func (r Rules) excludesFile(base string) bool {
	if excludedFileNames[base] {
		return true
	}
	if r.ArtifactPrefix != "" && strings.HasPrefix(base, r.ArtifactPrefix) {
		return true
	}
	for _, secret := range r.SecretFiles {
		if base == secret {
			return true
		}
	}
	for _, pattern := range r.ExcludeGlobs {
		if ok, _ := filepath.Match(pattern, base); ok {
			return true
		}
	}
	return false
}

// Scan walks root and returns the ordered set of source files that survive
// the exclusion rules. The order is the deterministic lexical order of
// filepath.WalkDir. Scan never modifies the tree.
func Scan(root string, rules Rules) ([]SourceFile, error) {
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.Wrapf(errs.ErrPathNotFound, "export root %s", root)
		}
		return nil, fmt.Errorf("stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, errs.NewConfigError("root", root, fmt.Errorf("not a directory"))
	}

	var files []SourceFile
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable entries are skipped, not fatal.
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		base := d.Name()
		if d.IsDir() {
			if path != root && excludedDirNames[base] {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil // skip symlinks and special files
		}
		if rules.excludesFile(base) {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		files = append(files, SourceFile{
			Path:         filepath.ToSlash(rel),
			AbsolutePath: path,
			SizeBytes:    fi.Size(),
			LastModified: fi.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}

	return files, nil
}

// TotalBytes sums the sizes of the given files.
func TotalBytes(files []SourceFile) int64 {
	var total int64
	for _, f := range files {
		total += f.SizeBytes
	}
	return total
}
