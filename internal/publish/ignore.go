package publish

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/treeship-labs/treeship/internal/scan"
)

// ignoreLines converts scan rules into committed .gitignore lines so the
// publish channel repeats the scanner's exclusions. Secret files are
// listed by exact name, not only by pattern.
func ignoreLines(rules scan.Rules) []string {
	var lines []string
	if rules.ArtifactPrefix != "" {
		lines = append(lines, rules.ArtifactPrefix+"_*")
	}
	for _, secret := range rules.SecretFiles {
		lines = append(lines, secret)
	}
	lines = append(lines, rules.ExcludeGlobs...)
	return lines
}

// EnsureIgnoreFile appends any missing exclusion lines to the repository's
// .gitignore. Lines already present are left alone, so the call is
// idempotent and preserves user-maintained entries.
func EnsureIgnoreFile(repoRoot string, rules scan.Rules) error {
	ignorePath := filepath.Join(repoRoot, ".gitignore")

	content, err := os.ReadFile(ignorePath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading .gitignore: %w", err)
	}

	existing := make(map[string]bool)
	for _, l := range strings.Split(string(content), "\n") {
		existing[strings.TrimSpace(l)] = true
	}

	var missing []string
	for _, line := range ignoreLines(rules) {
		if !existing[line] {
			missing = append(missing, line)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	suffix := strings.Join(missing, "\n") + "\n"
	if len(content) > 0 && !strings.HasSuffix(string(content), "\n") {
		suffix = "\n" + suffix
	}

	f, err := os.OpenFile(ignorePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening .gitignore for append: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(suffix); err != nil {
		return fmt.Errorf("writing to .gitignore: %w", err)
	}

	return nil
}
