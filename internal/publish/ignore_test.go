package publish

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/treeship-labs/treeship/internal/scan"
)

func TestEnsureIgnoreFileCreates(t *testing.T) {
	dir := t.TempDir()
	rules := scan.Rules{
		ArtifactPrefix: "EXPORT_PART",
		SecretFiles:    []string{"treeship.yaml"},
		ExcludeGlobs:   []string{"*.log"},
	}

	if err := EnsureIgnoreFile(dir, rules); err != nil {
		t.Fatalf("EnsureIgnoreFile: %v", err)
	}

	content, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"EXPORT_PART_*", "treeship.yaml", "*.log"} {
		if !strings.Contains(string(content), want) {
			t.Errorf(".gitignore missing %q:\n%s", want, content)
		}
	}
}

func TestEnsureIgnoreFileIdempotent(t *testing.T) {
	dir := t.TempDir()
	rules := scan.Rules{SecretFiles: []string{"treeship.yaml"}}

	if err := EnsureIgnoreFile(dir, rules); err != nil {
		t.Fatal(err)
	}
	first, _ := os.ReadFile(filepath.Join(dir, ".gitignore"))

	if err := EnsureIgnoreFile(dir, rules); err != nil {
		t.Fatal(err)
	}
	second, _ := os.ReadFile(filepath.Join(dir, ".gitignore"))

	if string(first) != string(second) {
		t.Errorf("second call changed the file:\n%q\nvs\n%q", first, second)
	}
}

func TestEnsureIgnoreFilePreservesUserEntries(t *testing.T) {
	dir := t.TempDir()
	existing := "# user rules\ncoverage/\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(existing), 0644); err != nil {
		t.Fatal(err)
	}

	if err := EnsureIgnoreFile(dir, scan.Rules{SecretFiles: []string{"treeship.yaml"}}); err != nil {
		t.Fatal(err)
	}

	content, _ := os.ReadFile(filepath.Join(dir, ".gitignore"))
	if !strings.Contains(string(content), "coverage/") {
		t.Error("user entries should be preserved")
	}
	if !strings.Contains(string(content), "treeship.yaml") {
		t.Error("secret file should be appended")
	}
}
