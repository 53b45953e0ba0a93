package config

import (
	"errors"
	"testing"

	"github.com/treeship-labs/treeship/internal/errs"
)

func TestResolveTokenFromEnv(t *testing.T) {
	t.Setenv("TREESHIP_TOKEN", "ghp_abcdefghijklmnopqrstuvwxyz")
	t.Setenv("GITHUB_TOKEN", "")

	token, err := ResolveToken()
	if err != nil {
		t.Fatalf("ResolveToken: %v", err)
	}
	if token != "ghp_abcdefghijklmnopqrstuvwxyz" {
		t.Errorf("token = %s", token)
	}
}

func TestResolveTokenFallsBackToGitHubToken(t *testing.T) {
	t.Setenv("TREESHIP_TOKEN", "")
	t.Setenv("GITHUB_TOKEN", "gho_fallbacktoken1234567890")

	token, err := ResolveToken()
	if err != nil {
		t.Fatalf("ResolveToken: %v", err)
	}
	if token != "gho_fallbacktoken1234567890" {
		t.Errorf("token = %s", token)
	}
}

func TestResolveTokenPlaceholderRejected(t *testing.T) {
	t.Setenv("TREESHIP_TOKEN", "YOUR_TOKEN_HERE")
	t.Setenv("GITHUB_TOKEN", "")

	if _, err := ResolveToken(); !errors.Is(err, errs.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration for placeholder, got %v", err)
	}
}

func TestResolveTokenMissing(t *testing.T) {
	t.Setenv("TREESHIP_TOKEN", "")
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("HOME", t.TempDir()) // isolate from any real global config

	Load()
	if _, err := ResolveToken(); !errors.Is(err, errs.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration when no token anywhere, got %v", err)
	}
}
