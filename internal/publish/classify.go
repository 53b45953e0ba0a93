package publish

import (
	"errors"
	"fmt"
	"strings"

	"github.com/treeship-labs/treeship/internal/errs"
)

// gitOutput extracts the captured stderr from a git failure, or falls
// back to the error text.
func gitOutput(err error) string {
	var gitErr *errs.GitError
	if errors.As(err, &gitErr) {
		return gitErr.Output
	}
	return err.Error()
}

// classified pairs a taxonomy sentinel with the raw lower-level
// diagnostic, so the user sees both the classification and the text that
// produced it.
func classified(sentinel error, context string, raw string) error {
	return fmt.Errorf("%s: %w: %s", context, sentinel, raw)
}

// classifyProbe maps a failed remote-listing probe onto the taxonomy.
// Called only after both credential-embedding schemes have been tried.
func classifyProbe(err error) error {
	raw := gitOutput(err)
	out := strings.ToLower(raw)
	switch {
	case strings.Contains(out, "repository not found") || strings.Contains(out, "not found"):
		return classified(errs.ErrNotFound, "remote probe", raw)
	default:
		return classified(errs.ErrAuthentication, "remote probe", raw)
	}
}

// classifyPush maps a push rejection onto the taxonomy. Conflicts are the
// only class the caller may retry (once, forced); everything else is
// terminal.
func classifyPush(err error) error {
	raw := gitOutput(err)
	out := strings.ToLower(raw)
	switch {
	case strings.Contains(out, "gh013") || strings.Contains(out, "push-protection") ||
		strings.Contains(out, "secret scanning"):
		return classified(errs.ErrSecretScanBlocked, "push rejected", raw)
	case strings.Contains(out, "non-fast-forward") || strings.Contains(out, "fetch first") ||
		strings.Contains(out, "unrelated histories") || strings.Contains(out, "[rejected]"):
		return classified(errs.ErrConflict, "push rejected", raw)
	case strings.Contains(out, "repository not found"):
		return classified(errs.ErrNotFound, "push", raw)
	case strings.Contains(out, "authentication failed") || strings.Contains(out, "invalid username or") ||
		strings.Contains(out, "403"):
		return classified(errs.ErrAuthentication, "push", raw)
	default:
		return err
	}
}
