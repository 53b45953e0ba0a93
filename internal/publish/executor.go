package publish

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/treeship-labs/treeship/internal/errs"
)

// CommandRunner abstracts git command execution so publishers can be
// tested without a git binary or a network.
type CommandRunner interface {
	// Run executes git with the given arguments in dir and returns
	// trimmed stdout. A non-nil error is always a *errs.GitError whose
	// Output holds the command's stderr.
	Run(dir string, args ...string) (string, error)
}

// ExecRunner is the exec-backed CommandRunner used outside of tests.
// Every invocation carries a finite timeout; git never hangs the run.
type ExecRunner struct {
	Timeout time.Duration
}

// NewExecRunner returns an ExecRunner with the default timeout.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{Timeout: 60 * time.Second}
}

// Run implements CommandRunner.
func (e *ExecRunner) Run(dir string, args ...string) (string, error) {
	timeout := e.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		operation := ""
		if len(args) > 0 {
			operation = args[0]
		}
		return "", errs.NewGitError(operation, args, err, strings.TrimSpace(stderr.String()))
	}

	return strings.TrimSpace(stdout.String()), nil
}
