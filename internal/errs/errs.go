package errs

import (
	"errors"
	"fmt"
)

// Sentinel errors usable with errors.Is for outcome classification.
var (
	// ErrPathNotFound indicates the export root or input file does not exist.
	ErrPathNotFound = errors.New("path not found")

	// ErrConfiguration indicates missing or placeholder configuration,
	// detected before any network call.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrAuthentication indicates an invalid or expired token after all
	// credential-embedding schemes have been exhausted.
	ErrAuthentication = errors.New("authentication failed")

	// ErrNotFound indicates the target remote repository does not exist.
	ErrNotFound = errors.New("remote repository not found")

	// ErrConflict indicates a non-fast-forward or unrelated-history push
	// rejection that persisted after the single forced retry.
	ErrConflict = errors.New("push conflict")

	// ErrSecretScanBlocked indicates the remote rejected a push because it
	// detected secret content. Never retried.
	ErrSecretScanBlocked = errors.New("push blocked by secret scanning")

	// ErrSizeLimitExceeded indicates a single artifact exceeds a publish
	// channel's per-file cap.
	ErrSizeLimitExceeded = errors.New("artifact exceeds size limit")

	// ErrPartialFailure indicates a batch publish where some, but not all,
	// artifacts succeeded. Reported, not fatal.
	ErrPartialFailure = errors.New("some artifacts failed to publish")
)

// Wrap wraps an error with a message for context.
func Wrap(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted message for context.
func Wrapf(err error, format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// GitError describes a failed git command: the operation, its arguments,
// the classified underlying error, and the (redacted) command output.
type GitError struct {
	Operation string
	Args      []string
	Err       error
	Output    string
}

func (e *GitError) Error() string {
	msg := fmt.Sprintf("git %s failed", e.Operation)
	if e.Output != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Output)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying error for use with errors.Is and errors.As.
func (e *GitError) Unwrap() error {
	return e.Err
}

// NewGitError creates a GitError for the given operation.
func NewGitError(operation string, args []string, err error, output string) *GitError {
	return &GitError{
		Operation: operation,
		Args:      args,
		Err:       err,
		Output:    output,
	}
}

// APIError describes a failed REST API call: endpoint, HTTP status, the
// classified underlying error, and the response body for troubleshooting.
type APIError struct {
	Endpoint   string
	StatusCode int
	Err        error
	Body       string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("%s returned status %d", e.Endpoint, e.StatusCode)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Body != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Body)
	}
	return msg
}

// Unwrap returns the underlying error for use with errors.Is and errors.As.
func (e *APIError) Unwrap() error {
	return e.Err
}

// NewAPIError creates an APIError for the given endpoint and status.
func NewAPIError(endpoint string, status int, err error, body string) *APIError {
	return &APIError{
		Endpoint:   endpoint,
		StatusCode: status,
		Err:        err,
		Body:       body,
	}
}

// ConfigError describes an invalid configuration parameter.
type ConfigError struct {
	Parameter string
	Value     any
	Err       error
}

func (e *ConfigError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("configuration error for %s = %v: %v", e.Parameter, e.Value, e.Err)
	}
	return fmt.Sprintf("configuration error for %s: %v", e.Parameter, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is and errors.As.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a ConfigError for the given parameter.
func NewConfigError(parameter string, value any, err error) *ConfigError {
	return &ConfigError{
		Parameter: parameter,
		Value:     value,
		Err:       err,
	}
}
