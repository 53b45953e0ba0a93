// Package errs defines the error taxonomy shared by the export pipeline
// and its publish backends. Sentinel errors classify outcomes for
// errors.Is checks; the structured error types (GitError, APIError,
// ConfigError) carry the raw lower-level diagnostics for troubleshooting.
//
// Classification happens once, at the integration boundary that observed
// the failure (the git executor, the Gist client, the config loader).
// Callers above that boundary only ever match sentinels.
package errs
