// Package publish delivers rendered artifacts through one of two
// backends: a git remote (commit and push of the working tree, with
// credential-scheme fallback and a single forced retry on conflict) or
// the GitHub Gist API (one gist per artifact, bounded delays, partial
// failure accounting).
//
// Credentials are call parameters, held in memory only for the duration
// of the operation. Every diagnostic that leaves this package passes
// through Redact first.
package publish
