// Package scan discovers the source files for an export run. It walks the
// project root once, applies the exclusion rules (VCS metadata, dependency
// caches, prior export artifacts, secret files), and returns an immutable
// snapshot that every downstream stage reads but never mutates.
package scan
