// Package render serializes bundles and the run index into human-readable
// text artifacts: run headers, per-file separators, and line-numbered
// content. Chunk parts are not rendered here; they are raw byte slices
// written by the chunk package.
package render
