// Package cli wires the cobra command tree: export, split, publish,
// history, config, doctor, and version. Commands stay thin; the work
// happens in internal/pipeline and the packages beneath it.
package cli
