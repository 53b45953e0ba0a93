// Package chunk splits one oversized file into fixed-size sequential byte
// ranges. This is the binary-safe path of the export pipeline: parts are
// verbatim byte slices with no added framing, unlike the text rendering
// applied to bundles of whole files.
package chunk
