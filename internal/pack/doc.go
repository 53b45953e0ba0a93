// Package pack groups many small files into size-bounded bundles using
// first-fit-decreasing bin-packing with an oversized-item escape. Each
// bundle becomes one rendered text artifact.
package pack
