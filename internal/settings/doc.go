// Package settings reads the flat key=value physics settings file shared
// with the jedi executables and derives the per-run path namespace.
//
// Parsing yields the raw Namespace exactly as written. Derive builds a second,
// independent Namespace in which the image, catalog, and list filenames are
// qualified with the output folder and run prefix, and adds the parallel
// 90_-prefixed keys for the rotated case. Rotated values are always computed
// from the raw snapshot so the prefix pass can never leak into them.
package settings
