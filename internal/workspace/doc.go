// Package workspace provisions the output directory tree the jedi
// executables write into and guards it against concurrent runs.
//
// Reset is destructive: it removes a directory with all of its contents and
// recreates it empty. Only directories whose contents the pipeline fully
// regenerates belong in a Layout's reset set. EnsureNumbered is the
// non-destructive counterpart used for the per-batch stamp_ and distorted_
// folders. Lock takes an advisory file lock so two runs never reset the same
// tree at once.
package workspace
