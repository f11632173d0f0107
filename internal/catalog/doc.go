// Package catalog rewrites the object catalog and list files produced by the
// baseline case into their rotated counterparts.
//
// The object catalog is tab-delimited; field 3 holds the rotation angle in
// degrees and the last two fields hold the stamp and distorted output paths.
// List files hold one path per line. Every rewrite preserves the input's line
// structure byte for byte apart from the substituted text, and the output is
// renamed into place only after the whole input has been processed.
package catalog
