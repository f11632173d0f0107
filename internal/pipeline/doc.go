// Package pipeline drives the jedisim stage sequence.
//
// A run walks a fixed state machine: the output directories are reset, the
// two pre-loop stages build the merged images and the catalog, the seven
// stage inner loop runs once per iteration, and the post-loop stages average
// and add noise. The rotated case then gets its catalog and lists rewritten
// from the baseline outputs and mirrors the loop and post-loop stages through
// the rotated namespace.
//
// Every step is strictly sequential. Most intermediate files are rewritten in
// place by each iteration (only the rescale output is indexed), so iteration
// i+1 cannot start before iteration i finishes. The first failure stops the
// run where it is; nothing is rolled back.
package pipeline
