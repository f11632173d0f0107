// Package history journals pipeline runs in a SQLite database.
//
// Each run gets one row in runs (id, timing, final state, outcome) and one
// row per executed step in stages. The Recorder adapts a Store to the
// pipeline observer hooks so a run is journaled as it progresses; a run that
// dies mid-way stays visible with status "running" or "failed" and the last
// state it reached.
package history
