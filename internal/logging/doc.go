// Package logging assembles the structured slog loggers used across jedisim.
//
// It owns the console and JSON handlers, routes every run to both the
// terminal and a per-run log file, and exposes context-aware helpers so stage
// code automatically tags log lines with the run ID, stage label, pipeline
// case, and loop iteration. A no-op logger is provided for tests and wiring
// code that cannot fail.
package logging
