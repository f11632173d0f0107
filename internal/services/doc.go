// Package services defines shared utilities consumed by the pipeline stages
// and the external jedi executables wrapped under services/jedi.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage labels, case names (baseline
//     or rotated), and loop iterations for logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     (malformed settings, missing keys, external tool failures, catalog
//     format problems) and map them to a process exit status.
//
// Use these helpers when wiring new stage logic so failure reporting stays
// uniform across the pipeline.
package services
