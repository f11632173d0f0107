// Package main hosts the jedisim CLI entrypoint and command graph.
//
// The Cobra command tree resolves the tool configuration once, then hands
// the physics settings, weight table and stage client to the pipeline
// sequencer. Subcommands cover the whole run, its pieces (directory setup,
// rotated rewrites), dry-run inspection (plan, settings, check) and the run
// history journal.
package main
