// Package config loads, normalizes, and validates jedisim tool configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. The Config type centralizes where the
// pipeline runs, where the external executables and settings file live, and
// how logging and the run history behave.
//
// The physics settings file consumed by the stages is a separate format owned
// by package settings; this package only records where to find it.
package config
