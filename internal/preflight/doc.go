// Package preflight provides readiness checks for the executables, settings
// and filesystem paths a jedisim run depends on.
//
// The "jedisim check" command prints every result. "jedisim run" calls
// RunAll before taking the workspace lock and refuses to start when a check
// fails, so a missing executable is caught before hours of earlier stages
// have run.
package preflight
