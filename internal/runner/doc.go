// Package runner launches the external jedisim stage executables.
//
// Each stage is one synchronous process invocation. The Runner logs the
// stage label and full command line, streams the child's stdout and stderr
// line by line, and reports how long the stage took and how long the run has
// been going. A nonzero exit status or a launch failure is returned as a
// *StageError; the runner never terminates the process itself and never
// retries.
//
// Tests substitute the Executor to avoid spawning real binaries.
package runner
