// Package jedi builds the command lines of the nine jedisim image-processing
// executables.
//
// Every executable takes fixed positional arguments; position is significant
// and all values are passed through as the strings found in the settings
// namespace. The Client only constructs Invocations. Launching them is the
// runner's job.
package jedi
