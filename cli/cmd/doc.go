// Package cmd implements the lunar subcommands: run, ast, tokens, repl and
// init.
package cmd

var (
	// CacheIdentifier is the kong variable identifier containing the path to
	// the runtime cache directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable identifier containing the path to
	// the configuration script.
	ConfigIdentifier = "config"
)
