// Package cmd implements the artmpl subcommands: render, check, source,
// repl and init.
package cmd

var (
	// CacheIdentifier is the kong variable identifier containing the path to
	// the runtime cache directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable identifier containing the path
	// to the configuration file written by init.
	ConfigIdentifier = "config"

	// ExtensionIdentifier is the kong variable identifier containing the
	// default template file extension.
	ExtensionIdentifier = "extension"

	// PathEnvIdentifier is the kong variable identifier naming the
	// environment variable that holds the template search path.
	PathEnvIdentifier = "pathEnv"
)
