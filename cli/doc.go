// Package cli contains the command line interface for artmpl.
//
// # Usage
//
//	artmpl [flags] <command> [args]
//
// Commands:
//   - render: render a template by name, file, or '-' for stdin
//   - check: compile templates and print their diagnostics
//   - source: print the program generated for a template
//   - repl: render template lines interactively
//   - init: write a configuration file holding the current flag values
//
// Template names are resolved against --root, then each --path
// directory, then each directory listed in ARTMPL_PATH. Names without an
// extension get --extension, ".art" by default.
//
// # Configuration
//
// Flag defaults are read from config.yaml in the user configuration
// directory (for example ~/.config/artmpl/config.yaml), under the key
// "config":
//
//	config:
//	  log-level: debug
//	  preset: brace
//	  escape: false
//
// A flat config.json next to it is read as well. Command-line flags
// override both.
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (json, text)
//   - --log-time-layout: Set timestamp format (RFC3339, RFC3339Nano, etc.)
//   - --log-caller: Include caller information in log output
//   - --log-pretty: Colorize log output
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof .
//
// It adds these flags:
//   - --pprof-mode: Enable profiling (allocs, block, clock, cpu, goroutine,
//     heap, mem, mutex, thread, trace)
//   - --pprof-dir: Set profile output directory (default: the pprof
//     directory under the user cache directory)
//
// # Examples
//
//	# Render with data from a YAML file into index.html
//	artmpl render -d site.yaml -o index.html index
//
//	# Check every page, reporting diagnostics as JSON
//	artmpl check -f json pages/home pages/about
//
//	# Render stdin with brace syntax only and no escaping
//	echo '{{ name }}' | artmpl --preset brace --no-escape render -s name=x -
package cli
