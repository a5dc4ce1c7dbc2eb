// Package cli contains the command line interface for lunar.
//
// # Usage
//
// Scripts run by default; the run command may be omitted:
//
//	lunar script.lua
//	lunar run --set 'n=10' --dump=json script.lua
//	lunar repl
//	lunar ast --format=yaml script.lua
//
// # Configuration
//
// Flag defaults are read from config.lua in the user configuration
// directory. The script runs in a fresh interpreter and each global it
// leaves behind sets the flag of the same name, with underscores in place of
// hyphens:
//
//	log_level = "debug"
//	config = { log_pretty = false }
//
// Entries of a global table named config take precedence over top-level
// globals. Command-line flags override config file values. The init command
// writes a config.lua holding the current flag values.
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (text, json)
//   - --log-time-layout: Set timestamp layout (rfc3339, kitchen, none, or a
//     Go layout such as "15:04:05.000")
//   - --log-caller: Include caller information in log output
//   - --log-pretty: Colorize log output
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof -o lunar .
//
//   - --pprof-mode: Enable profiling (allocs, block, clock, cpu, goroutine,
//     heap, mem, mutex, thread, trace)
//   - --pprof-dir: Set profile output directory (default: ~/.cache/lunar/pprof)
package cli
