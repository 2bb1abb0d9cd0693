// Package cli contains the command line interface for nestex.
//
// # Usage
//
//	nestex [flags] [eval] [TEMPLATE]
//	nestex [flags] parse {tree|json|yaml} [TEMPLATE]
//	nestex [flags] check STRING...
//	nestex [flags] repl
//
// Templates are read from the positional argument, or from the files named
// with -f when no argument is given. Property files named with -p provide the
// values returned by the get function.
//
// # Configuration
//
// Flag defaults may be set in config.yaml (or config.json) under the user
// configuration directory, e.g. ~/.config/nestex/config.yaml:
//
//	log:
//	  level: debug
//	  format: text
//	props:
//	  - ~/.config/nestex/props.yaml
//
// Command-line flags override configuration values.
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (json, text)
//   - --log-time-layout: Set timestamp format (RFC3339, Kitchen, none, etc.)
//   - --log-caller: Include caller information in log output
//   - --log-pretty: Colorize log output
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof .
//
//   - --pprof-mode: Enable profiling (allocs, block, clock, cpu, goroutine,
//     heap, mem, mutex, thread, trace)
//   - --pprof-dir: Set profile output directory (default: ~/.cache/nestex/pprof)
package cli
