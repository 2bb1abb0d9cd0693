// Package log wraps [log/slog] with a small leveled API and a colorized
// handler for terminals.
//
// A [Logger] is created with [Make] and configured with functional options:
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelDebug),
//		log.WithFormat(log.FormatText),
//		log.WithTimeLayout("kitchen"))
//
//	logger.Info("parsed template", slog.Int("depth", 3))
//
// Attributes are typed [slog.Attr] values rather than alternating key/value
// arguments. Each level has a variant taking a [context.Context]; the other
// variant uses [DefaultContextProvider].
//
// # Levels
//
// Five levels are defined: [LevelTrace], [LevelDebug], [LevelInfo],
// [LevelWarn], and [LevelError]. Trace sits below slog's debug level and is
// written as "TRACE" rather than "DEBUG-4".
//
// # Package logger
//
// The package-level functions ([Info], [DebugContext], ...) write through a
// shared logger that starts out writing JSON to standard error. [Config]
// reconfigures it; command-line front ends call it while parsing flags so
// that even parse errors honor the requested format.
package log
