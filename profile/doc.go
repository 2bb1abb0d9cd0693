// Package profile starts and stops runtime profiling using
// [github.com/pkg/profile].
//
// Profiling is compiled in only when building with the "pprof" tag:
//
//	go build -tags pprof .
//
// Without the tag, [Modes] is empty and [Profiler.Start] always returns a
// no-op [Stopper], so callers need no build constraints of their own.
//
// Profiles are written to [Profiler.Path] with names matching the mode
// (cpu.pprof, mem.pprof, ...) and analyzed with "go tool pprof".
// The tagged build also registers the [net/http/pprof] handlers on
// [net/http.DefaultServeMux].
package profile
