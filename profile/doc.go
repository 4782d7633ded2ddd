// Package profile starts optional runtime profiling through
// [github.com/pkg/profile].
//
// Profiling is compiled in only with the "pprof" build tag:
//
//	go build -tags pprof .
//	artmpl --pprof-mode cpu render index
//
// Without the tag, [Modes] is empty and [Profiler.Start] does nothing.
// Profile files are written to the configured directory, by default the
// pprof directory under the user cache directory, and can be inspected
// with "go tool pprof".
package profile
