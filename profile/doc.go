// Package profile wraps [github.com/pkg/profile] for optional runtime
// profiling of the interpreter.
//
// Profiling is compiled in only with the "pprof" build tag:
//
//	go build -tags pprof .
//
// Without the tag [Modes] is empty and [Profiler.Start] returns a no-op
// [Stopper], so callers never need their own build constraints.
//
// # Modes
//
//   - allocs:    memory allocation profiling (all allocations)
//   - block:     blocking profiling
//   - clock:     wall-clock profiling
//   - cpu:       CPU profiling
//   - goroutine: goroutine profiling
//   - heap:      live heap profiling
//   - mem:       general memory profiling
//   - mutex:     mutex contention profiling
//   - thread:    thread creation profiling
//   - trace:     execution tracing
//
// A profile is written to the configured directory when the returned
// [Stopper] is stopped, and can be inspected with go tool pprof:
//
//	lunar --pprof-mode=cpu run fib.lua
//	go tool pprof -http=: ~/.cache/lunar/pprof/cpu.pprof
//
// The pprof build also registers the [net/http/pprof] handlers on
// [net/http.DefaultServeMux].
package profile

// Tag is the build tag required to enable pprof profiling.
const Tag = `pprof`
