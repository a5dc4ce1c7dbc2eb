package profile

// Stopper stops a running profiler and flushes its output.
type Stopper interface{ Stop() }

// Profiler selects what to profile and where to write the result.
type Profiler struct {
	Mode  string // One of [Modes]; empty disables profiling
	Path  string // Output directory
	Quiet bool   // Suppress the profiler's own log output
}

// Option configures a [Profiler].
type Option func(*Profiler)

// WithMode sets the profiling mode.
func WithMode(mode string) Option {
	return func(p *Profiler) { p.Mode = mode }
}

// WithPath sets the output directory.
func WithPath(path string) Option {
	return func(p *Profiler) { p.Path = path }
}

// WithQuiet suppresses the profiler's log output.
func WithQuiet(quiet bool) Option {
	return func(p *Profiler) { p.Quiet = quiet }
}

// New returns a profiler configured by opts.
func New(opts ...Option) Profiler {
	var p Profiler
	for _, opt := range opts {
		opt(&p)
	}

	return p
}

// Start begins profiling. The returned Stopper is always safe to call, and
// is a no-op when Mode is empty, unknown, or the pprof build tag is unset.
func (p Profiler) Start() Stopper {
	if p.Mode == "" {
		return ignore{}
	}

	return start(p)
}

type ignore struct{}

func (ignore) Stop() {}
