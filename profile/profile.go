package profile

// Tag is the build tag that enables profiling. It also names the profile
// output directory and prefixes the profiling flags.
const Tag = "pprof"

// Profiler selects a profiling mode and where its output goes.
type Profiler struct {
	Mode  string // one of [Modes]; empty disables profiling
	Path  string // output directory; empty uses the working directory
	Quiet bool   // suppress profiler log output
}

// Stopper ends a profiling session and flushes its output.
type Stopper interface{ Stop() }

// Start begins profiling. Stop is always safe to call on the result, even
// when profiling is disabled or the mode is unknown.
func (p Profiler) Start() Stopper {
	if p.Mode == "" {
		return ignore{}
	}

	return start(p)
}

type ignore struct{}

func (ignore) Stop() {}
