package profile

// Profiler selects one profiling mode and where its output goes.
type Profiler struct {
	Mode  string
	Dir   string
	Quiet bool
}

// Stopper ends a profiling session and flushes its output.
type Stopper interface{ Stop() }

// Start starts profiling. It returns a no-op Stopper when Mode is empty,
// unknown, or the binary was built without the pprof tag. Start and Stop are
// always safe to call.
func (p Profiler) Start() Stopper {
	if p.Mode == "" {
		return ignore{}
	}

	return start(p)
}

// Enabled reports whether profiling was compiled in.
func Enabled() bool { return len(Modes()) > 0 }

type ignore struct{}

func (ignore) Stop() {}
