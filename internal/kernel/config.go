package kernel

import "time"

// Stride-arithmetic constants (spec.md §4.3). StrideMax is large enough
// that stride = StrideMax/1 leaves ample headroom under PassMax, and
// PassMax/DistanceMax bound how far any one process's pass can drift
// before Rebase normalizes it.
const (
	StrideMax   = 1 << 20
	PassMax     = 1 << 30
	DistanceMax = 1 << 16
)

// DefaultNProc is the fixed process-table size when a Config doesn't
// override it.
const DefaultNProc = 64

// DefaultTickQuantum is how long a RUNNING workload is left resumed
// before the scheduler preempts it back to RUNNABLE (spec.md §5's
// "tick-driven involuntary yield"). Real subprocesses don't make
// syscalls into this kernel, so ticks are the only preemption source.
const DefaultTickQuantum = 100 * time.Millisecond

// Config bundles the knobs spec.md leaves to the implementer.
type Config struct {
	// NProc sizes the fixed process table (spec.md §4.1).
	NProc int
	// NCPU is the number of independent per-CPU scheduler loops.
	NCPU int
	// TickQuantum bounds how long a selected process may run before an
	// involuntary yield is forced.
	TickQuantum time.Duration
	// TraceRebase makes Rebase log one structured Debug line per queued
	// record (pid, new pass, base). It is a runtime toggle rather than a
	// build switch, so tracing can be turned on without a rebuild (see
	// DESIGN.md Open Questions). Debug is not read anywhere in this
	// package; no fork/exit trace lines are emitted.
	TraceRebase bool
	Debug       bool
}

// DefaultConfig returns sane defaults for a single-binary deployment.
func DefaultConfig() Config {
	return Config{
		NProc:       DefaultNProc,
		NCPU:        1,
		TickQuantum: DefaultTickQuantum,
	}
}

func (c *Config) setDefaults() {
	if c.NProc <= 0 {
		c.NProc = DefaultNProc
	}
	if c.NCPU <= 0 {
		c.NCPU = 1
	}
	if c.TickQuantum <= 0 {
		c.TickQuantum = DefaultTickQuantum
	}
}
