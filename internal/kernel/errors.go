package kernel

import "errors"

// User-visible, recoverable failures. These map to the original
// source's "-1" return convention; HTTP handlers translate each to a
// status code (see internal/api/http).
var (
	ErrTableFull      = errors.New("kernel: process table full")
	ErrInvalidTickets = errors.New("kernel: tickets out of range")
	ErrNoSuchPID      = errors.New("kernel: no such pid")
	ErrNoChildren     = errors.New("kernel: caller has no children")
	ErrKilled         = errors.New("kernel: caller has been killed")
	ErrNotSleeping    = errors.New("kernel: lock held without a channel to sleep on")
	ErrSpawnFailed    = errors.New("kernel: workload spawn failed")
)

// invariant panics with a diagnostic string. Every call site names the
// precondition it is asserting, mirroring the original source's fatal
// panic() calls for preconditions that indicate caller misuse rather
// than a runtime condition.
func invariant(msg string) {
	panic("kernel: invariant violated: " + msg)
}
