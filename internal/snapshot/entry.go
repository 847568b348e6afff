// Package snapshot builds a point-in-time, JSON-friendly view of the
// kernel's process table and runnable queue (C10), caches it briefly,
// and optionally mirrors it to Redis so something other than the admin
// API itself (a second instance, a dashboard) can read the latest
// snapshot without going through the kernel's lock at all.
package snapshot

import (
	"time"

	"github.com/stridekernd/stridekernd/internal/kernel"
)

// Entry is one process record, flattened for JSON/Redis.
type Entry struct {
	PID      int64  `json:"pid"`
	PPID     int64  `json:"ppid"`
	Name     string `json:"name"`
	State    string `json:"state"`
	Tickets  int    `json:"tickets"`
	Stride   int64  `json:"stride"`
	Pass     int64  `json:"pass"`
	Killed   bool   `json:"killed"`
	Workload bool   `json:"workload"`
}

func newEntry(p kernel.Proc) Entry {
	var ppid int64
	if p.Parent != nil {
		ppid = p.Parent.PID
	}
	return Entry{
		PID:      p.PID,
		PPID:     ppid,
		Name:     p.Name,
		State:    p.State.String(),
		Tickets:  p.Tickets,
		Stride:   p.Stride,
		Pass:     p.Pass,
		Killed:   p.Killed,
		Workload: p.HasWorkload(),
	}
}

// Snapshot is the full C10 export: every live process record plus the
// runnable queue in dispatch order, stamped with when it was taken.
type Snapshot struct {
	GeneratedAt time.Time `json:"generated_at"`
	Procs       []Entry   `json:"procs"`
	Queue       []int64   `json:"queue"` // pids, in dispatch order
}
