package kernel

import "sync"

// Chan is the Go stand-in for "any kernel address may serve as a
// channel" (spec.md glossary). Any comparable value works; lifecycle
// entries key sleeps by *Proc (a record's own stable address, exactly
// as the original keys a parent's wait on the parent's address).
type Chan any

// Proc is one process-table slot (spec.md §3). It is never copied or
// relocated after NewTable allocates the backing array: Table hands
// out *Proc pointers that stay valid for the table's lifetime, which
// is what lets the runnable queue be an intrusive linked list threaded
// through prev/next instead of an out-of-band index.
type Proc struct {
	PID      int64
	State    State
	Tickets  int
	Stride   int64
	Pass     int64
	Ticks    int64
	EndTicks int64 // -1 == no lifetime cap

	// Queue links (C2). Non-nil only while State == Runnable and the
	// record is linked into the table's runnable queue.
	prev, next *Proc

	Name    string
	Parent  *Proc
	Killed  bool
	ch      Chan // non-nil only while State == Sleeping

	// wl binds this record to a real OS process (C8). nil for purely
	// logical records (init has none: it never runs workload code of
	// its own, it only reaps reparented zombies).
	wl *workload
}

// Chan returns the channel this record is currently sleeping on, or
// nil if it isn't sleeping.
func (p *Proc) Chan() Chan { return p.ch }

// HasWorkload reports whether this record is bound to a real OS
// process, for callers (internal/snapshot) that can't see the
// unexported wl field directly.
func (p Proc) HasWorkload() bool { return p.wl != nil }

// Table is the process slot table (C1) plus the runnable queue (C2)
// it's threaded through, and the single spinlock (table_lock) that
// protects both plus every field transition touches (spec.md §5).
type Table struct {
	lock Spinlock
	cond *sync.Cond // bound to lock.mu; broadcast whenever a record becomes Runnable or Zombie

	cfg Config

	slots   []Proc
	nextPID int64 // monotonic, never reused (see DESIGN.md Open Questions #5)

	head, tail *Proc
	qlen       int

	Init *Proc

	// Logs holds per-pid log ring buffers (C9), independent of the
	// table lock: readers (the admin API) must not block on scheduler
	// activity to tail a process's output.
	Logs *LogManager
}

// NewTable allocates a fixed-size table per cfg (spec.md §4.1: "fixed
// array of NPROC process records, statically allocated").
func NewTable(cfg Config) *Table {
	cfg.setDefaults()
	t := &Table{
		cfg:     cfg,
		slots:   make([]Proc, cfg.NProc),
		nextPID: 1,
		Logs:    NewLogManager(),
	}
	t.cond = sync.NewCond(&t.lock.mu)
	return t
}

// Config returns the table's configuration.
func (t *Table) Config() Config { return t.cfg }

// allocRecord scans for the first UNUSED slot and transitions it to
// EMBRYO with a fresh pid, exactly as spec.md §4.1 describes. Requires
// the table lock held by cpu. Returns nil if the table is full.
func (t *Table) allocRecord(cpu *CPU) *Proc {
	t.mustHold(cpu)

	for i := range t.slots {
		p := &t.slots[i]
		if p.State != Unused {
			continue
		}

		pid := t.nextPID
		t.nextPID++

		*p = Proc{
			PID:      pid,
			EndTicks: -1,
			Tickets:  StrideMax, // sane default per spec.md §9: stride = StrideMax/StrideMax = 1
			Stride:   StrideMax / StrideMax,
		}
		transition(p, Embryo)
		return p
	}
	return nil
}

// mustHold panics unless cpu currently holds the table lock — every
// exported Table/lifecycle method that documents "requires the table
// lock held" calls this first.
func (t *Table) mustHold(cpu *CPU) {
	if !t.lock.Held(cpu) {
		invariant("table lock not held by calling CPU")
	}
}

// Lock/Unlock expose the table's spinlock to callers outside the
// package's own lifecycle methods (the scheduler loop and the admin
// API both need to bracket multi-step sequences in the same lock).
func (t *Table) Lock(cpu *CPU)   { t.lock.Acquire(cpu) }
func (t *Table) Unlock(cpu *CPU) { t.lock.Release(cpu) }

// ByPID returns the live (non-UNUSED) record with the given pid, or
// nil. Requires the table lock held.
func (t *Table) ByPID(cpu *CPU, pid int64) *Proc {
	t.mustHold(cpu)
	for i := range t.slots {
		p := &t.slots[i]
		if p.State != Unused && p.PID == pid {
			return p
		}
	}
	return nil
}

// Snapshot returns a shallow copy of every live record's value,
// safe to read without the lock once returned. Requires the table
// lock held while building it (internal/snapshot calls this under
// Table.Lock/Unlock).
func (t *Table) Snapshot(cpu *CPU) []Proc {
	t.mustHold(cpu)
	out := make([]Proc, 0, len(t.slots))
	for i := range t.slots {
		if t.slots[i].State != Unused {
			out = append(out, t.slots[i])
		}
	}
	return out
}
