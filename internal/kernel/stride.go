package kernel

import "go.uber.org/zap"

// Stride converts a ticket count into the pass increment a process
// accrues each time it gives up the CPU (spec.md §4.3). tickets must
// be >= 1; callers validate that before calling in (SetTickets, fork's
// inherited default).
func Stride(tickets int) int64 {
	if tickets < 1 {
		invariant("stride: tickets must be >= 1")
	}
	return StrideMax / int64(tickets)
}

// requeueAfterRunning advances p's pass by its own stride and re-links
// it into the runnable queue, then marks it Runnable. Every transition
// out of Running and back into Runnable — voluntary yield, involuntary
// tick preemption — MUST go through this single path so pass advances
// exactly once per turn at the CPU (spec.md §4.3, §5). Requires the
// table lock held.
func (t *Table) requeueAfterRunning(cpu *CPU, p *Proc) {
	t.mustHold(cpu)
	if p.State != Running {
		invariant("requeueAfterRunning: record not RUNNING")
	}
	p.Pass += p.Stride
	t.enqueue(cpu, p) // enqueue performs the Running->Runnable edge itself
}

// Rebase is a no-op unless the tail's pass has drifted past PassMax
// (spec.md §4.3 step 2); otherwise it subtracts the queue head's pass
// from every queued record's pass, then clamps each to DistanceMax,
// bounding how far any one process can drift from the front of the
// line. Sleeping and zombie records are untouched: they are not in the
// queue, and spec.md's own wording scopes rebase to "each queued
// record" only (see DESIGN.md Open Questions #3). Requires the table
// lock held.
func (t *Table) Rebase(cpu *CPU, log *zap.Logger) {
	t.mustHold(cpu)
	if t.head == nil {
		return
	}

	if t.tail.Pass <= PassMax {
		return
	}

	base := t.head.Pass

	for p := t.head; p != nil; p = p.next {
		p.Pass -= base
		if p.Pass > DistanceMax {
			p.Pass = DistanceMax
		}
		if t.cfg.TraceRebase && log != nil {
			log.Debug("rebase",
				zap.Int64("pid", p.PID),
				zap.Int64("pass", p.Pass),
				zap.Int64("base", base),
			)
		}
	}
}
