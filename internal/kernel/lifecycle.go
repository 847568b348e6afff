package kernel

import (
	"context"

	"go.uber.org/zap"
)

// ChanOf returns the channel token a process waiting on another
// process's exit sleeps on: the target's own stable address. Any other
// comparable value works equally well as a Chan (spec.md glossary).
func ChanOf(p *Proc) Chan { return p }

func parentPID(p *Proc) int64 {
	if p == nil {
		return 0
	}
	return p.PID
}

// Fork allocates a new record, optionally binds it to a real OS
// workload, and enqueues it RUNNABLE (spec.md §4.6/C1). Requires the
// table lock held. argv may be empty for a purely logical record (used
// by tests; init is created by bootInit, not by Fork).
func (t *Table) Fork(cpu *CPU, log *zap.Logger, parent *Proc, name string, tickets int, endTicks int64, argv []string) (*Proc, error) {
	t.mustHold(cpu)

	if tickets < 1 || tickets > StrideMax {
		return nil, ErrInvalidTickets
	}

	p := t.allocRecord(cpu)
	if p == nil {
		return nil, ErrTableFull
	}

	p.Name = name
	p.Parent = parent
	p.Tickets = tickets
	p.Stride = Stride(tickets)
	if endTicks >= 1 {
		p.EndTicks = endTicks
	}
	p.Pass = 0

	if len(argv) > 0 {
		wl, err := newWorkload(log, t.Logs.Get(p.PID), argv)
		if err != nil {
			p.State = Unused // rolls back an allocation that was never observed by any caller
			return nil, err
		}
		if _, err := wl.spawn(); err != nil {
			p.State = Unused
			return nil, err
		}
		p.wl = wl
	}

	t.enqueue(cpu, p)
	log.Info("fork",
		zap.Int64("pid", p.PID),
		zap.Int64("ppid", parentPID(parent)),
		zap.String("name", name),
		zap.Int("tickets", tickets),
	)
	return p, nil
}

// reparentChildren hands every live child of p over to t.Init, matching
// the classic Unix convention that orphans are adopted by init rather
// than left parentless.
func (t *Table) reparentChildren(cpu *CPU, p *Proc) {
	if t.Init == nil || t.Init == p {
		return
	}
	for i := range t.slots {
		c := &t.slots[i]
		if c.State != Unused && c.Parent == p {
			c.Parent = t.Init
		}
	}
}

// Exit transitions a RUNNING record to ZOMBIE, tears down its workload
// if it has one, reparents its children to init, and wakes anything
// sleeping on its parent's wait (spec.md §4.7). Requires the table
// lock held.
func (t *Table) Exit(cpu *CPU, log *zap.Logger, p *Proc) {
	t.mustHold(cpu)
	if p.State != Running {
		invariant("exit: record not RUNNING")
	}

	if p.wl != nil {
		p.wl.kill()
	}
	transition(p, Zombie)
	t.reparentChildren(cpu, p)

	log.Info("exit", zap.Int64("pid", p.PID), zap.Int64("ppid", parentPID(p.Parent)))
	t.cond.Broadcast()
}

// reap frees a ZOMBIE record back to UNUSED and drops its log buffer.
// Requires the table lock held; p must be ZOMBIE.
func (t *Table) reap(cpu *CPU, p *Proc) {
	t.mustHold(cpu)
	pid := p.PID
	transition(p, Unused)
	*p = Proc{State: Unused}
	t.Logs.Drop(pid)
}

func (t *Table) findZombieChild(parent *Proc) (child *Proc, hasChildren bool) {
	for i := range t.slots {
		c := &t.slots[i]
		if c.State == Unused || c.Parent != parent {
			continue
		}
		hasChildren = true
		if c.State == Zombie && child == nil {
			child = c
		}
	}
	return child, hasChildren
}

// Wait blocks until one of parent's children becomes ZOMBIE, reaps it,
// and returns a copy of its final record (spec.md §4.8). parent must
// already be SLEEPING — in this system only init (permanently sleeping,
// see SPEC_FULL.md §4.11) ever calls Wait. Requires the table lock
// held; it is released internally while blocked and re-acquired before
// returning, exactly as a condition variable wait does.
func (t *Table) Wait(ctx context.Context, cpu *CPU, parent *Proc) (Proc, error) {
	t.mustHold(cpu)
	if parent.State != Sleeping {
		invariant("wait: caller is not SLEEPING")
	}

	stop := context.AfterFunc(ctx, func() {
		t.lock.mu.Lock()
		t.cond.Broadcast()
		t.lock.mu.Unlock()
	})
	defer stop()

	for {
		child, hasChildren := t.findZombieChild(parent)
		if child != nil {
			result := *child
			t.reap(cpu, child)
			return result, nil
		}
		if !hasChildren {
			return Proc{}, ErrNoChildren
		}
		if err := ctx.Err(); err != nil {
			return Proc{}, err
		}
		// cond.Wait unlocks and relocks the spinlock's mutex directly,
		// bypassing Spinlock.Release/Acquire — restore the holder
		// bookkeeping those would normally maintain so the mustHold
		// assertions below keep working once we're resumed.
		t.cond.Wait()
		t.lock.holder.Store(cpu)
	}
}

// Sleep moves a RUNNING record to SLEEPING on channel ch (spec.md
// §4.9). Requires the table lock held.
func (t *Table) Sleep(cpu *CPU, p *Proc, ch Chan) {
	t.mustHold(cpu)
	if p.State != Running {
		invariant("sleep: record not RUNNING")
	}
	p.ch = ch
	transition(p, Sleeping)
}

// Wakeup moves every SLEEPING record waiting on ch back to RUNNABLE and
// enqueues it (spec.md §4.10). Requires the table lock held.
func (t *Table) Wakeup(cpu *CPU, ch Chan) {
	t.mustHold(cpu)
	for i := range t.slots {
		p := &t.slots[i]
		if p.State == Sleeping && p.ch == ch {
			p.ch = nil
			t.enqueue(cpu, p)
		}
	}
	t.cond.Broadcast()
}

// Kill marks p killed and, if it is SLEEPING, wakes it so it observes
// the flag on its next scheduling opportunity; if it is RUNNING, its
// workload (if any) is torn down directly, which drives the scheduler
// loop to call Exit on it (spec.md §4.12). Requires the table lock
// held.
func (t *Table) Kill(cpu *CPU, log *zap.Logger, p *Proc) {
	t.mustHold(cpu)
	p.Killed = true

	switch p.State {
	case Sleeping:
		p.ch = nil
		t.enqueue(cpu, p)
	case Running:
		if p.wl != nil {
			p.wl.kill()
		}
	}

	log.Info("kill", zap.Int64("pid", p.PID))
}

// Yield voluntarily gives up the CPU: p moves RUNNING->RUNNABLE with
// its pass advanced by its own stride. Requires the table lock held.
func (t *Table) Yield(cpu *CPU, p *Proc) {
	t.mustHold(cpu)
	t.requeueAfterRunning(cpu, p)
}
