package kernel

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Kernel wires a Table to a logger and hands out ephemeral *CPU tokens
// for callers that aren't a scheduler loop — an admin API request is,
// in this model, exactly like a syscall trapping in on whatever core
// happens to run it (see cpu.go's doc comment): it gets a fresh *CPU,
// uses it for the duration of one call, and discards it.
type Kernel struct {
	Table *Table
	log   *zap.Logger
}

// NewKernel builds a Table per cfg and boots the init process: a
// logical record, pid 1, permanently SLEEPING, that owns every
// admin-forked process and is the sole parent passed to Wait.
func NewKernel(cfg Config, log *zap.Logger) *Kernel {
	t := NewTable(cfg)
	k := &Kernel{Table: t, log: log}
	k.bootInit()
	return k
}

func (k *Kernel) bootInit() {
	cpu := NewCPU(-1)
	t := k.Table
	t.Lock(cpu)
	defer t.Unlock(cpu)

	p := t.allocRecord(cpu)
	if p == nil {
		invariant("boot: table has no room for init")
	}
	p.Name = "init"
	p.Tickets = StrideMax
	p.Stride = Stride(StrideMax)
	// Bootstrap-only: init never runs, so it never takes the normal
	// EMBRYO->RUNNABLE edge. It goes straight to a permanent SLEEPING
	// placeholder that Wait's children get parked under.
	p.State = Sleeping

	t.Init = p
}

// RunScheduler launches Config.NCPU independent scheduler loops under
// one errgroup and blocks until ctx is cancelled and all of them have
// returned. Grounded on the teacher's use of errgroup.Group to bound a
// set of long-running goroutines to a single cancellation scope.
func (k *Kernel) RunScheduler(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < k.Table.Config().NCPU; i++ {
		cpu := NewCPU(i)
		g.Go(func() error {
			k.Table.RunCPU(gctx, cpu, k.log)
			return nil
		})
	}
	return g.Wait()
}

// Fork, SetTickets, Kill, Wait, ByPID, Snapshot and QueueSnapshot below
// are the syscall-shaped entry points the admin API calls; each brackets
// exactly one Table operation in its own ephemeral *CPU and the table
// lock, so handler code never touches CPU or Spinlock directly.

func (k *Kernel) Fork(name string, tickets int, endTicks int64, argv []string) (*Proc, error) {
	cpu := NewCPU(-1)
	k.Table.Lock(cpu)
	defer k.Table.Unlock(cpu)
	return k.Table.Fork(cpu, k.log, k.Table.Init, name, tickets, endTicks, argv)
}

func (k *Kernel) SetTickets(pid int64, tickets int, endTicks int64) error {
	cpu := NewCPU(-1)
	k.Table.Lock(cpu)
	defer k.Table.Unlock(cpu)

	p := k.Table.ByPID(cpu, pid)
	if p == nil {
		return ErrNoSuchPID
	}
	return k.Table.SetTickets(cpu, k.log, p, tickets, endTicks)
}

func (k *Kernel) Kill(pid int64) error {
	cpu := NewCPU(-1)
	k.Table.Lock(cpu)
	defer k.Table.Unlock(cpu)

	p := k.Table.ByPID(cpu, pid)
	if p == nil {
		return ErrNoSuchPID
	}
	k.Table.Kill(cpu, k.log, p)
	return nil
}

// Wait blocks until one of init's children becomes ZOMBIE (or ctx is
// done) and returns the reaped record.
func (k *Kernel) Wait(ctx context.Context) (Proc, error) {
	cpu := NewCPU(-1)
	k.Table.Lock(cpu)
	defer k.Table.Unlock(cpu)
	return k.Table.Wait(ctx, cpu, k.Table.Init)
}

func (k *Kernel) ByPID(pid int64) (Proc, bool) {
	cpu := NewCPU(-1)
	k.Table.Lock(cpu)
	defer k.Table.Unlock(cpu)

	p := k.Table.ByPID(cpu, pid)
	if p == nil {
		return Proc{}, false
	}
	return *p, true
}

// Snapshot returns a value copy of every live process record.
func (k *Kernel) Snapshot() []Proc {
	cpu := NewCPU(-1)
	k.Table.Lock(cpu)
	defer k.Table.Unlock(cpu)
	return k.Table.Snapshot(cpu)
}

// QueueSnapshot returns the runnable queue's current contents in
// (pass, pid) order — the order the scheduler would dispatch them in.
func (k *Kernel) QueueSnapshot() []Proc {
	cpu := NewCPU(-1)
	k.Table.Lock(cpu)
	defer k.Table.Unlock(cpu)

	out := make([]Proc, 0, k.Table.QueueLen(cpu))
	for p := k.Table.peekMin(cpu); p != nil; p = p.next {
		out = append(out, *p)
	}
	return out
}
