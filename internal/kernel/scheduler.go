package kernel

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// RunCPU is one per-CPU scheduler loop (C5, spec.md §5): it rebases the
// queue, dispatches the lowest-(pass,pid) runnable record, resumes its
// workload (or simply marks it selected, for logical-only records) for
// up to Config.TickQuantum, then either moves a process that exited on
// its own or was killed to ZOMBIE (Exit), or forcibly preempts it back
// to RUNNABLE. It runs until ctx is cancelled, at which point any record
// it has selected is paused and left RUNNING — RunCPU itself never exits
// mid-dispatch, only between dispatch cycles.
//
// Grounded on processmgr.ProcessManager.superviseProcess's
// select-on-ctx/select-on-timer loop shape.
func (t *Table) RunCPU(ctx context.Context, cpu *CPU, log *zap.Logger) {
	log = log.With(zap.Int("cpu", cpu.ID))
	log.Info("scheduler loop started")

	for {
		select {
		case <-ctx.Done():
			log.Info("scheduler loop stopping", zap.String("reason", ctx.Err().Error()))
			return
		default:
		}

		cpu.EnableInterrupts()

		t.Lock(cpu)
		t.Rebase(cpu, log)
		p := t.dispatch(cpu)
		if p == nil {
			t.Unlock(cpu)
			// Nothing runnable: wait briefly rather than spin the CPU.
			select {
			case <-ctx.Done():
				continue
			case <-time.After(t.cfg.TickQuantum):
			}
			continue
		}
		cpu.Proc = p
		if p.wl != nil {
			p.wl.resume()
		}
		t.Unlock(cpu)

		t.runQuantum(ctx, cpu, log, p)
		cpu.Proc = nil
	}
}

// runQuantum lets p occupy the CPU until it exits on its own, it is
// killed, or the tick quantum elapses — whichever comes first — then
// re-acquires the table lock to record the outcome.
func (t *Table) runQuantum(ctx context.Context, cpu *CPU, log *zap.Logger, p *Proc) {
	var exited <-chan struct{}
	if p.wl != nil {
		exited = p.wl.done
	}

	quantum := time.NewTimer(t.cfg.TickQuantum)
	defer quantum.Stop()

	select {
	case <-exited:
		t.Lock(cpu)
		if p.State == Running {
			t.Exit(cpu, log, p)
		}
		t.Unlock(cpu)

	case <-quantum.C:
		t.Lock(cpu)
		if p.wl != nil {
			p.wl.pause()
		}
		switch {
		case p.Killed:
			// Killed while queued or sleeping (or a logical record with
			// no real process to signal): the scheduler loop retires it
			// at the end of this quantum; Exit tears down any workload.
			t.Exit(cpu, log, p)
		case p.State == Running:
			t.requeueAfterRunning(cpu, p)
		}
		t.Unlock(cpu)

	case <-ctx.Done():
		t.Lock(cpu)
		if p.wl != nil {
			p.wl.pause()
		}
		t.Unlock(cpu)
	}
}
