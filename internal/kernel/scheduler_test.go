package kernel

import (
	"context"
	"testing"
	"time"
)

func TestRunCPURequeuesLogicalRecordEachQuantum(t *testing.T) {
	k := NewKernel(Config{NProc: 4, NCPU: 1, TickQuantum: 5 * time.Millisecond}, testLogger(t))

	p, err := k.Fork("busy-loop", 10, -1, nil)
	if err != nil {
		t.Fatalf("Fork: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	cpu := NewCPU(0)
	done := make(chan struct{})
	go func() {
		k.Table.RunCPU(ctx, cpu, testLogger(t))
		close(done)
	}()

	<-done

	if p.Pass == 0 {
		t.Error("a logical record with no workload should still accrue pass across quanta")
	}
}

func TestRunCPURetiresKilledLogicalRecord(t *testing.T) {
	k := NewKernel(Config{NProc: 4, NCPU: 1, TickQuantum: 5 * time.Millisecond}, testLogger(t))

	p, err := k.Fork("to-be-killed", 10, -1, nil)
	if err != nil {
		t.Fatalf("Fork: %v", err)
	}
	if err := k.Kill(p.PID); err != nil {
		t.Fatalf("Kill: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	cpu := NewCPU(0)
	done := make(chan struct{})
	go func() {
		k.Table.RunCPU(ctx, cpu, testLogger(t))
		close(done)
	}()

	// Retiring means Exit: the record stays visible as ZOMBIE until a
	// Wait reaps it.
	deadline := time.After(500 * time.Millisecond)
	for {
		if rec, ok := k.ByPID(p.PID); ok && rec.State == Zombie {
			break
		}
		select {
		case <-deadline:
			t.Fatal("killed logical record was never retired by the scheduler loop")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	<-done
}
