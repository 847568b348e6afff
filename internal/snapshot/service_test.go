package snapshot

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/stridekernd/stridekernd/internal/kernel"
)

func newTestKernel(t *testing.T) *kernel.Kernel {
	t.Helper()
	return kernel.NewKernel(kernel.Config{NProc: 8, NCPU: 1}, zap.NewNop())
}

func TestGetBuildsAndCaches(t *testing.T) {
	k := newTestKernel(t)
	if _, err := k.Fork("a", 10, -1, nil); err != nil {
		t.Fatalf("Fork: %v", err)
	}

	svc := NewService(zap.NewNop(), k, nil, Options{TTL: 50 * time.Millisecond})

	first, err := svc.Get(context.Background())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if first.CacheHit {
		t.Error("first Get should not be a cache hit")
	}
	if len(first.Snapshot.Procs) != 2 { // init + the forked record
		t.Errorf("procs = %d, want 2", len(first.Snapshot.Procs))
	}

	second, err := svc.Get(context.Background())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !second.CacheHit {
		t.Error("second Get within the TTL should be a cache hit")
	}
}

func TestInvalidateForcesRebuild(t *testing.T) {
	k := newTestKernel(t)
	svc := NewService(zap.NewNop(), k, nil, Options{TTL: time.Minute})

	if _, err := svc.Get(context.Background()); err != nil {
		t.Fatalf("Get: %v", err)
	}
	svc.Invalidate()

	result, err := svc.Get(context.Background())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if result.CacheHit {
		t.Error("Get after Invalidate should rebuild, not hit cache")
	}
}

func TestQueueOrderMatchesDispatchOrder(t *testing.T) {
	k := newTestKernel(t)
	slow, err := k.Fork("slow", 1, -1, nil)
	if err != nil {
		t.Fatalf("Fork: %v", err)
	}
	fast, err := k.Fork("fast", 1000, -1, nil)
	if err != nil {
		t.Fatalf("Fork: %v", err)
	}
	slowPID, fastPID := slow.PID, fast.PID

	svc := NewService(zap.NewNop(), k, nil, Options{})
	result, err := svc.Get(context.Background())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(result.Snapshot.Queue) != 2 {
		t.Fatalf("queue length = %d, want 2", len(result.Snapshot.Queue))
	}
	// Both start at pass 0, so the scheduler dispatches the lower pid first.
	if result.Snapshot.Queue[0] != slowPID || result.Snapshot.Queue[1] != fastPID {
		t.Errorf("queue = %v, want [%d %d]", result.Snapshot.Queue, slowPID, fastPID)
	}
}
