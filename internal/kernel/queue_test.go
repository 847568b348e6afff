package kernel

import "testing"

func newLockedTable(t *testing.T, n int) (*Table, *CPU) {
	t.Helper()
	tbl := NewTable(Config{NProc: n, NCPU: 1})
	cpu := NewCPU(0)
	tbl.Lock(cpu)
	t.Cleanup(func() { tbl.Unlock(cpu) })
	return tbl, cpu
}

func TestEnqueueOrdersByPassThenPID(t *testing.T) {
	tbl, cpu := newLockedTable(t, 8)

	mk := func(pid, pass int64) *Proc {
		p := tbl.allocRecord(cpu)
		p.PID = pid // allocRecord's own monotonic pid is irrelevant to this test
		p.Pass = pass
		return p
	}

	a := mk(3, 10)
	b := mk(1, 5)
	c := mk(2, 5)
	d := mk(4, 20)

	tbl.enqueue(cpu, a)
	tbl.enqueue(cpu, b)
	tbl.enqueue(cpu, c)
	tbl.enqueue(cpu, d)

	want := []int64{1, 2, 3, 4} // pass 5 ties broken by pid, then pass 10, then pass 20
	var got []int64
	for p := tbl.peekMin(cpu); p != nil; p = p.next {
		got = append(got, p.PID)
	}
	if len(got) != len(want) {
		t.Fatalf("queue length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: got pid %d, want %d", i, got[i], want[i])
		}
	}
	for _, p := range []*Proc{a, b, c, d} {
		if p.State != Runnable {
			t.Errorf("pid %d: state = %s, want RUNNABLE", p.PID, p.State)
		}
	}
}

func TestDispatchPopsMinimum(t *testing.T) {
	tbl, cpu := newLockedTable(t, 8)

	low := tbl.allocRecord(cpu)
	low.Pass = 1
	high := tbl.allocRecord(cpu)
	high.Pass = 100

	tbl.enqueue(cpu, high)
	tbl.enqueue(cpu, low)

	first := tbl.dispatch(cpu)
	if first != low {
		t.Fatalf("dispatch: got pid %d, want the lower-pass record", first.PID)
	}
	if first.State != Running {
		t.Errorf("dispatched record state = %s, want RUNNING", first.State)
	}
	if tbl.QueueLen(cpu) != 1 {
		t.Errorf("queue length after dispatch = %d, want 1", tbl.QueueLen(cpu))
	}

	second := tbl.dispatch(cpu)
	if second != high {
		t.Fatalf("dispatch: got pid %d, want the remaining record", second.PID)
	}
	if tbl.dispatch(cpu) != nil {
		t.Error("dispatch on empty queue: want nil")
	}
}

func TestDequeueRelinksNeighbors(t *testing.T) {
	tbl, cpu := newLockedTable(t, 8)

	a := tbl.allocRecord(cpu)
	a.Pass = 1
	b := tbl.allocRecord(cpu)
	b.Pass = 2
	c := tbl.allocRecord(cpu)
	c.Pass = 3

	tbl.enqueue(cpu, a)
	tbl.enqueue(cpu, b)
	tbl.enqueue(cpu, c)

	// Removing the middle record must leave a valid two-element list.
	b.State = Running // dequeue doesn't itself require a particular state
	tbl.dequeue(cpu, b)

	if tbl.head != a || tbl.tail != c {
		t.Fatalf("after dequeuing middle: head=%v tail=%v, want a,c", tbl.head.PID, tbl.tail.PID)
	}
	if a.next != c || c.prev != a {
		t.Error("dequeue did not relink neighbors around the removed record")
	}
	if b.prev != nil || b.next != nil {
		t.Error("dequeued record still has dangling links")
	}
}
