package kernel

import "testing"

func TestStride(t *testing.T) {
	cases := []struct {
		tickets int
		want    int64
	}{
		{1, StrideMax},
		{2, StrideMax / 2},
		{StrideMax, 1},
	}
	for _, c := range cases {
		if got := Stride(c.tickets); got != c.want {
			t.Errorf("Stride(%d) = %d, want %d", c.tickets, got, c.want)
		}
	}
}

func TestStrideZeroTicketsPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Stride(0): expected panic, got none")
		}
	}()
	Stride(0)
}

func TestRequeueAfterRunningAdvancesPass(t *testing.T) {
	tbl, cpu := newLockedTable(t, 4)

	p := tbl.allocRecord(cpu)
	p.Stride = 7
	p.Pass = 100
	tbl.enqueue(cpu, p)
	if tbl.dispatch(cpu) != p {
		t.Fatal("dispatch did not return the only queued record")
	}

	tbl.requeueAfterRunning(cpu, p)

	if p.Pass != 107 {
		t.Errorf("pass after requeue = %d, want 107", p.Pass)
	}
	if p.State != Runnable {
		t.Errorf("state after requeue = %s, want RUNNABLE", p.State)
	}
}

func TestRebaseNoopWhenTailBelowPassMax(t *testing.T) {
	tbl, cpu := newLockedTable(t, 4)

	a := tbl.allocRecord(cpu)
	a.Pass = 1000
	b := tbl.allocRecord(cpu)
	b.Pass = 1000 + DistanceMax + 50

	tbl.enqueue(cpu, a)
	tbl.enqueue(cpu, b)

	tbl.Rebase(cpu, nil)

	if a.Pass != 1000 {
		t.Errorf("head pass after no-op rebase = %d, want unchanged 1000", a.Pass)
	}
	if b.Pass != 1000+DistanceMax+50 {
		t.Errorf("tail pass after no-op rebase = %d, want unchanged %d", b.Pass, 1000+DistanceMax+50)
	}
}

func TestRebaseSubtractsHeadAndClamps(t *testing.T) {
	tbl, cpu := newLockedTable(t, 4)

	a := tbl.allocRecord(cpu)
	a.Pass = 1000
	b := tbl.allocRecord(cpu)
	b.Pass = PassMax + DistanceMax + 50

	tbl.enqueue(cpu, a)
	tbl.enqueue(cpu, b)

	tbl.Rebase(cpu, nil)

	if a.Pass != 0 {
		t.Errorf("head pass after rebase = %d, want 0", a.Pass)
	}
	if b.Pass != DistanceMax {
		t.Errorf("second record's pass after rebase = %d, want clamped to %d", b.Pass, DistanceMax)
	}
}

func TestRebaseIgnoresSleepingRecords(t *testing.T) {
	tbl, cpu := newLockedTable(t, 4)

	queued := tbl.allocRecord(cpu)
	queued.Pass = PassMax + 500
	tbl.enqueue(cpu, queued)

	sleeper := tbl.allocRecord(cpu)
	transition(sleeper, Runnable)
	transition(sleeper, Running)
	sleeper.Pass = 9999
	tbl.Sleep(cpu, sleeper, ChanOf(sleeper))

	tbl.Rebase(cpu, nil)

	if sleeper.Pass != 9999 {
		t.Errorf("sleeping record's pass changed by rebase: got %d, want unchanged 9999", sleeper.Pass)
	}
}
