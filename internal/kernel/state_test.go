package kernel

import "testing"

func TestTransitionLegalEdges(t *testing.T) {
	cases := []struct {
		from, to State
	}{
		{Unused, Embryo},
		{Embryo, Runnable},
		{Runnable, Running},
		{Running, Runnable},
		{Running, Sleeping},
		{Running, Zombie},
		{Sleeping, Runnable},
		{Zombie, Unused},
	}
	for _, c := range cases {
		p := &Proc{PID: 1, State: c.from}
		transition(p, c.to)
		if p.State != c.to {
			t.Errorf("transition(%s -> %s): got %s", c.from, c.to, p.State)
		}
	}
}

func TestTransitionIllegalEdgePanics(t *testing.T) {
	cases := []struct {
		from, to State
	}{
		{Unused, Runnable},
		{Embryo, Running},
		{Runnable, Sleeping},
		{Sleeping, Running},
		{Zombie, Runnable},
		{Running, Embryo},
	}
	for _, c := range cases {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("transition(%s -> %s): expected panic, got none", c.from, c.to)
				}
			}()
			p := &Proc{PID: 1, State: c.from}
			transition(p, c.to)
		}()
	}
}

func TestStateString(t *testing.T) {
	cases := map[State]string{
		Unused:   "UNUSED",
		Embryo:   "EMBRYO",
		Sleeping: "SLEEPING",
		Runnable: "RUNNABLE",
		Running:  "RUNNING",
		Zombie:   "ZOMBIE",
		State(99): "UNKNOWN",
	}
	for s, want := range cases {
		if got := s.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", s, got, want)
		}
	}
}
