package kernel

import "strconv"

func pidString(pid int64) string { return strconv.FormatInt(pid, 10) }

// State is a process record's position in the lifecycle of spec.md §4.4.
type State int

const (
	Unused State = iota
	Embryo
	Sleeping
	Runnable
	Running
	Zombie
)

func (s State) String() string {
	switch s {
	case Unused:
		return "UNUSED"
	case Embryo:
		return "EMBRYO"
	case Sleeping:
		return "SLEEPING"
	case Runnable:
		return "RUNNABLE"
	case Running:
		return "RUNNING"
	case Zombie:
		return "ZOMBIE"
	default:
		return "UNKNOWN"
	}
}

// legalEdges enumerates spec.md §4.4's state diagram. Any transition
// not listed here is a programming error, not a runtime condition.
var legalEdges = map[State]map[State]bool{
	Unused:   {Embryo: true},
	Embryo:   {Runnable: true},
	Runnable: {Running: true},
	Running:  {Runnable: true, Sleeping: true, Zombie: true},
	Sleeping: {Runnable: true},
	Zombie:   {Unused: true},
}

// transition moves p from its current state to next, panicking if the
// edge is not one of spec.md §4.4's legal transitions. Grounded on
// processmgr.slotPool's panic-on-protocol-violation idiom: an illegal
// edge means a caller broke the scheduler's preconditions, not that a
// recoverable runtime condition occurred.
func transition(p *Proc, next State) {
	if !legalEdges[p.State][next] {
		invariant("illegal state transition " + p.State.String() + " -> " + next.String() + " for pid " + pidString(p.PID))
	}
	p.State = next
}
