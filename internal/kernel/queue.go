package kernel

// The runnable queue (C2) is an intrusive doubly-linked list threaded
// through each Proc's own prev/next fields, ordered ascending by
// (pass, pid) (spec.md §4.2). Queue membership and State == Runnable
// must always agree (invariant I1): enqueue marks the record Runnable as
// it links it, and dispatch moves the record it unlinks to Running;
// dequeue alone leaves State to its caller. All of them run under the
// caller's held table lock.

// less reports whether a should sort before b under the queue's total
// order: pass first, pid breaks ties.
func less(a, b *Proc) bool {
	if a.Pass != b.Pass {
		return a.Pass < b.Pass
	}
	return a.PID < b.PID
}

// enqueue links p into the runnable queue in sorted position and marks
// it Runnable. Requires the table lock held; p must not already be
// linked.
func (t *Table) enqueue(cpu *CPU, p *Proc) {
	t.mustHold(cpu)
	if p.prev != nil || p.next != nil || t.head == p {
		invariant("enqueue: record already linked")
	}

	transition(p, Runnable)

	switch {
	case t.head == nil:
		t.head, t.tail = p, p
	case less(p, t.head):
		p.next = t.head
		t.head.prev = p
		t.head = p
	default:
		cur := t.head
		for cur.next != nil && !less(p, cur.next) {
			cur = cur.next
		}
		p.next = cur.next
		p.prev = cur
		if cur.next != nil {
			cur.next.prev = p
		} else {
			t.tail = p
		}
		cur.next = p
	}
	t.qlen++
	t.cond.Broadcast()
}

// dequeue unlinks p from the runnable queue. Does not change p.State —
// callers that pull a record off to run it transition it to Running
// themselves; callers that kill a queued record transition it however
// the caller's own edge requires. Requires the table lock held; p must
// currently be linked.
func (t *Table) dequeue(cpu *CPU, p *Proc) {
	t.mustHold(cpu)

	if p.prev == nil && p.next == nil && t.head != p {
		invariant("dequeue: record not linked")
	}

	if p.prev != nil {
		p.prev.next = p.next
	} else {
		t.head = p.next
	}
	if p.next != nil {
		p.next.prev = p.prev
	} else {
		t.tail = p.prev
	}
	p.prev, p.next = nil, nil
	t.qlen--
}

// peekMin returns the head of the runnable queue (lowest pass, ties
// broken by pid) without unlinking it, or nil if the queue is empty.
// Requires the table lock held.
func (t *Table) peekMin(cpu *CPU) *Proc {
	t.mustHold(cpu)
	return t.head
}

// dispatch pops the minimum-pass runnable record off the queue and
// transitions it to Running. Requires the table lock held. Returns nil
// if the queue is empty.
func (t *Table) dispatch(cpu *CPU) *Proc {
	t.mustHold(cpu)
	p := t.head
	if p == nil {
		return nil
	}
	t.dequeue(cpu, p)
	transition(p, Running)
	return p
}

// QueueLen returns the number of runnable records currently queued.
// Requires the table lock held.
func (t *Table) QueueLen(cpu *CPU) int {
	t.mustHold(cpu)
	return t.qlen
}
