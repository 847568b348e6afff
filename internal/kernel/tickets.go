package kernel

import "go.uber.org/zap"

// SetTickets implements the set_tickets syscall (C6): validates the
// requested ticket count, recomputes p's stride, and leaves its pass
// untouched — an in-flight process does not get a free pass adjustment
// just because its share changed, it only runs faster or slower from
// this point on (spec.md §4.13). endTicks < 1 leaves p's existing
// lifetime cap untouched, matching spec.md §4.6 ("if end_ticks >= 1,
// set caller's end_ticks"). Requires the table lock held.
//
// Grounded on processmgr.ProcessManager2.UpdateLimits's validate, log,
// apply shape.
func (t *Table) SetTickets(cpu *CPU, log *zap.Logger, p *Proc, tickets int, endTicks int64) error {
	t.mustHold(cpu)

	if tickets < 1 || tickets > StrideMax {
		return ErrInvalidTickets
	}

	old := p.Tickets
	if endTicks >= 1 {
		p.EndTicks = endTicks
	}
	if old == tickets {
		return nil
	}

	log.Info("set_tickets",
		zap.Int64("pid", p.PID),
		zap.Int("old_tickets", old),
		zap.Int("new_tickets", tickets),
	)

	p.Tickets = tickets
	p.Stride = Stride(tickets)
	return nil
}
