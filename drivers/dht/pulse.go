package dht

// Cycles is a pulse width in busy-wait loop iterations. It is a relative
// measure: both halves of a bit are counted by the same loop.
type Cycles uint32

// TimedOut marks a pulse that reached the cycle budget.
const TimedOut Cycles = ^Cycles(0)

// expectPulse counts iterations while the line stays at level. It returns
// TimedOut if the count reaches the cycle budget before the level changes.
func (d *Device) expectPulse(level bool) Cycles {
	return measure(d.pin, level, d.cfg.CycleBudget)
}

// waitLow spins until the line goes low, bounded by budget.
func waitLow(p Pin, budget uint32) Cycles {
	return measure(p, true, budget)
}

func measure(p Pin, level bool, budget uint32) Cycles {
	var n uint32
	for p.Get() == level {
		n++
		if n >= budget {
			return TimedOut
		}
	}
	return Cycles(n)
}
