// Package dhtsim simulates the data line of a DHT sensor for host builds and
// tests.
//
// Time is virtual: every Get advances the line by one tick, so a pulse of
// width w is observed as w consecutive reads at one level. The sensor answers
// once per start request (host drives the line low, then releases it).
package dhtsim

import "sync"

// Timing holds pulse widths in ticks.
type Timing struct {
	Release int // pull-up time between host release and the sensor pulling low
	AckLow  int
	AckHigh int
	BitLow  int
	Zero    int // high width of a 0 bit
	One     int // high width of a 1 bit
}

// DefaultTiming approximates the datasheet widths at one tick per µs.
var DefaultTiming = Timing{Release: 30, AckLow: 80, AckHigh: 80, BitLow: 54, Zero: 24, One: 70}

// Pulse is an explicit low/high width pair for one bit.
type Pulse struct{ Low, High int }

// Fault injects a misbehaviour into the next responses.
type Fault uint8

const (
	FaultNone      Fault = iota
	FaultNoAck           // never pulls the line low after the start request
	FaultStuckLow        // pulls the line low and never releases it
	FaultTruncated       // stops after Truncate bits; line floats high
)

// Stats counts pin activity.
type Stats struct {
	Starts     int // start requests answered
	Configures int
	Sets       int
	Gets       int
}

// Line is a simulated sensor data line. It implements dht.Pin.
type Line struct {
	mu sync.Mutex

	frame    [5]byte
	timing   Timing
	bits     []Pulse
	fault    Fault
	truncate int

	output    bool
	driven    bool
	pulledLow bool

	wave  []seg
	pos   int // segment index
	spent int // ticks consumed in current segment

	stats Stats
}

type seg struct {
	level bool
	n     int
}

// New returns a line that answers every start request with frame.
func New(frame [5]byte) *Line {
	return &Line{frame: frame, timing: DefaultTiming}
}

// SetFrame changes the frame sent on the next start request.
func (l *Line) SetFrame(f [5]byte) {
	l.mu.Lock()
	l.frame = f
	l.bits = nil
	l.mu.Unlock()
}

// SetTiming replaces the pulse widths.
func (l *Line) SetTiming(t Timing) {
	l.mu.Lock()
	l.timing = t
	l.mu.Unlock()
}

// SetPulses sends explicit low/high widths instead of encoding a frame.
// Fewer than 40 pulses leaves the line high after the last one.
func (l *Line) SetPulses(p []Pulse) {
	l.mu.Lock()
	l.bits = append([]Pulse(nil), p...)
	l.mu.Unlock()
}

// SetFault arms a fault. For FaultTruncated, n is the number of bits sent.
func (l *Line) SetFault(f Fault, n int) {
	l.mu.Lock()
	l.fault = f
	l.truncate = n
	l.mu.Unlock()
}

// Stats returns a snapshot of pin activity counters.
func (l *Line) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats
}

// ---- dht.Pin ----

func (l *Line) ConfigureOutput(initial bool) error {
	l.mu.Lock()
	l.stats.Configures++
	l.output = true
	l.driven = initial
	if !initial {
		l.pulledLow = true
	}
	l.wave = nil
	l.mu.Unlock()
	return nil
}

func (l *Line) ConfigureInputPullUp() error {
	l.mu.Lock()
	l.stats.Configures++
	wasOut := l.output
	l.output = false
	if wasOut && l.pulledLow {
		l.stats.Starts++
		l.wave = l.response()
		l.pos, l.spent = 0, 0
	}
	l.pulledLow = false
	l.mu.Unlock()
	return nil
}

func (l *Line) Set(level bool) {
	l.mu.Lock()
	l.stats.Sets++
	if l.output {
		l.driven = level
		if !level {
			l.pulledLow = true
		}
	}
	l.mu.Unlock()
}

func (l *Line) Get() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stats.Gets++
	if l.output {
		return l.driven
	}
	for l.pos < len(l.wave) {
		s := &l.wave[l.pos]
		if l.spent < s.n {
			l.spent++
			return s.level
		}
		l.pos++
		l.spent = 0
	}
	return true // idle: pull-up
}

// response builds the waveform for one start request.
func (l *Line) response() []seg {
	t := l.timing
	w := []seg{{true, t.Release}}
	switch l.fault {
	case FaultNoAck:
		return w
	case FaultStuckLow:
		return append(w, seg{false, 1 << 30})
	}
	w = append(w, seg{false, t.AckLow}, seg{true, t.AckHigh})

	pulses := l.bits
	if pulses == nil {
		pulses = make([]Pulse, 0, 40)
		for i := 0; i < 40; i++ {
			high := t.Zero
			if l.frame[i/8]&(0x80>>(i%8)) != 0 {
				high = t.One
			}
			pulses = append(pulses, Pulse{Low: t.BitLow, High: high})
		}
	}
	if l.fault == FaultTruncated && l.truncate < len(pulses) {
		pulses = pulses[:l.truncate]
	}
	for _, p := range pulses {
		w = append(w, seg{false, p.Low}, seg{true, p.High})
	}
	if len(pulses) == 40 {
		// end-of-frame low before the sensor releases the line
		w = append(w, seg{false, t.BitLow})
	}
	return w
}
