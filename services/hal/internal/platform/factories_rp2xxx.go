//go:build rp2040 || rp2350

package platform

import (
	"machine"

	"dhtcode-go/services/hal/internal/halcore"
)

type rp2GPIO struct {
	p machine.Pin
	n int
}

func (r *rp2GPIO) Number() int { return r.n }

func (r *rp2GPIO) ConfigureInput(pull halcore.Pull) error {
	var mode machine.PinMode
	switch pull {
	case halcore.PullUp:
		mode = machine.PinInputPullup
	case halcore.PullDown:
		mode = machine.PinInputPulldown
	default:
		mode = machine.PinInput
	}
	r.p.Configure(machine.PinConfig{Mode: mode})
	return nil
}

func (r *rp2GPIO) ConfigureOutput(initial bool) error {
	r.p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	r.p.Set(initial)
	return nil
}

func (r *rp2GPIO) Set(b bool) { r.p.Set(b) }
func (r *rp2GPIO) Get() bool  { return r.p.Get() }

type rp2Pins struct {
	max  int
	pins map[int]*rp2GPIO
}

// ByNumber returns the same handle for repeated lookups of a pin.
func (f *rp2Pins) ByNumber(n int) (halcore.GPIOPin, bool) {
	if n < 0 || n > f.max {
		return nil, false
	}
	if p, ok := f.pins[n]; ok {
		return p, true
	}
	p := &rp2GPIO{p: machine.Pin(n), n: n}
	f.pins[n] = p
	return p, true
}

// DefaultPinFactory exposes GPIO0..GPIO29 (RP2040) or GPIO0..GPIO47 (RP2350B).
func DefaultPinFactory() halcore.PinFactory {
	return &rp2Pins{max: maxGPIO, pins: map[int]*rp2GPIO{}}
}
