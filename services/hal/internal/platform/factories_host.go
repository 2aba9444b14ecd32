//go:build !rp2040 && !rp2350

package platform

import (
	"sync"

	"dhtcode-go/drivers/dht/dhtsim"
	"dhtcode-go/services/hal/internal/halcore"
)

// simGPIO drives a simulated sensor line.
type simGPIO struct {
	n    int
	line *dhtsim.Line
}

func (s *simGPIO) Number() int { return s.n }

// The simulated line only models the pull-up; other pulls read as released.
func (s *simGPIO) ConfigureInput(halcore.Pull) error {
	return s.line.ConfigureInputPullUp()
}

func (s *simGPIO) ConfigureOutput(initial bool) error { return s.line.ConfigureOutput(initial) }
func (s *simGPIO) Set(level bool)                     { s.line.Set(level) }
func (s *simGPIO) Get() bool                          { return s.line.Get() }

// SimPins hands out simulated DHT lines, one per pin number, created on
// first use with the factory's default frame.
type SimPins struct {
	mu    sync.Mutex
	frame [5]byte
	max   int
	pins  map[int]*simGPIO
}

// NewSimPins returns a factory for pins 0..max answering with frame.
func NewSimPins(max int, frame [5]byte) *SimPins {
	return &SimPins{frame: frame, max: max, pins: map[int]*simGPIO{}}
}

func (f *SimPins) ByNumber(n int) (halcore.GPIOPin, bool) {
	if n < 0 || n > f.max {
		return nil, false
	}
	return f.pin(n), true
}

// Line returns the simulated line behind pin n, for fault injection.
func (f *SimPins) Line(n int) *dhtsim.Line { return f.pin(n).line }

func (f *SimPins) pin(n int) *simGPIO {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pins[n]
	if !ok {
		p = &simGPIO{n: n, line: dhtsim.New(f.frame)}
		f.pins[n] = p
	}
	return p
}

// DefaultFrame is 45.3 %RH, 23.0 °C in DHT22 encoding.
var DefaultFrame = [5]byte{0x01, 0xC5, 0x00, 0xE6, 0xAC}

// DefaultPinFactory returns simulated pins on host builds.
func DefaultPinFactory() halcore.PinFactory { return NewSimPins(29, DefaultFrame) }
