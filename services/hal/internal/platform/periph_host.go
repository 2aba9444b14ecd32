//go:build !rp2040 && !rp2350

package platform

import (
	"fmt"
	"sync"

	"dhtcode-go/services/hal/internal/halcore"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

type periphGPIO struct {
	n int
	p gpio.PinIO
}

func (g *periphGPIO) Number() int { return g.n }

func (g *periphGPIO) ConfigureInput(pull halcore.Pull) error {
	pp := gpio.Float
	switch pull {
	case halcore.PullUp:
		pp = gpio.PullUp
	case halcore.PullDown:
		pp = gpio.PullDown
	}
	return g.p.In(pp, gpio.NoEdge)
}

func (g *periphGPIO) ConfigureOutput(initial bool) error { return g.p.Out(gpio.Level(initial)) }

func (g *periphGPIO) Set(level bool) { _ = g.p.Out(gpio.Level(level)) }
func (g *periphGPIO) Get() bool      { return g.p.Read() == gpio.High }

// PeriphPins resolves BCM-numbered pins ("GPIO<n>") through periph.io on
// Linux single-board computers.
type PeriphPins struct {
	mu   sync.Mutex
	pins map[int]*periphGPIO
}

var hostInit struct {
	once sync.Once
	err  error
}

// PeriphPinFactory initialises the periph host drivers and returns a pin
// factory backed by them.
func PeriphPinFactory() (*PeriphPins, error) {
	hostInit.once.Do(func() { _, hostInit.err = host.Init() })
	if hostInit.err != nil {
		return nil, hostInit.err
	}
	return &PeriphPins{pins: map[int]*periphGPIO{}}, nil
}

func (f *PeriphPins) ByNumber(n int) (halcore.GPIOPin, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.pins[n]; ok {
		return p, true
	}
	pin := gpioreg.ByName(fmt.Sprintf("GPIO%d", n))
	if pin == nil {
		return nil, false
	}
	p := &periphGPIO{n: n, p: pin}
	f.pins[n] = p
	return p, true
}
