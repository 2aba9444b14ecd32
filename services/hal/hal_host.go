//go:build !rp2040 && !rp2350

package hal

import "dhtcode-go/services/hal/internal/platform"

// SimOptions backs every pin with a simulated sensor answering frame. The
// returned pins give access to each line for fault injection.
func SimOptions(frame [5]byte) (Options, *platform.SimPins) {
	pins := platform.NewSimPins(63, frame)
	return Options{Pins: pins}, pins
}

// PeriphOptions uses the host's GPIO through periph.io.
func PeriphOptions() (Options, error) {
	pins, err := platform.PeriphPinFactory()
	if err != nil {
		return Options{}, err
	}
	return Options{Pins: pins}, nil
}
