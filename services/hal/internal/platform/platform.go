// Package platform supplies the GPIO, interrupt and console primitives the
// HAL needs on each build target.
package platform

import "dhtcode-go/services/hal/internal/halcore"

// Platform bundles the target primitives handed to the HAL service.
type Platform struct {
	Pins halcore.PinFactory
	IRQ  halcore.IRQMasker
}

// Default returns the primitives for the current build target.
func Default() Platform {
	return Platform{Pins: DefaultPinFactory(), IRQ: DefaultIRQMasker()}
}
