// services/hal/hal.go
package hal

import (
	"context"
	"io"

	"dhtcode-go/bus"
	"dhtcode-go/services/hal/internal/halcore"
	"dhtcode-go/services/hal/internal/platform"
	"dhtcode-go/services/hal/internal/service"

	// Register device builders.
	_ "dhtcode-go/services/hal/internal/devices/dht"
)

// Options overrides the platform defaults. Zero fields keep the default.
type Options struct {
	Pins halcore.PinFactory
	IRQ  halcore.IRQMasker
}

// Run starts the HAL on conn with the current target's pins and interrupt
// masker and blocks until ctx is cancelled.
func Run(ctx context.Context, conn *bus.Connection) {
	RunWith(ctx, conn, Options{})
}

// RunWith is Run with explicit pin and interrupt providers.
func RunWith(ctx context.Context, conn *bus.Connection, opts Options) {
	p := platform.Default()
	if opts.Pins != nil {
		p.Pins = opts.Pins
	}
	if opts.IRQ != nil {
		p.IRQ = opts.IRQ
	}
	service.New(conn, p.Pins, p.IRQ).Run(ctx)
}

// Console returns the target's diagnostic writer.
func Console(baud uint32) io.Writer { return platform.DefaultConsole(baud) }
