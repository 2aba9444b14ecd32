//go:build rp2040 || rp2350

package platform

import (
	"io"
	"machine"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
)

// DefaultConsole configures UART0 on GP0/GP1 and returns it as the
// diagnostic writer.
func DefaultConsole(baud uint32) io.Writer {
	if baud == 0 {
		baud = 115200
	}
	_ = uartx.UART0.Configure(uartx.UARTConfig{
		BaudRate: baud,
		TX:       machine.Pin(0),
		RX:       machine.Pin(1),
	})
	return uartx.UART0
}
