//go:build rp2040 || rp2350

package platform

import (
	"runtime/interrupt"

	"dhtcode-go/services/hal/internal/halcore"
)

type rp2IRQ struct{}

func (rp2IRQ) Disable() uintptr      { return uintptr(interrupt.Disable()) }
func (rp2IRQ) Restore(state uintptr) { interrupt.Restore(interrupt.State(state)) }

// DefaultIRQMasker masks all interrupts on the current core.
func DefaultIRQMasker() halcore.IRQMasker { return rp2IRQ{} }
