//go:build !rp2040 && !rp2350

package platform

import (
	"runtime"
	"runtime/debug"

	"dhtcode-go/services/hal/internal/halcore"
)

// gcMasker is the closest host equivalent of masking interrupts: the
// goroutine is pinned to its thread and the collector is switched off until
// Restore.
type gcMasker struct{}

func (gcMasker) Disable() uintptr {
	runtime.LockOSThread()
	return uintptr(debug.SetGCPercent(-1))
}

func (gcMasker) Restore(state uintptr) {
	debug.SetGCPercent(int(state))
	runtime.UnlockOSThread()
}

func DefaultIRQMasker() halcore.IRQMasker { return gcMasker{} }
