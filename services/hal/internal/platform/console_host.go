//go:build !rp2040 && !rp2350

package platform

import (
	"io"
	"os"
)

// DefaultConsole returns stdout; baud is ignored on host builds.
func DefaultConsole(uint32) io.Writer { return os.Stdout }
