//go:build rp2350

package platform

const maxGPIO = 47
