package types

// ------------------------
// Capability kinds
// ------------------------

type Kind string

const (
	KindTemperature Kind = "temperature"
	KindHumidity    Kind = "humidity"
)

// CapabilityAddress identifies a public capability on the bus.
type CapabilityAddress struct {
	Kind Kind `json:"kind"`
	ID   int  `json:"id"`
}
