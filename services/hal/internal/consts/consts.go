// services/hal/internal/consts/consts.go
package consts

import "dhtcode-go/types"

// Top-level topics
const (
	TokConfig     = "config"
	TokHAL        = "hal"
	TokCapability = "capability"
	TokInfo       = "info"
	TokState      = "state"
	TokValue      = "value"
	TokControl    = "control"
)

// Control verbs
const (
	CtrlReadNow = "read_now"
	CtrlSetRate = "set_rate"
	CtrlRaw     = "raw"
)

// Capability kinds
const (
	KindTemperature = string(types.KindTemperature)
	KindHumidity    = string(types.KindHumidity)
)

// Device types
const (
	TypeDHT11 = "dht11"
	TypeDHT22 = "dht22"
)

// Service limits
const (
	MinPeriodMs = 200
	MaxPeriodMs = 3_600_000
)
