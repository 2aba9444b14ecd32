package types

import "time"

// ------------------------
// HAL configuration (topic "config/hal")
// ------------------------

type HALConfig struct {
	Devices []HALDevice `json:"devices"`
}

type HALDevice struct {
	ID     string `json:"id"`               // logical device id
	Type   string `json:"type"`             // e.g. "dht22"
	Params any    `json:"params,omitempty"` // device-specific params (JSON-like)
}

// ------------------------
// Common HAL state (retained)
// ------------------------

type HALState struct {
	Level  string    `json:"level"`  // "idle", "ready", "error", "stopped"
	Status string    `json:"status"` // short code
	Error  string    `json:"error,omitempty"`
	TS     time.Time `json:"ts"`
}

// Link is the link/state reported for a capability.
type Link string

const (
	LinkUp       Link = "up"
	LinkDown     Link = "down"
	LinkDegraded Link = "degraded"
)

type CapabilityState struct {
	Link  Link      `json:"link"`
	TS    time.Time `json:"ts"`
	Error string    `json:"error,omitempty"` // errcode.Code
}

// ------------------------
// Controls and replies
// ------------------------

type SetRate struct {
	Period time.Duration `json:"period"`
}

type SetRateAck struct {
	OK     bool          `json:"ok"`
	Period time.Duration `json:"period"`
}

type ReadNowAck struct {
	OK bool `json:"ok"`
}

type ErrorReply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}
