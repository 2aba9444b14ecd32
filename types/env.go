package types

// ------------------------
// Temperature & humidity
// ------------------------

type SensorInfo struct {
	Sensor string  `json:"sensor"` // "dht11", "dht22"
	Pin    int     `json:"pin"`
	Unit   string  `json:"unit"`
	Prec   float32 `json:"precision"`
}

type TemperatureValue struct {
	// Tenths of °C (e.g. 231 => 23.1°C).
	DeciC int16 `json:"deci_c"`
	TsMs  int64 `json:"ts_ms"`
}

type HumidityValue struct {
	// Hundredths of %RH (0..10000 for 0..100.00%).
	RHx100 uint16 `json:"rh_x100"`
	TsMs   int64  `json:"ts_ms"`
}

// DHTFrame is the last raw transmission accepted by a DHT sensor.
type DHTFrame struct {
	Bytes  [5]byte `json:"bytes"`
	ReadMs int64   `json:"read_ms"` // monotonic ms at the end of the read
}

// DHTParams configures a "dht11" or "dht22" HAL device.
type DHTParams struct {
	Pin           int    `json:"pin"`
	MinIntervalMs uint32 `json:"min_interval_ms,omitempty"`
	CycleBudget   uint32 `json:"cycle_budget,omitempty"`
	AckBudget     uint32 `json:"ack_budget,omitempty"`
	StartLowMs    uint16 `json:"start_low_ms,omitempty"`
	EarlyChecksum bool   `json:"early_checksum,omitempty"`
	SampleEveryMs uint32 `json:"sample_every_ms,omitempty"`
}
