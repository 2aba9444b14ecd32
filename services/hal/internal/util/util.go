// services/hal/internal/util/util.go
package util

import (
	"encoding/json"
	"time"

	"dhtcode-go/services/hal/internal/consts"
	"dhtcode-go/x/mathx"
)

func ResetTimer(t *time.Timer, d time.Duration) {
	if d < 0 {
		d = 0
	}
	if !t.Stop() {
		DrainTimer(t)
	}
	t.Reset(d)
}

func DrainTimer(t *time.Timer) {
	select {
	case <-t.C:
	default:
	}
}

// DecodeJSON converts loosely typed params (raw JSON, a JSON string, a map
// or an already typed struct) into dst.
func DecodeJSON[T any](src any, dst *T) error {
	switch v := src.(type) {
	case nil:
		return nil
	case T:
		*dst = v
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		return json.Unmarshal(b, dst)
	}
}

// ClampPeriod limits a sampling period to the service bounds.
func ClampPeriod(d time.Duration) time.Duration {
	return mathx.Clamp(d, consts.MinPeriodMs*time.Millisecond, consts.MaxPeriodMs*time.Millisecond)
}
