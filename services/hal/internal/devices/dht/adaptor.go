// services/hal/internal/devices/dht/adaptor.go
package dhtdev

import (
	"context"
	"sync"
	"time"

	"dhtcode-go/drivers/dht"
	"dhtcode-go/errcode"
	"dhtcode-go/services/hal/internal/consts"
	"dhtcode-go/services/hal/internal/halcore"
	"dhtcode-go/types"
	"dhtcode-go/x/mathx"
	"dhtcode-go/x/timex"
)

type adaptor struct {
	id    string
	model dht.Model
	pin   int

	mu  sync.Mutex // Collect runs on the worker, Control on the service
	dev *dht.Device
}

func newAdaptor(id string, model dht.Model, pin int, dev *dht.Device) *adaptor {
	return &adaptor{id: id, model: model, pin: pin, dev: dev}
}

func (a *adaptor) ID() string { return a.id }

func (a *adaptor) Capabilities() []halcore.CapInfo {
	prec := float32(0.1)
	if a.model == dht.DHT11 {
		prec = 1
	}
	return []halcore.CapInfo{
		{Kind: consts.KindTemperature, Info: types.SensorInfo{Sensor: a.model.String(), Pin: a.pin, Unit: "C", Prec: prec}},
		{Kind: consts.KindHumidity, Info: types.SensorInfo{Sensor: a.model.String(), Pin: a.pin, Unit: "%RH", Prec: prec}},
	}
}

// Trigger does nothing: the whole transaction runs inside Collect so that
// the start pulse and the capture happen back to back.
func (a *adaptor) Trigger(ctx context.Context) (time.Duration, error) { return 0, nil }

func (a *adaptor) Collect(ctx context.Context) (halcore.Sample, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, err := a.dev.Read(); err != nil {
		return nil, errcode.Wrap(a.id, err)
	}

	decic := mathx.Clamp(a.dev.DeciCelsius(), -32768, 32767)
	rhx100 := mathx.Clamp(a.dev.DeciRelHumidity()*10, 0, 10000)

	ts := timex.NowMs()
	return halcore.Sample{
		{Kind: consts.KindTemperature, Payload: types.TemperatureValue{DeciC: int16(decic), TsMs: ts}, TsMs: ts},
		{Kind: consts.KindHumidity, Payload: types.HumidityValue{RHx100: uint16(rhx100), TsMs: ts}, TsMs: ts},
	}, nil
}

func (a *adaptor) Control(kind, method string, payload any) (any, error) {
	switch method {
	case consts.CtrlRaw:
		a.mu.Lock()
		defer a.mu.Unlock()
		if !a.dev.HasFrame() {
			return nil, errcode.NoData
		}
		return types.DHTFrame{Bytes: [5]byte(a.dev.Frame()), ReadMs: a.dev.LastReadMs()}, nil
	default:
		return nil, halcore.ErrUnsupported
	}
}
