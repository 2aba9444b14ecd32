package service

import (
	"context"
	"testing"
	"time"

	"dhtcode-go/bus"
	"dhtcode-go/drivers/dht/dhtsim"
	"dhtcode-go/services/hal/internal/consts"
	"dhtcode-go/services/hal/internal/platform"
	"dhtcode-go/types"

	_ "dhtcode-go/services/hal/internal/devices/dht"
)

type nopIRQ struct{}

func (nopIRQ) Disable() uintptr { return 0 }
func (nopIRQ) Restore(uintptr)  {}

type rig struct {
	conn *bus.Connection
	pins *platform.SimPins
}

func startService(t *testing.T) *rig {
	t.Helper()
	b := bus.NewBus(16)
	conn := b.NewConnection("test")
	pins := platform.NewSimPins(29, platform.DefaultFrame)

	st := conn.Subscribe(topicState)
	defer conn.Unsubscribe(st)

	s := New(conn, pins, nopIRQ{})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go s.Run(ctx)

	// The service subscribes to config before announcing idle.
	if m, ok := recvWithin(t, st.Channel(), 500*time.Millisecond); !ok || m.Payload.(types.HALState).Level != "idle" {
		t.Fatal("did not receive initial idle hal/state")
	}
	return &rig{conn: conn, pins: pins}
}

func (r *rig) configure(t *testing.T, wantLevel string, devs ...types.HALDevice) types.HALState {
	t.Helper()
	st := r.conn.Subscribe(topicState)
	defer r.conn.Unsubscribe(st)
	// Discard the retained state from an earlier step.
	select {
	case <-st.Channel():
	default:
	}
	r.conn.Publish(r.conn.NewMessage(topicConfigHAL, types.HALConfig{Devices: devs}, false))
	deadline := time.After(time.Second)
	for {
		select {
		case m := <-st.Channel():
			hs := m.Payload.(types.HALState)
			if hs.Level == wantLevel {
				return hs
			}
		case <-deadline:
			t.Fatalf("timeout waiting for hal state %q", wantLevel)
		}
	}
}

func (r *rig) request(t *testing.T, kind string, id int, method string, payload any) any {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	reply, err := r.conn.RequestWait(ctx, r.conn.NewMessage(
		bus.T(consts.TokHAL, consts.TokCapability, kind, id, consts.TokControl, method), payload, false))
	if err != nil {
		t.Fatalf("%s request failed: %v", method, err)
	}
	return reply.Payload
}

func recvWithin[T any](t *testing.T, ch <-chan T, d time.Duration) (T, bool) {
	t.Helper()
	var zero T
	select {
	case v := <-ch:
		return v, true
	case <-time.After(d):
		return zero, false
	}
}

func dht22(id string, pin int) types.HALDevice {
	return types.HALDevice{ID: id, Type: consts.TypeDHT22, Params: types.DHTParams{Pin: pin, MinIntervalMs: 1}}
}

// ---- Tests ----

func TestServicePublishesInfoAndValues(t *testing.T) {
	r := startService(t)

	valT := r.conn.Subscribe(capTopic(consts.KindTemperature, 0, consts.TokValue))
	valH := r.conn.Subscribe(capTopic(consts.KindHumidity, 0, consts.TokValue))

	r.configure(t, "ready", dht22("dht0", 2))

	info := r.conn.Subscribe(capTopic(consts.KindHumidity, 0, consts.TokInfo))
	if m, ok := recvWithin(t, info.Channel(), 200*time.Millisecond); !ok {
		t.Fatal("no retained info")
	} else if si := m.Payload.(types.SensorInfo); si.Sensor != "dht22" || si.Pin != 2 {
		t.Fatalf("info = %+v", si)
	}

	m, ok := recvWithin(t, valT.Channel(), time.Second)
	if !ok {
		t.Fatal("timeout waiting for temperature value")
	}
	if tv := m.Payload.(types.TemperatureValue); tv.DeciC != 230 {
		t.Fatalf("DeciC = %d, want 230", tv.DeciC)
	}
	m, ok = recvWithin(t, valH.Channel(), time.Second)
	if !ok {
		t.Fatal("timeout waiting for humidity value")
	}
	if hv := m.Payload.(types.HumidityValue); hv.RHx100 != 4530 {
		t.Fatalf("RHx100 = %d, want 4530", hv.RHx100)
	}
}

func TestServiceControls(t *testing.T) {
	r := startService(t)
	r.configure(t, "ready", dht22("dht0", 3))

	valT := r.conn.Subscribe(capTopic(consts.KindTemperature, 0, consts.TokValue))
	if ack, ok := r.request(t, consts.KindTemperature, 0, consts.CtrlReadNow, nil).(types.ReadNowAck); !ok || !ack.OK {
		t.Fatal("read_now not acknowledged")
	}
	if _, ok := recvWithin(t, valT.Channel(), time.Second); !ok {
		t.Fatal("read_now produced no value")
	}

	raw, ok := r.request(t, consts.KindTemperature, 0, consts.CtrlRaw, nil).(types.DHTFrame)
	if !ok || raw.Bytes != platform.DefaultFrame {
		t.Fatalf("raw reply = %+v", raw)
	}

	ack, ok := r.request(t, consts.KindHumidity, 0, consts.CtrlSetRate, types.SetRate{Period: 50 * time.Millisecond}).(types.SetRateAck)
	if !ok || !ack.OK || ack.Period != 200*time.Millisecond {
		t.Fatalf("set_rate ack = %+v", ack)
	}
	ack, ok = r.request(t, consts.KindHumidity, 0, consts.CtrlSetRate, map[string]any{"period": int64(3 * time.Hour)}).(types.SetRateAck)
	if !ok || ack.Period != time.Hour {
		t.Fatalf("set_rate ack = %+v", ack)
	}
	if er, ok := r.request(t, consts.KindHumidity, 0, consts.CtrlSetRate, types.SetRate{}).(types.ErrorReply); !ok || er.Error != "invalid_period" {
		t.Fatalf("zero period reply = %+v", er)
	}

	if er, ok := r.request(t, consts.KindHumidity, 9, consts.CtrlReadNow, nil).(types.ErrorReply); !ok || er.Error != "unknown_capability" {
		t.Fatalf("unknown cap reply = %+v", er)
	}
	if er, ok := r.request(t, consts.KindHumidity, 0, "reboot", nil).(types.ErrorReply); !ok || er.Error != "unsupported" {
		t.Fatalf("unsupported reply = %+v", er)
	}
}

func TestServiceReportsReadErrors(t *testing.T) {
	r := startService(t)
	r.pins.Line(5).SetFault(dhtsim.FaultTruncated, 12)
	r.configure(t, "ready", dht22("dht0", 5))

	st := r.conn.Subscribe(capTopic(consts.KindTemperature, 0, consts.TokState))
	deadline := time.After(time.Second)
	for {
		select {
		case m := <-st.Channel():
			cs := m.Payload.(types.CapabilityState)
			if cs.Link != types.LinkDegraded {
				continue
			}
			if cs.Error != "pulse_timeout" {
				t.Fatalf("state error = %q, want pulse_timeout", cs.Error)
			}
			return
		case <-deadline:
			t.Fatal("timeout waiting for degraded state")
		}
	}
}

func TestServiceApplyConfigRemovesDevices(t *testing.T) {
	r := startService(t)
	r.configure(t, "ready", dht22("a", 6), dht22("b", 7))

	// Drop "a"; its capabilities go down and their info is cleared.
	r.configure(t, "ready", dht22("b", 7))

	st := r.conn.Subscribe(capTopic(consts.KindTemperature, 0, consts.TokState))
	if m, ok := recvWithin(t, st.Channel(), 200*time.Millisecond); !ok {
		t.Fatal("no retained state for removed device")
	} else if cs := m.Payload.(types.CapabilityState); cs.Link != types.LinkDown {
		t.Fatalf("removed device link = %q, want down", cs.Link)
	}
	info := r.conn.Subscribe(capTopic(consts.KindTemperature, 0, consts.TokInfo))
	if m, ok := recvWithin(t, info.Channel(), 50*time.Millisecond); ok {
		t.Fatalf("info still retained: %+v", m.Payload)
	}

	if er, ok := r.request(t, consts.KindTemperature, 0, consts.CtrlReadNow, nil).(types.ErrorReply); !ok || er.Error != "unknown_capability" {
		t.Fatalf("reply for removed device = %+v", er)
	}
	if ack, ok := r.request(t, consts.KindTemperature, 1, consts.CtrlReadNow, nil).(types.ReadNowAck); !ok || !ack.OK {
		t.Fatal("remaining device not reachable")
	}
}

func TestServiceRejectsSharedPin(t *testing.T) {
	r := startService(t)
	hs := r.configure(t, "error", dht22("a", 8), dht22("b", 8))
	if hs.Status != "apply_config_failed" || hs.Error != "b: pin_in_use" {
		t.Fatalf("state = %+v", hs)
	}

	// The first device is still live.
	if ack, ok := r.request(t, consts.KindTemperature, 0, consts.CtrlReadNow, nil).(types.ReadNowAck); !ok || !ack.OK {
		t.Fatal("first device not reachable")
	}
}

func TestServiceUnknownType(t *testing.T) {
	r := startService(t)
	hs := r.configure(t, "error", types.HALDevice{ID: "x", Type: "bme280"})
	if hs.Error != "x: unsupported" {
		t.Fatalf("state = %+v", hs)
	}
}
