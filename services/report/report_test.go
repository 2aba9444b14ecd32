package report

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"dhtcode-go/bus"
	"dhtcode-go/types"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func waitFor(t *testing.T, out *syncBuffer, want string) {
	t.Helper()
	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		if strings.Contains(out.String(), want) {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("output %q does not contain %q", out.String(), want)
}

func start(t *testing.T) (*bus.Connection, *syncBuffer) {
	t.Helper()
	b := bus.NewBus(8)
	out := &syncBuffer{}
	pub := b.NewConnection("pub")

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go New(out).Run(ctx, b.NewConnection("report"))

	// Retained marker proves the subscriptions are in place.
	pub.Publish(pub.NewMessage(topicHALState, types.HALState{Level: "idle", Status: "awaiting_config"}, true))
	waitFor(t, out, "[report] hal idle awaiting_config\n")
	return pub, out
}

func TestReportValues(t *testing.T) {
	pub, out := start(t)

	pub.Publish(pub.NewMessage(bus.T("hal", "capability", "temperature", 0, "value"), types.TemperatureValue{DeciC: -101}, false))
	waitFor(t, out, "[report] temperature/0 -10.1 C\n")

	pub.Publish(pub.NewMessage(bus.T("hal", "capability", "humidity", 2, "value"), types.HumidityValue{RHx100: 4530}, false))
	waitFor(t, out, "[report] humidity/2 45.3 %RH\n")
}

func TestReportLinkTransitions(t *testing.T) {
	pub, out := start(t)
	topic := bus.T("hal", "capability", "temperature", 0, "state")

	pub.Publish(pub.NewMessage(topic, types.CapabilityState{Link: types.LinkUp}, true))
	pub.Publish(pub.NewMessage(topic, types.CapabilityState{Link: types.LinkUp}, true))
	pub.Publish(pub.NewMessage(topic, types.CapabilityState{Link: types.LinkDegraded, Error: "pulse_timeout"}, true))
	waitFor(t, out, "[report] temperature/0 degraded pulse_timeout\n")

	if n := strings.Count(out.String(), "temperature/0 up"); n != 1 {
		t.Fatalf("up reported %d times, want 1:\n%s", n, out.String())
	}
}

func TestReportAliveFromConfig(t *testing.T) {
	pub, out := start(t)
	pub.Publish(pub.NewMessage(topicConfig, map[string]any{"alive_every_s": float64(1)}, true))

	deadline := time.Now().Add(1500 * time.Millisecond)
	for time.Now().Before(deadline) {
		if strings.Contains(out.String(), "[report] alive ") {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("no alive line in %q", out.String())
}
