//go:build rp2040 || rp2350

// cmd/boardtest/main.go
package main

import (
	"context"
	"machine"
	"runtime/interrupt"
	"time"

	"dhtcode-go/bus"
	"dhtcode-go/drivers/dht"
	"dhtcode-go/services/hal"
	"dhtcode-go/types"
	"dhtcode-go/x/conv"
)

// ---------- Configuration ----------

const (
	dataPin         = 2
	model           = dht.DHT22
	directReads     = 10
	busReads        = 5
	halReadyTimeout = 5 * time.Second
)

// ---------- Direct driver access ----------

type line struct{ p machine.Pin }

func (l line) ConfigureOutput(initial bool) error {
	l.p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	l.p.Set(initial)
	return nil
}

func (l line) ConfigureInputPullUp() error {
	l.p.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	return nil
}

func (l line) Set(b bool) { l.p.Set(b) }
func (l line) Get() bool  { return l.p.Get() }

type irq struct{}

func (irq) Disable() dht.IRQState   { return dht.IRQState(interrupt.Disable()) }
func (irq) Restore(st dht.IRQState) { interrupt.Restore(interrupt.State(st)) }

func directTest() {
	d := dht.New(line{machine.Pin(dataPin)}, dht.Config{Model: model, Interrupts: irq{}})
	var tally [4]int // indexed by dht.ErrorKind, 0 = ok

	buf := make([]byte, 0, 64)
	for i := 0; i < directReads; i++ {
		start := time.Now()
		f, err := d.Read()
		took := time.Since(start)

		buf = append(buf[:0], "[boardtest] read "...)
		buf = conv.AppendInt(buf, int64(i))
		buf = append(buf, ": "...)
		buf = conv.AppendHex(buf, f[:], ' ')
		buf = append(buf, " in "...)
		buf = conv.AppendInt(buf, took.Microseconds())
		buf = append(buf, "us "...)
		if err != nil {
			tally[dht.KindOf(err)]++
			buf = append(buf, err.Error()...)
		} else {
			tally[0]++
			buf = conv.AppendFixed(buf, int64(d.DeciCelsius()), 1)
			buf = append(buf, " C "...)
			buf = conv.AppendFixed(buf, int64(d.DeciRelHumidity()), 1)
			buf = append(buf, " %RH"...)
		}
		println(string(buf))
		time.Sleep(d.MinInterval())
	}
	println("[boardtest] ok:", tally[0],
		"handshake:", tally[dht.HandshakeTimeout],
		"pulse:", tally[dht.PulseTimeout],
		"checksum:", tally[dht.ChecksumMismatch])
}

// ---------- Through the HAL ----------

func waitHALReady(c *bus.Connection, d time.Duration) bool {
	sub := c.Subscribe(bus.T("hal", "state"))
	defer c.Unsubscribe(sub)

	dead := time.After(d)
	for {
		select {
		case m := <-sub.Channel():
			if st, ok := m.Payload.(types.HALState); ok && st.Level == "ready" {
				return true
			}
		case <-dead:
			return false
		}
	}
}

func busTest(ctx context.Context) {
	b := bus.NewBus(8)
	ui := b.NewConnection("ui")
	go hal.Run(ctx, b.NewConnection("hal"))

	ui.Publish(ui.NewMessage(bus.T("config", "hal"), types.HALConfig{
		Devices: []types.HALDevice{{ID: "dht0", Type: model.String(), Params: types.DHTParams{Pin: dataPin}}},
	}, true))
	if !waitHALReady(ui, halReadyTimeout) {
		println("[boardtest] hal not ready")
		return
	}

	vals := ui.Subscribe(bus.T("hal", "capability", "temperature", 0, "value"))
	defer ui.Unsubscribe(vals)
	readNow := bus.T("hal", "capability", "temperature", 0, "control", "read_now")
	raw := bus.T("hal", "capability", "temperature", 0, "control", "raw")

	for i := 0; i < busReads; i++ {
		rctx, cancel := context.WithTimeout(ctx, time.Second)
		if _, err := ui.RequestWait(rctx, ui.NewMessage(readNow, nil, false)); err != nil {
			println("[boardtest] read_now:", err.Error())
		}
		cancel()

		select {
		case m := <-vals.Channel():
			if v, ok := m.Payload.(types.TemperatureValue); ok {
				println("[boardtest] bus temperature deci_c:", v.DeciC)
			}
		case <-time.After(time.Second):
			println("[boardtest] no value")
		}

		rctx, cancel = context.WithTimeout(ctx, time.Second)
		if rep, err := ui.RequestWait(rctx, ui.NewMessage(raw, nil, false)); err == nil {
			if fr, ok := rep.Payload.(types.DHTFrame); ok {
				println("[boardtest] raw", string(conv.AppendHex(nil, fr.Bytes[:], ' ')))
			}
		}
		cancel()
		time.Sleep(2 * time.Second)
	}
}

func main() {
	time.Sleep(2 * time.Second)
	println("[boardtest] direct driver on GP", dataPin)
	directTest()
	println("[boardtest] via hal")
	busTest(context.Background())
	println("[boardtest] done")
	select {}
}
