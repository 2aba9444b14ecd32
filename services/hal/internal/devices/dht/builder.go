// services/hal/internal/devices/dht/builder.go
package dhtdev

import (
	"strconv"

	"dhtcode-go/drivers/dht"
	"dhtcode-go/errcode"
	"dhtcode-go/services/hal/internal/consts"
	"dhtcode-go/services/hal/internal/halcore"
	"dhtcode-go/services/hal/internal/registry"
	"dhtcode-go/services/hal/internal/util"
	"dhtcode-go/types"
	"dhtcode-go/x/timex"
)

func init() {
	registry.RegisterBuilder(consts.TypeDHT11, builder{model: dht.DHT11})
	registry.RegisterBuilder(consts.TypeDHT22, builder{model: dht.DHT22})
}

type builder struct{ model dht.Model }

func (b builder) Build(in registry.BuildInput) (registry.BuildOutput, error) {
	var p types.DHTParams
	if err := util.DecodeJSON(in.ParamsJSON, &p); err != nil {
		return registry.BuildOutput{}, errcode.InvalidParams
	}
	if in.Pins == nil {
		return registry.BuildOutput{}, errcode.UnknownPin
	}
	pin, ok := in.Pins.ByNumber(p.Pin)
	if !ok {
		return registry.BuildOutput{}, errcode.UnknownPin
	}

	cfg := dht.Config{
		Model:         b.model,
		MinInterval:   timex.Millis(p.MinIntervalMs),
		CycleBudget:   p.CycleBudget,
		AckBudget:     p.AckBudget,
		StartLow:      timex.Millis(p.StartLowMs),
		EarlyChecksum: p.EarlyChecksum,
	}
	if in.IRQ != nil {
		cfg.Interrupts = irqShim{in.IRQ}
	}

	dev := dht.New(pinShim{pin}, cfg)
	every := timex.Millis(p.SampleEveryMs)
	if every <= 0 {
		every = dev.MinInterval()
	}

	return registry.BuildOutput{
		Adaptor:     newAdaptor(in.DeviceID, b.model, pin.Number(), dev),
		WorkerKey:   "gpio" + strconv.Itoa(pin.Number()),
		SampleEvery: every,
	}, nil
}

// pinShim presents a HAL GPIO pin as a sensor data line.
type pinShim struct{ p halcore.GPIOPin }

func (s pinShim) ConfigureOutput(initial bool) error { return s.p.ConfigureOutput(initial) }
func (s pinShim) ConfigureInputPullUp() error        { return s.p.ConfigureInput(halcore.PullUp) }
func (s pinShim) Set(level bool)                     { s.p.Set(level) }
func (s pinShim) Get() bool                          { return s.p.Get() }

type irqShim struct{ m halcore.IRQMasker }

func (s irqShim) Disable() dht.IRQState   { return dht.IRQState(s.m.Disable()) }
func (s irqShim) Restore(st dht.IRQState) { s.m.Restore(uintptr(st)) }
