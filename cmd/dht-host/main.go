//go:build !rp2040 && !rp2350

// Command dht-host reads a DHT sensor from a Linux single-board computer
// through periph.io, or from a simulated line with -sim, and prints one line
// per reading.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"time"

	"dhtcode-go/bus"
	"dhtcode-go/services/hal"
	"dhtcode-go/services/report"
	"dhtcode-go/types"
)

func main() {
	pin := flag.Int("pin", 4, "BCM GPIO number of the data line")
	model := flag.String("model", "dht22", "sensor model: dht11 or dht22")
	sim := flag.Bool("sim", false, "use a simulated sensor instead of GPIO")
	every := flag.Duration("every", 2*time.Second, "sampling period")
	flag.Parse()

	if *model != "dht11" && *model != "dht22" {
		println("[dht-host] unknown model", *model)
		os.Exit(2)
	}

	var opts hal.Options
	if *sim {
		opts, _ = hal.SimOptions([5]byte{0x01, 0xC5, 0x00, 0xE6, 0xAC})
	} else {
		var err error
		if opts, err = hal.PeriphOptions(); err != nil {
			println("[dht-host] periph init failed:", err.Error())
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	b := bus.NewBus(8)
	go report.New(hal.Console(0)).Run(ctx, b.NewConnection("report"))

	ui := b.NewConnection("ui")
	ui.Publish(ui.NewMessage(bus.T("config", "hal"), types.HALConfig{
		Devices: []types.HALDevice{{
			ID:   "dht0",
			Type: *model,
			Params: types.DHTParams{
				Pin:           *pin,
				SampleEveryMs: uint32(every.Milliseconds()),
			},
		}},
	}, true))

	hal.RunWith(ctx, b.NewConnection("hal"), opts)
}
