//go:build rp2040 || rp2350

package main

import (
	"context"
	"time"

	"dhtcode-go/bus"
	"dhtcode-go/services/config"
	"dhtcode-go/services/hal"
	"dhtcode-go/services/report"
)

const board = "pico"

func main() {
	// Give USB serial a moment to enumerate.
	time.Sleep(2 * time.Second)
	ctx := context.WithValue(context.Background(), config.CtxBoardKey, board)

	println("[main] bootstrapping bus …")
	b := bus.NewBus(4)

	println("[main] starting report on UART0 …")
	go report.New(hal.Console(115200)).Run(ctx, b.NewConnection("report"))

	println("[main] starting hal …")
	go hal.Run(ctx, b.NewConnection("hal"))

	println("[main] publishing config for", board, "…")
	config.NewConfigService().Start(ctx, b.NewConnection("config"))

	select {}
}
