// Package config publishes a board's embedded configuration on the bus,
// one retained message per top-level key ("config/hal", "config/report").
package config

import (
	"context"
	"encoding/json"
	"errors"

	"dhtcode-go/bus"
)

const configPrefix = "config"

type ctxKey string

// CtxBoardKey carries the board name used to select the embedded config.
const CtxBoardKey ctxKey = "board"

// EmbeddedConfigLookup resolves a board name to raw JSON. Tests and custom
// firmware builds may replace it.
var EmbeddedConfigLookup = func(board string) ([]byte, bool) {
	b, ok := embeddedConfigs[board]
	return b, ok
}

type ConfigService struct{}

func NewConfigService() *ConfigService { return &ConfigService{} }

func (s *ConfigService) publishConfig(ctx context.Context, conn *bus.Connection) error {
	board, _ := ctx.Value(CtxBoardKey).(string)
	if board == "" {
		return errors.New("config: missing board in context")
	}
	raw, ok := EmbeddedConfigLookup(board)
	if !ok || len(raw) == 0 {
		return errors.New("config: no embedded config for board " + board)
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return errors.New("config: embedded config is not a JSON object: " + err.Error())
	}
	for k, v := range m {
		conn.Publish(conn.NewMessage(bus.T(configPrefix, k), v, true))
	}
	return nil
}

// Start publishes the board config in the background. Errors are printed.
func (s *ConfigService) Start(ctx context.Context, conn *bus.Connection) {
	go func() {
		if err := s.publishConfig(ctx, conn); err != nil {
			println("[config]", err.Error())
		}
	}()
}
