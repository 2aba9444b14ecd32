// config/config_test.go
package config

import (
	"context"
	"testing"
	"time"

	"dhtcode-go/bus"
)

func TestConfig_PublishEmbedded_RetainedPerKey(t *testing.T) {
	b := bus.NewBus(16)
	conn := b.NewConnection("test-config")

	ctx := context.WithValue(context.Background(), CtxBoardKey, "pico")
	if err := NewConfigService().publishConfig(ctx, conn); err != nil {
		t.Fatalf("publishConfig: %v", err)
	}

	sub := conn.Subscribe(bus.Topic{configPrefix, "#"})
	got := map[string]any{}
	deadline := time.After(200 * time.Millisecond)
	for len(got) < 2 {
		select {
		case m := <-sub.Channel():
			key, _ := m.Topic[1].(string)
			got[key] = m.Payload
		case <-deadline:
			t.Fatalf("got %d retained keys, want 2 (%v)", len(got), got)
		}
	}

	hal, ok := got["hal"].(map[string]any)
	if !ok {
		t.Fatalf("hal payload type = %T", got["hal"])
	}
	devs, _ := hal["devices"].([]any)
	if len(devs) != 1 {
		t.Fatalf("devices = %#v", hal["devices"])
	}
	if d := devs[0].(map[string]any); d["type"] != "dht22" || d["id"] != "dht0" {
		t.Fatalf("device = %#v", d)
	}
	if r, ok := got["report"].(map[string]any); !ok || r["alive_every_s"] != float64(30) {
		t.Fatalf("report payload = %#v", got["report"])
	}
}

func TestConfig_AllBoardsParse(t *testing.T) {
	b := bus.NewBus(4)
	conn := b.NewConnection("test-boards")
	for board := range embeddedConfigs {
		ctx := context.WithValue(context.Background(), CtxBoardKey, board)
		if err := NewConfigService().publishConfig(ctx, conn); err != nil {
			t.Fatalf("board %q: %v", board, err)
		}
	}
}

func TestConfig_PublishConfig_MissingBoard(t *testing.T) {
	b := bus.NewBus(4)
	conn := b.NewConnection("test-missing-board")

	if err := NewConfigService().publishConfig(context.Background(), conn); err == nil {
		t.Fatal("expected error for missing board, got nil")
	}
}

func TestConfig_PublishConfig_NoConfigFound(t *testing.T) {
	oldLookup := EmbeddedConfigLookup
	EmbeddedConfigLookup = func(string) ([]byte, bool) { return nil, false }
	t.Cleanup(func() { EmbeddedConfigLookup = oldLookup })

	b := bus.NewBus(4)
	conn := b.NewConnection("test-no-config")

	ctx := context.WithValue(context.Background(), CtxBoardKey, "unknown-board")
	if err := NewConfigService().publishConfig(ctx, conn); err == nil {
		t.Fatal("expected error for missing embedded config, got nil")
	}
}

func TestConfig_PublishConfig_BadJSON(t *testing.T) {
	oldLookup := EmbeddedConfigLookup
	EmbeddedConfigLookup = func(string) ([]byte, bool) { return []byte(`[1,2]`), true }
	t.Cleanup(func() { EmbeddedConfigLookup = oldLookup })

	conn := bus.NewBus(4).NewConnection("test-bad")
	ctx := context.WithValue(context.Background(), CtxBoardKey, "pico")
	if err := NewConfigService().publishConfig(ctx, conn); err == nil {
		t.Fatal("expected error for non-object config")
	}
}
