package bridge_test

import (
	"context"
	"testing"
	"time"

	"github.com/ventlogic/airios-bridge/internal/bridge"
	"github.com/ventlogic/airios-bridge/internal/client"
	"github.com/ventlogic/airios-bridge/internal/client/clienttest"
)

func newBridge(t *testing.T) (*clienttest.Channel, *bridge.Bridge) {
	t.Helper()
	ch := clienttest.New()
	c := client.New(ch, client.Options{Pace: time.Millisecond})
	b, err := bridge.New(c, bridge.Options{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return ch, b
}

// ─── Gateway settings ──────────────────────────────────────────────

func TestSerialConfig(t *testing.T) {
	ch, b := newBridge(t)
	ch.SetRegisters(bridge.DefaultSlave, 41998, 2, 1) // parity even, 1 stop bit
	ch.SetRegisters(bridge.DefaultSlave, 42000, 6)    // 19200 baud

	cfg, err := b.SerialConfig(context.Background())
	if err != nil {
		t.Fatalf("SerialConfig() error = %v", err)
	}
	want := bridge.SerialConfig{Baudrate: bridge.Baud19200, Parity: bridge.ParityEven, StopBits: bridge.StopBits1}
	if cfg != want {
		t.Errorf("SerialConfig() = %+v, want %+v", cfg, want)
	}
	if cfg.Baudrate.BitsPerSecond() != 19200 {
		t.Errorf("BitsPerSecond() = %d, want 19200", cfg.Baudrate.BitsPerSecond())
	}
}

func TestSetSerialConfig(t *testing.T) {
	ch, b := newBridge(t)

	cfg := bridge.SerialConfig{Baudrate: bridge.Baud115200, Parity: bridge.ParityNone, StopBits: bridge.StopBits0}
	if err := b.SetSerialConfig(context.Background(), cfg); err != nil {
		t.Fatalf("SetSerialConfig() error = %v", err)
	}

	for _, tt := range []struct {
		address uint16
		want    uint16
	}{
		{42000, 9},
		{41998, 0},
		{41999, 0},
	} {
		if got, ok := ch.Register(bridge.DefaultSlave, tt.address); !ok || got != tt.want {
			t.Errorf("register %d = %d (present %t), want %d", tt.address, got, ok, tt.want)
		}
	}
}

func TestUptime(t *testing.T) {
	ch, b := newBridge(t)
	ch.SetRegisters(bridge.DefaultSlave, 41019, 3661, 0) // low word first

	up, err := b.Uptime(context.Background())
	if err != nil {
		t.Fatalf("Uptime() error = %v", err)
	}
	if up != 3661*time.Second {
		t.Errorf("Uptime() = %v, want 1h1m1s", up)
	}
}

func TestReset(t *testing.T) {
	ch, b := newBridge(t)

	if err := b.Reset(context.Background(), bridge.ResetSoft); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if got, _ := ch.Register(bridge.DefaultSlave, 41107); got != 12345 {
		t.Errorf("reset register = %d, want soft reset magic 12345", got)
	}
}

func TestRFLoad(t *testing.T) {
	ch, b := newBridge(t)
	ch.SetRegisters(bridge.DefaultSlave, 42102, 0x0000, 0x40A0) // 5.0
	ch.SetRegisters(bridge.DefaultSlave, 42104, 0x0000, 0x4020) // 2.5

	load, err := b.RFLoad(context.Background())
	if err != nil {
		t.Fatalf("RFLoad() error = %v", err)
	}
	if load.CurrentHour != 5.0 || load.LastHour != 2.5 {
		t.Errorf("RFLoad() = %+v, want 5%% current, 2.5%% last", load)
	}
}
