package bridge_test

import (
	"context"
	"errors"
	"testing"

	"github.com/grid-x/modbus"

	"github.com/ventlogic/airios-bridge/internal/bridge"
	"github.com/ventlogic/airios-bridge/internal/client"
	"github.com/ventlogic/airios-bridge/internal/device"
)

// ─── Binding flow ──────────────────────────────────────────────────

func TestBindInvalidSlave(t *testing.T) {
	tests := []struct {
		name  string
		slave uint8
	}{
		{"below range", 1},
		{"broadcast", 0},
		{"above range", 248},
		{"bridge address", bridge.DefaultSlave},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch, b := newBridge(t)
			err := b.Bind(context.Background(), bridge.BindRequest{
				Slave: tt.slave, Product: device.ProductVMD02RPS78,
			})
			if !errors.Is(err, bridge.ErrInvalidSlave) {
				t.Fatalf("Bind() error = %v, want ErrInvalidSlave", err)
			}
			if len(ch.Calls) != 0 {
				t.Errorf("got %d bus operations, validation must happen before any I/O", len(ch.Calls))
			}
		})
	}
}

func TestBind(t *testing.T) {
	ch, b := newBridge(t)
	ch.SetRegisters(bridge.DefaultSlave, 43900, 0) // binding machine idle

	err := b.Bind(context.Background(), bridge.BindRequest{
		Slave: 5, Product: device.ProductVMD02RPS78,
	})
	if err != nil {
		t.Fatalf("Bind() error = %v", err)
	}

	// Product ID is a 32-bit value, low word first.
	if got, _ := ch.Register(bridge.DefaultSlave, 43000); got != 0xC892 {
		t.Errorf("binding product low word = %#x, want 0xC892", got)
	}
	if got, _ := ch.Register(bridge.DefaultSlave, 43001); got != 0x0001 {
		t.Errorf("binding product high word = %#x, want 0x0001", got)
	}
	if got, _ := ch.Register(bridge.DefaultSlave, 43005); got != 5 {
		t.Errorf("create node register = %d, want 5", got)
	}
	// Command word packs the slave in the high byte and the mode in the
	// low byte.
	if got, _ := ch.Register(bridge.DefaultSlave, 43004); got != 0x0503 {
		t.Errorf("binding command = %#04x, want 0x0503", got)
	}
}

func TestBindWithSerial(t *testing.T) {
	ch, b := newBridge(t)
	ch.SetRegisters(bridge.DefaultSlave, 43900, 0)

	err := b.Bind(context.Background(), bridge.BindRequest{
		Slave: 7, Product: device.ProductVMN05LM02, Serial: 0xAABBCCDD,
	})
	if err != nil {
		t.Fatalf("Bind() error = %v", err)
	}

	if got, _ := ch.Register(bridge.DefaultSlave, 43002); got != 0xCCDD {
		t.Errorf("serial low word = %#x, want 0xCCDD", got)
	}
	if got, _ := ch.Register(bridge.DefaultSlave, 43003); got != 0xAABB {
		t.Errorf("serial high word = %#x, want 0xAABB", got)
	}
	if got, _ := ch.Register(bridge.DefaultSlave, 43004); got != 0x0704 {
		t.Errorf("binding command = %#04x, want serial mode 0x0704", got)
	}
}

func TestBindNotReady(t *testing.T) {
	ch, b := newBridge(t)
	// The abort leaves the machine in an active state.
	ch.SetRegisters(bridge.DefaultSlave, 43900, uint16(bridge.BindingIncomingActive))

	err := b.Bind(context.Background(), bridge.BindRequest{
		Slave: 5, Product: device.ProductVMD02RPS78,
	})
	if !errors.Is(err, bridge.ErrBindingNotReady) {
		t.Fatalf("Bind() error = %v, want ErrBindingNotReady", err)
	}

	// Only the abort may have reached the command register.
	var commands int
	for _, call := range ch.CallsFor("write") {
		if call.Address == 43004 {
			commands++
		}
	}
	if commands != 1 {
		t.Errorf("got %d command writes, want only the abort", commands)
	}
	if got, _ := ch.Register(bridge.DefaultSlave, 43004); got != 0x00C8 {
		t.Errorf("command register = %#04x, want abort 0x00C8", got)
	}
	if _, ok := ch.Register(bridge.DefaultSlave, 43000); ok {
		t.Error("binding product configured despite busy machine")
	}
}

func TestBindAccessory(t *testing.T) {
	ch, b := newBridge(t)
	ch.SetRegisters(bridge.DefaultSlave, 43900, 0)

	err := b.BindAccessory(context.Background(), 5, 9, device.ProductVMN05LM02)
	if err != nil {
		t.Fatalf("BindAccessory() error = %v", err)
	}
	if got, _ := ch.Register(bridge.DefaultSlave, 43004); got != 0x0914 {
		t.Errorf("binding command = %#04x, want incoming mode 0x0914", got)
	}
}

func TestBindingStatusUnreadable(t *testing.T) {
	ch, b := newBridge(t)
	ch.ReadErrs[43900] = &modbus.Error{
		FunctionCode:  modbus.FuncCodeReadHoldingRegisters | 0x80,
		ExceptionCode: modbus.ExceptionCodeServerDeviceBusy,
	}

	// A status poll maps an unreadable register to NotAvailable.
	if got := b.BindingStatus(context.Background()); got != bridge.BindingNotAvailable {
		t.Errorf("BindingStatus() = %v, want NotAvailable", got)
	}
}

func TestBindStatusCheckError(t *testing.T) {
	ch, b := newBridge(t)
	ch.ReadErrs[43900] = &modbus.Error{
		FunctionCode:  modbus.FuncCodeReadHoldingRegisters | 0x80,
		ExceptionCode: modbus.ExceptionCodeServerDeviceBusy,
	}

	// The bind flow's idle gate still surfaces the read failure.
	err := b.Bind(context.Background(), bridge.BindRequest{
		Slave: 5, Product: device.ProductVMD02RPS78,
	})
	if !errors.Is(err, client.ErrSlaveBusy) {
		t.Fatalf("Bind() error = %v, want ErrSlaveBusy", err)
	}
	if _, ok := ch.Register(bridge.DefaultSlave, 43000); ok {
		t.Error("binding product configured despite unreadable status")
	}
}

func TestBindingStatusPredicates(t *testing.T) {
	for _, s := range []bridge.BindingStatus{
		bridge.BindingOutgoingCompleted, bridge.BindingIncomingCompleted, bridge.BindingLearningCompleted,
	} {
		if !s.Completed() || s.Failed() {
			t.Errorf("%v: Completed() = %t, Failed() = %t, want terminal success", s, s.Completed(), s.Failed())
		}
	}
	for _, s := range []bridge.BindingStatus{
		bridge.BindingFailedNoAnswer, bridge.BindingFailedNodeListFull, bridge.BindingFailedUnknownProductType,
	} {
		if s.Completed() || !s.Failed() {
			t.Errorf("%v: Completed() = %t, Failed() = %t, want terminal failure", s, s.Completed(), s.Failed())
		}
	}
	if s := bridge.BindingOutgoingInitialized; s.Completed() || s.Failed() {
		t.Errorf("%v must be neither completed nor failed", s)
	}
}

func TestRemoveNode(t *testing.T) {
	ch, b := newBridge(t)

	if err := b.RemoveNode(context.Background(), 5); err != nil {
		t.Fatalf("RemoveNode() error = %v", err)
	}
	if got, _ := ch.Register(bridge.DefaultSlave, 43399); got != 5 {
		t.Errorf("remove node register = %d, want 5", got)
	}

	if err := b.RemoveNode(context.Background(), bridge.DefaultSlave); !errors.Is(err, bridge.ErrInvalidSlave) {
		t.Errorf("RemoveNode(bridge address) error = %v, want ErrInvalidSlave", err)
	}
}
