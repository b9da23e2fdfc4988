package device_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ventlogic/airios-bridge/internal/client/clienttest"
	"github.com/ventlogic/airios-bridge/internal/device"
	"github.com/ventlogic/airios-bridge/internal/registers"
)

func newVMD(t *testing.T) (*clienttest.Channel, *device.VMD02RPS78) {
	t.Helper()
	ch, c := newFake(t)
	vmd, err := device.NewVMD02RPS78(vmdSlave, c)
	if err != nil {
		t.Fatalf("NewVMD02RPS78() error = %v", err)
	}
	return ch, vmd
}

// ─── Speed control ─────────────────────────────────────────────────

func TestSetVentilationSpeed(t *testing.T) {
	ch, vmd := newVMD(t)
	if err := vmd.SetVentilationSpeed(context.Background(), device.RequestHigh); err != nil {
		t.Fatalf("SetVentilationSpeed() error = %v", err)
	}
	if w, _ := ch.Register(vmdSlave, 41500); w != uint16(device.RequestHigh) {
		t.Errorf("requested speed register = %d, want %d", w, device.RequestHigh)
	}
}

func TestSetSpeedOverride(t *testing.T) {
	ch, vmd := newVMD(t)
	ctx := context.Background()

	if err := vmd.SetSpeedOverride(ctx, device.RequestMid, 30*time.Minute); err != nil {
		t.Fatalf("SetSpeedOverride() error = %v", err)
	}
	if w, _ := ch.Register(vmdSlave, 41502); w != 30 {
		t.Errorf("override register = %d, want 30 minutes", w)
	}

	// Overrides are capped at 18 hours.
	err := vmd.SetSpeedOverride(ctx, device.RequestMid, 19*time.Hour)
	if !errors.Is(err, registers.ErrInvalidValue) {
		t.Errorf("SetSpeedOverride(19h) error = %v, want ErrInvalidValue", err)
	}

	// Only low, mid and high have override timers.
	err = vmd.SetSpeedOverride(ctx, device.RequestAuto, 30*time.Minute)
	if !errors.Is(err, registers.ErrInvalidValue) {
		t.Errorf("SetSpeedOverride(auto) error = %v, want ErrInvalidValue", err)
	}
}

// ─── Preset fan speeds ─────────────────────────────────────────────

func TestSetPresetSpeeds(t *testing.T) {
	ch, vmd := newVMD(t)
	ctx := context.Background()

	if err := vmd.SetPresetSpeeds(ctx, device.PresetLow, 70, 75); err != nil {
		t.Fatalf("SetPresetSpeeds(low) error = %v", err)
	}
	if w, _ := ch.Register(vmdSlave, 42003); w != 70 {
		t.Errorf("low supply register = %d, want 70", w)
	}
	if w, _ := ch.Register(vmdSlave, 42004); w != 75 {
		t.Errorf("low exhaust register = %d, want 75", w)
	}

	// The away preset caps at 40 %.
	err := vmd.SetPresetSpeeds(ctx, device.PresetAway, 41, 10)
	if !errors.Is(err, registers.ErrInvalidValue) {
		t.Errorf("SetPresetSpeeds(away, 41) error = %v, want ErrInvalidValue", err)
	}
	if _, ok := ch.Register(vmdSlave, 42001); ok {
		t.Error("rejected write must not reach the device")
	}
}

func TestPresetSpeeds(t *testing.T) {
	ch, vmd := newVMD(t)
	ch.SetRegisters(vmdSlave, 42007, 90)
	ch.SetRegisters(vmdSlave, 52007, 0x1101)
	ch.SetRegisters(vmdSlave, 42008, 95)
	ch.SetRegisters(vmdSlave, 52008, 0x1101)

	supply, exhaust, err := vmd.PresetSpeeds(context.Background(), device.PresetHigh)
	if err != nil {
		t.Fatalf("PresetSpeeds(high) error = %v", err)
	}
	if supply != 90 || exhaust != 95 {
		t.Errorf("PresetSpeeds(high) = %d/%d, want 90/95", supply, exhaust)
	}
}

// ─── Bypass and filter ─────────────────────────────────────────────

func TestSetBypassMode(t *testing.T) {
	ch, vmd := newVMD(t)
	ctx := context.Background()

	if err := vmd.SetBypassMode(ctx, device.BypassAuto); err != nil {
		t.Fatalf("SetBypassMode(auto) error = %v", err)
	}
	if w, _ := ch.Register(vmdSlave, 41550); w != uint16(device.BypassAuto) {
		t.Errorf("requested bypass register = %d, want %d", w, device.BypassAuto)
	}

	if err := vmd.SetBypassMode(ctx, device.BypassUnknown); !errors.Is(err, registers.ErrInvalidValue) {
		t.Errorf("SetBypassMode(unknown) error = %v, want ErrInvalidValue", err)
	}
}

func TestFilterReset(t *testing.T) {
	ch, vmd := newVMD(t)
	ch.SetRegisters(vmdSlave, 42000, 1)

	if err := vmd.FilterReset(context.Background()); err != nil {
		t.Fatalf("FilterReset() error = %v", err)
	}
	if w, _ := ch.Register(vmdSlave, 42000); w != 0 {
		t.Errorf("filter reset register = %d, want 0", w)
	}
}

// ─── Sensors ───────────────────────────────────────────────────────

func TestTemperatureAccessor(t *testing.T) {
	ch, vmd := newVMD(t)
	// 21.5°C as float32, low word first.
	ch.SetRegisters(vmdSlave, 41005, 0x0000, 0x41AC)
	ch.SetRegisters(vmdSlave, 51005, 0x1101)

	temp, err := vmd.Temperature(context.Background(), device.PropTemperatureIndoor)
	if err != nil {
		t.Fatalf("Temperature() error = %v", err)
	}
	if temp.Status != device.SensorOK || temp.Celsius != 21.5 {
		t.Errorf("Temperature() = %+v, want 21.5°C ok", temp)
	}
}

func TestTemperatureAccessorWrongRegister(t *testing.T) {
	ch, vmd := newVMD(t)
	ch.SetRegisters(vmdSlave, 41014, 0)
	ch.SetRegisters(vmdSlave, 51014, 0x1101)

	if _, err := vmd.Temperature(context.Background(), device.PropFilterDirty); !errors.Is(err, registers.ErrDecode) {
		t.Errorf("Temperature(filter_dirty) error = %v, want ErrDecode", err)
	}
}
