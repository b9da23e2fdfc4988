package device_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/grid-x/modbus"

	"github.com/ventlogic/airios-bridge/internal/client"
	"github.com/ventlogic/airios-bridge/internal/client/clienttest"
	"github.com/ventlogic/airios-bridge/internal/device"
	"github.com/ventlogic/airios-bridge/internal/registers"
)

const vmdSlave = 3

func newFake(t *testing.T) (*clienttest.Channel, *client.Client) {
	t.Helper()
	ch := clienttest.New()
	return ch, client.New(ch, client.Options{Pace: time.Millisecond})
}

func busyError() error {
	return &modbus.Error{
		FunctionCode:  modbus.FuncCodeReadHoldingRegisters | 0x80,
		ExceptionCode: modbus.ExceptionCodeServerDeviceBusy,
	}
}

// ─── Bulk fetch ────────────────────────────────────────────────────

func TestFetchMergesContiguousRegisters(t *testing.T) {
	ch, c := newFake(t)
	// rf_address, product_id and software_version are adjacent and must
	// arrive in a single transaction.
	ch.SetRegisters(vmdSlave, 40000, 0x1234, 0x00AB, 0xC892, 0x0001, 0x0102)

	n, err := device.NewNode(vmdSlave, c)
	if err != nil {
		t.Fatalf("NewNode() error = %v", err)
	}

	snap, err := n.Fetch(context.Background(), device.FetchOptions{
		Properties: []registers.Property{
			device.PropRFAddress, device.PropProductID, device.PropSoftwareVersion,
		},
	})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if len(ch.CallsFor("read")) != 1 {
		t.Errorf("got %d reads, want 1 merged transaction", len(ch.CallsFor("read")))
	}
	if got := snap[device.PropRFAddress].Raw.(uint32); got != 0x00AB1234 {
		t.Errorf("rf_address = %#x, want 0x00AB1234", got)
	}
	if got := snap[device.PropProductID].Raw.(device.ProductID); got != device.ProductVMD02RPS78 {
		t.Errorf("product_id = %v, want VMD-02RPS78", got)
	}
	if got := snap[device.PropSoftwareVersion].Raw.(uint16); got != 0x0102 {
		t.Errorf("software_version = %#x, want 0x0102", got)
	}
}

func TestFetchMarksFailedRunAbsent(t *testing.T) {
	ch, c := newFake(t)
	ch.SetRegisters(vmdSlave, 40000, 0x1234, 0x00AB)
	ch.ReadErrs[40101] = busyError()

	n, err := device.NewNode(vmdSlave, c)
	if err != nil {
		t.Fatalf("NewNode() error = %v", err)
	}

	snap, err := n.Fetch(context.Background(), device.FetchOptions{
		Properties: []registers.Property{device.PropRFAddress, device.PropRFCommStatus},
	})
	if err != nil {
		t.Fatalf("Fetch() error = %v, busy runs must be skipped not fatal", err)
	}
	if !snap[device.PropRFAddress].Present() {
		t.Error("rf_address absent, healthy runs must survive a failed one")
	}
	// The failed register still gets an entry, marked absent, so the
	// snapshot always has one entry per requested register.
	v, ok := snap[device.PropRFCommStatus]
	if !ok {
		t.Fatal("rf_comm_status dropped from snapshot, want absent entry")
	}
	if v.Present() {
		t.Errorf("rf_comm_status = %v, want absent after busy response", v)
	}
	if flat := snap.Flat(); len(flat) != 1 {
		t.Errorf("Flat() = %v, absent values must be left out", flat)
	}
}

func TestFetchAbortsOnConnectionLoss(t *testing.T) {
	ch, c := newFake(t)
	ch.ReadErrs[40000] = io.ErrUnexpectedEOF

	n, err := device.NewNode(vmdSlave, c)
	if err != nil {
		t.Fatalf("NewNode() error = %v", err)
	}

	_, err = n.Fetch(context.Background(), device.FetchOptions{
		Properties: []registers.Property{device.PropRFAddress, device.PropRFCommStatus},
	})
	if !errors.Is(err, client.ErrConnectionInterrupted) {
		t.Fatalf("Fetch() error = %v, want ErrConnectionInterrupted", err)
	}
	// The second run must not have been attempted.
	if len(ch.CallsFor("read")) != 1 {
		t.Errorf("got %d reads after connection loss, want 1", len(ch.CallsFor("read")))
	}
}

func TestFetchUnknownProperty(t *testing.T) {
	_, c := newFake(t)
	n, err := device.NewNode(vmdSlave, c)
	if err != nil {
		t.Fatalf("NewNode() error = %v", err)
	}

	_, err = n.Fetch(context.Background(), device.FetchOptions{
		Properties: []registers.Property{"no_such_register"},
	})
	if !errors.Is(err, registers.ErrUnknownProperty) {
		t.Errorf("Fetch() error = %v, want ErrUnknownProperty", err)
	}
}

func TestFetchWithStatus(t *testing.T) {
	ch, c := newFake(t)
	ch.SetRegisters(vmdSlave, 41000, 3)      // current speed: high
	ch.SetRegisters(vmdSlave, 51000, 0x1105) // 5 s old, RF, valid

	vmd, err := device.NewVMD02RPS78(vmdSlave, c)
	if err != nil {
		t.Fatalf("NewVMD02RPS78() error = %v", err)
	}

	snap, err := vmd.Fetch(context.Background(), device.FetchOptions{
		Properties: []registers.Property{device.PropCurrentSpeed},
		WithStatus: true,
	})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	v, ok := snap[device.PropCurrentSpeed]
	if !ok {
		t.Fatal("current_ventilation_speed missing from snapshot")
	}
	if v.Raw.(device.VentilationSpeed) != device.SpeedHigh {
		t.Errorf("speed = %v, want high", v.Raw)
	}
	if v.Status == nil {
		t.Fatal("Status = nil, want freshness")
	}
	if v.Status.Age != 5*time.Second || v.Status.Source != registers.SourceRF {
		t.Errorf("Status = %+v, want 5s from RF", v.Status)
	}
}
