package device

import (
	"context"
	"time"

	"github.com/ventlogic/airios-bridge/internal/client"
	"github.com/ventlogic/airios-bridge/internal/registers"
)

// Properties specific to bound RF devices.
const (
	PropRFLastSeen       registers.Property = "rf_last_seen"
	PropValueErrorStatus registers.Property = "value_error_status"
	PropRFLastRSSI       registers.Property = "rf_last_rssi"
	PropBoundStatus      registers.Property = "bound_status"
)

// rfDeviceRegisters is the register group present on bound devices but
// not on the bridge itself.
func rfDeviceRegisters() []registers.Descriptor {
	return []registers.Descriptor{
		{Property: PropRFLastSeen, Address: 40100, Codec: registers.U16{}, Access: registers.AccessRead},
		{Property: PropValueErrorStatus, Address: 40104, Codec: registers.U16{}, Access: registers.AccessRead, Adapt: adaptValueErrorStatus},
		{Property: PropRFLastRSSI, Address: 40109, Codec: registers.I16{}, Access: registers.AccessRead},
		{Property: PropBoundStatus, Address: 40110, Codec: registers.U16{}, Access: registers.AccessRead, Adapt: adaptBoundStatus},
	}
}

// RFDevice is a bound RF node: a node with link quality and binding
// state registers on top of the common group.
type RFDevice struct {
	*Node
}

// NewRFDevice creates a bound device node with optional
// product-specific register groups.
func NewRFDevice(slave uint8, c *client.Client, extra ...[]registers.Descriptor) (*RFDevice, error) {
	groups := append([][]registers.Descriptor{rfDeviceRegisters()}, extra...)
	n, err := NewNode(slave, c, groups...)
	if err != nil {
		return nil, err
	}
	return &RFDevice{Node: n}, nil
}

// BoundStatus reports how the device joined its controller.
func (d *RFDevice) BoundStatus(ctx context.Context) (BoundStatus, error) {
	v, err := d.Get(ctx, PropBoundStatus)
	if err != nil {
		return 0, err
	}
	return v.Raw.(BoundStatus), nil
}

// ValueErrorStatus reports whether any value on the device is out of
// range.
func (d *RFDevice) ValueErrorStatus(ctx context.Context) (ValueErrorStatus, error) {
	v, err := d.Get(ctx, PropValueErrorStatus)
	if err != nil {
		return 0, err
	}
	return v.Raw.(ValueErrorStatus), nil
}

// LastSeen returns the time since the device was last heard on RF.
func (d *RFDevice) LastSeen(ctx context.Context) (time.Duration, error) {
	v, err := d.Get(ctx, PropRFLastSeen)
	if err != nil {
		return 0, err
	}
	return time.Duration(v.Raw.(uint16)) * time.Minute, nil
}

// LastRSSI returns the signal strength of the last received message
// (dBm).
func (d *RFDevice) LastRSSI(ctx context.Context) (int16, error) {
	v, err := d.Get(ctx, PropRFLastRSSI)
	if err != nil {
		return 0, err
	}
	return v.Raw.(int16), nil
}
