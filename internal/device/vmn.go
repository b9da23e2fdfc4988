package device

import (
	"context"
	"fmt"

	"github.com/ventlogic/airios-bridge/internal/client"
	"github.com/ventlogic/airios-bridge/internal/registers"
)

// PropVMNRequestedSpeed is the speed preset last requested on the
// remote. The register is read-only; speed changes are commanded on
// the controller.
const PropVMNRequestedSpeed registers.Property = "requested_ventilation_speed"

// vmnRegisters is the register group of the VMN-05LM02 remote.
func vmnRegisters() []registers.Descriptor {
	return []registers.Descriptor{
		{Property: PropVMNRequestedSpeed, Address: 41000, Codec: registers.U16{}, Access: registers.AccessRead | registers.AccessStatus, Adapt: adaptRequestedSpeed},
	}
}

// VMN05LM02 is a remote control node.
type VMN05LM02 struct {
	*RFDevice
}

// NewVMN05LM02 creates a remote node on the given slave address.
func NewVMN05LM02(slave uint8, c *client.Client) (*VMN05LM02, error) {
	d, err := NewRFDevice(slave, c, vmnRegisters())
	if err != nil {
		return nil, err
	}
	return &VMN05LM02{RFDevice: d}, nil
}

func (d *VMN05LM02) String() string {
	return fmt.Sprintf("VMN-05LM02@%d", d.Slave())
}

// Product returns the remote product ID.
func (d *VMN05LM02) Product() ProductID { return ProductVMN05LM02 }

// RequestedSpeed returns the speed preset last requested on the
// remote.
func (d *VMN05LM02) RequestedSpeed(ctx context.Context) (RequestedSpeed, error) {
	v, err := d.Get(ctx, PropVMNRequestedSpeed)
	if err != nil {
		return 0, err
	}
	return v.Raw.(RequestedSpeed), nil
}

// SnapshotProperties is the property set fetched for a remote state
// snapshot.
func (d *VMN05LM02) SnapshotProperties() []registers.Property {
	return []registers.Property{
		PropRFAddress, PropProductID, PropSoftwareVersion, PropProductName,
		PropRFCommStatus, PropBatteryStatus, PropFaultStatus,
		PropBoundStatus, PropValueErrorStatus,
		PropVMNRequestedSpeed,
	}
}
