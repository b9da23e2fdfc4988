package bridge

import (
	"context"
	"fmt"

	"github.com/ventlogic/airios-bridge/internal/device"
)

// BoundNode is one entry of the bridge node directory.
type BoundNode struct {
	Slave     uint8
	Product   device.ProductID
	RFAddress uint32
}

func (n BoundNode) String() string {
	return fmt.Sprintf("%s@%d (RF %08X)", n.Product, n.Slave, n.RFAddress)
}

// Nodes scans the bound node directory. The 32 directory slots are
// read in one transaction; every occupied slot is then identified by
// reading its product ID and RF address on the slot's own slave
// address. Slots that fail to identify or report an unrecognized
// product are skipped with a log entry.
func (b *Bridge) Nodes(ctx context.Context) ([]BoundNode, error) {
	slots, err := b.Client().ReadBlock(ctx, b.Slave(), nodeDirectoryBase, nodeDirectorySlots)
	if err != nil {
		return nil, fmt.Errorf("read node directory: %w", err)
	}

	var nodes []BoundNode
	for _, slot := range slots {
		if slot == 0 {
			continue
		}
		slave := uint8(slot)

		probe, err := device.NewNode(slave, b.Client())
		if err != nil {
			return nodes, err
		}
		id, err := probe.ProductID(ctx)
		if err != nil {
			b.warn("failed to identify node", "slave", slave, "error", err)
			continue
		}
		if !device.Known(id) {
			b.warn("unknown product ID", "slave", slave, "product_id", fmt.Sprintf("%#08x", uint32(id)))
			continue
		}
		rfAddress, err := probe.RFAddress(ctx)
		if err != nil {
			b.warn("failed to read node RF address", "slave", slave, "error", err)
			continue
		}
		nodes = append(nodes, BoundNode{Slave: slave, Product: id, RFAddress: rfAddress})
	}
	return nodes, nil
}

// NodeBySlave returns a typed wrapper for a bound node by its Modbus
// slave address. Asking for the bridge address returns the bridge
// itself.
func (b *Bridge) NodeBySlave(ctx context.Context, slave uint8) (device.Product, error) {
	if slave == b.Slave() {
		return b, nil
	}

	nodes, err := b.Nodes(ctx)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		if n.Slave != slave {
			continue
		}
		return device.NewProduct(n.Product, n.Slave, b.Client())
	}
	return nil, fmt.Errorf("%w: slave %d", ErrNodeNotFound, slave)
}

func (b *Bridge) warn(msg string, args ...any) {
	if b.log != nil {
		b.log.Warn(msg, args...)
	}
}
