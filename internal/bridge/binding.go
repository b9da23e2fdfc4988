package bridge

import (
	"context"
	"fmt"

	"github.com/ventlogic/airios-bridge/internal/device"
)

// BindRequest describes an outgoing binding of a new controller.
type BindRequest struct {
	// Slave is the Modbus address to assign to the new node, in the
	// range 2-247 and distinct from the bridge address.
	Slave uint8
	// Product is the product type to bind.
	Product device.ProductID
	// Serial optionally pins the binding to one device by RF address
	// (serial number). Zero binds the first answering product.
	Serial uint32
}

// checkSlave validates a Modbus address for a new node.
func (b *Bridge) checkSlave(slave uint8) error {
	if slave < 2 || slave > 247 {
		return fmt.Errorf("%w: %d out of range 2-247", ErrInvalidSlave, slave)
	}
	if slave == b.Slave() {
		return fmt.Errorf("%w: %d taken by the bridge", ErrInvalidSlave, slave)
	}
	return nil
}

// prepareBinding aborts any binding in progress and verifies the
// binding machine is idle.
func (b *Bridge) prepareBinding(ctx context.Context) error {
	if err := b.Set(ctx, PropBindingCommand, uint16(bindAbort)); err != nil {
		return fmt.Errorf("abort previous binding: %w", err)
	}
	v, err := b.Get(ctx, PropBindingStatus)
	if err != nil {
		return fmt.Errorf("check binding status: %w", err)
	}
	if status := v.Raw.(BindingStatus); status != BindingNotAvailable {
		return fmt.Errorf("%w: status %s", ErrBindingNotReady, status)
	}
	return nil
}

// bindingCommand packs the target slave address and binding mode into
// the command word.
func bindingCommand(slave uint8, mode bindingMode) uint16 {
	return uint16(slave)<<8 | uint16(mode)
}

// Bind starts an outgoing binding of a new controller. The flow aborts
// any binding in progress, verifies the machine is idle, configures
// the product and target address, and fires the binding command. The
// RF handshake continues asynchronously; poll BindingStatus for the
// outcome.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - req: Target slave address, product type and optional serial
//
// Returns:
//   - error: Validation failure or the first failed flow step
func (b *Bridge) Bind(ctx context.Context, req BindRequest) error {
	if err := b.checkSlave(req.Slave); err != nil {
		return err
	}
	if err := b.prepareBinding(ctx); err != nil {
		return err
	}

	if err := b.Set(ctx, PropBindingProductID, uint32(req.Product)); err != nil {
		return fmt.Errorf("configure binding product: %w", err)
	}
	if err := b.Set(ctx, PropCreateNode, int(req.Slave)); err != nil {
		return fmt.Errorf("create node for slave %d: %w", req.Slave, err)
	}

	mode := bindOutgoingSingleProduct
	if req.Serial != 0 {
		mode = bindOutgoingProductPlusSerial
		if err := b.Set(ctx, PropBindingProductSerial, req.Serial); err != nil {
			return fmt.Errorf("configure binding serial: %w", err)
		}
	}

	if err := b.Set(ctx, PropBindingCommand, bindingCommand(req.Slave, mode)); err != nil {
		return fmt.Errorf("start binding: %w", err)
	}
	return nil
}

// BindAccessory starts an incoming binding that attaches an accessory
// (for example a remote) to an already bound controller. The bridge
// opens a listening window; trigger the binding on the accessory to
// complete it.
func (b *Bridge) BindAccessory(ctx context.Context, controllerSlave, slave uint8, product device.ProductID) error {
	if err := b.checkSlave(controllerSlave); err != nil {
		return err
	}
	if err := b.checkSlave(slave); err != nil {
		return err
	}
	if err := b.prepareBinding(ctx); err != nil {
		return err
	}

	if err := b.Set(ctx, PropBindingProductID, uint32(product)); err != nil {
		return fmt.Errorf("configure binding product: %w", err)
	}
	if err := b.Set(ctx, PropCreateNode, int(slave)); err != nil {
		return fmt.Errorf("create node for slave %d: %w", slave, err)
	}

	if err := b.Set(ctx, PropBindingCommand, bindingCommand(slave, bindIncomingOnExistingNode)); err != nil {
		return fmt.Errorf("start binding: %w", err)
	}
	return nil
}

// BindingStatus returns the state of the binding machine. An
// unreadable status register reports NotAvailable instead of an
// error; status polls must survive a momentarily busy bridge.
func (b *Bridge) BindingStatus(ctx context.Context) BindingStatus {
	v, err := b.Get(ctx, PropBindingStatus)
	if err != nil {
		b.warn("binding status unreadable", "error", err)
		return BindingNotAvailable
	}
	return v.Raw.(BindingStatus)
}

// RemoveNode unbinds a node by its Modbus slave address.
func (b *Bridge) RemoveNode(ctx context.Context, slave uint8) error {
	if err := b.checkSlave(slave); err != nil {
		return err
	}
	return b.Set(ctx, PropRemoveNode, int(slave))
}
