package device

import (
	"context"
	"fmt"

	"github.com/ventlogic/airios-bridge/internal/client"
	"github.com/ventlogic/airios-bridge/internal/registers"
)

// Product is a typed wrapper around a bound RF node.
type Product interface {
	// Slave returns the Modbus slave address of the node.
	Slave() uint8
	// Product returns the product ID the wrapper implements.
	Product() ProductID
	// Get reads a register by property name.
	Get(ctx context.Context, prop registers.Property) (registers.Value, error)
	// Set writes a register by property name.
	Set(ctx context.Context, prop registers.Property, value any) error
	// Fetch bulk-reads node registers.
	Fetch(ctx context.Context, opts FetchOptions) (Snapshot, error)
	// SnapshotProperties is the property set for a state snapshot.
	SnapshotProperties() []registers.Property
}

// factories maps product IDs to their typed wrapper constructors.
// VMN-02LM11 has a known ID but no register documentation yet, so it
// stays unregistered and directory scans report it as unsupported.
var factories = map[ProductID]func(uint8, *client.Client) (Product, error){
	ProductVMD02RPS78: func(slave uint8, c *client.Client) (Product, error) {
		return NewVMD02RPS78(slave, c)
	},
	ProductVMN05LM02: func(slave uint8, c *client.Client) (Product, error) {
		return NewVMN05LM02(slave, c)
	},
}

// Known reports whether a product ID belongs to a recognized Airios
// product, supported or not.
func Known(id ProductID) bool {
	switch id {
	case ProductBRDG02R13, ProductVMD02RPS78, ProductVMN05LM02, ProductVMN02LM11:
		return true
	}
	return false
}

// Supported reports whether a typed wrapper exists for a product ID.
func Supported(id ProductID) bool {
	_, ok := factories[id]
	return ok
}

// NewProduct instantiates the typed wrapper for a product ID.
//
// Parameters:
//   - id: Product ID reported by the bridge for the node
//   - slave: Modbus slave address of the node
//   - c: Shared transport client
//
// Returns:
//   - Product: Typed node wrapper
//   - error: ErrUnknownProduct when no wrapper is registered for id
func NewProduct(id ProductID, slave uint8, c *client.Client) (Product, error) {
	factory, ok := factories[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProduct, id)
	}
	return factory(slave, c)
}
