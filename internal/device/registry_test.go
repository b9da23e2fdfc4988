package device_test

import (
	"errors"
	"testing"

	"github.com/ventlogic/airios-bridge/internal/device"
)

func TestNewProduct(t *testing.T) {
	_, c := newFake(t)

	p, err := device.NewProduct(device.ProductVMD02RPS78, 3, c)
	if err != nil {
		t.Fatalf("NewProduct(VMD) error = %v", err)
	}
	if p.Product() != device.ProductVMD02RPS78 || p.Slave() != 3 {
		t.Errorf("NewProduct(VMD) = %v@%d", p.Product(), p.Slave())
	}

	p, err = device.NewProduct(device.ProductVMN05LM02, 4, c)
	if err != nil {
		t.Fatalf("NewProduct(VMN) error = %v", err)
	}
	if _, ok := p.(*device.VMN05LM02); !ok {
		t.Errorf("NewProduct(VMN) returned %T, want *VMN05LM02", p)
	}
}

func TestNewProductUnknown(t *testing.T) {
	_, c := newFake(t)

	// VMN-02LM11 is recognized but has no typed wrapper yet.
	if _, err := device.NewProduct(device.ProductVMN02LM11, 5, c); !errors.Is(err, device.ErrUnknownProduct) {
		t.Errorf("NewProduct(VMN-02LM11) error = %v, want ErrUnknownProduct", err)
	}
}

func TestSupported(t *testing.T) {
	if !device.Supported(device.ProductVMD02RPS78) {
		t.Error("VMD-02RPS78 must be supported")
	}
	if device.Supported(device.ProductBRDG02R13) {
		t.Error("the bridge itself is not a bound product")
	}
}
