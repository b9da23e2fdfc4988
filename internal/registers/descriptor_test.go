package registers

import (
	"errors"
	"fmt"
	"testing"
)

// ─── Descriptor ────────────────────────────────────────────────────

func TestDescriptorDecodeValueAdapter(t *testing.T) {
	d := Descriptor{
		Property: "doubled",
		Address:  41000,
		Codec:    U16{},
		Access:   AccessRead,
		Adapt: func(v any) (any, error) {
			return v.(uint16) * 2, nil
		},
	}

	got, err := d.DecodeValue([]uint16{21})
	if err != nil {
		t.Fatalf("DecodeValue() error = %v", err)
	}
	if got.(uint16) != 42 {
		t.Errorf("DecodeValue() = %v, want 42", got)
	}
}

func TestDescriptorDecodeValueAdapterError(t *testing.T) {
	d := Descriptor{
		Property: "strict",
		Address:  41000,
		Codec:    U16{},
		Access:   AccessRead,
		Adapt: func(any) (any, error) {
			return nil, fmt.Errorf("%w: no such code", ErrDecode)
		},
	}

	if _, err := d.DecodeValue([]uint16{9}); !errors.Is(err, ErrDecode) {
		t.Errorf("DecodeValue() error = %v, want ErrDecode", err)
	}
}

func TestDescriptorDecodeValueLengthMismatch(t *testing.T) {
	d := Descriptor{Property: "p", Address: 40000, Codec: U32{}, Access: AccessRead}
	if _, err := d.DecodeValue([]uint16{1}); !errors.Is(err, ErrDecode) {
		t.Errorf("DecodeValue(short) error = %v, want ErrDecode", err)
	}
}

func TestDescriptorEncodeValueMax(t *testing.T) {
	d := Descriptor{
		Property: "fan_speed_low_supply",
		Address:  42003,
		Codec:    U16{},
		Access:   AccessRead | AccessWrite,
		Max:      80,
	}

	if _, err := d.EncodeValue(80); err != nil {
		t.Errorf("EncodeValue(80) error = %v, want nil", err)
	}
	if _, err := d.EncodeValue(81); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("EncodeValue(81) error = %v, want ErrInvalidValue", err)
	}
}

// ─── Table ─────────────────────────────────────────────────────────

func TestNewTableOrdersAndIndexes(t *testing.T) {
	table, err := NewTable(
		[]Descriptor{
			{Property: "b", Address: 40010, Codec: U16{}, Access: AccessRead},
			{Property: "a", Address: 40000, Codec: U32{}, Access: AccessRead},
		},
		[]Descriptor{
			{Property: "c", Address: 40005, Codec: U16{}, Access: AccessWrite},
		},
	)
	if err != nil {
		t.Fatalf("NewTable() error = %v", err)
	}

	props := table.Properties()
	want := []Property{"a", "c", "b"}
	for i, p := range want {
		if props[i] != p {
			t.Fatalf("Properties() = %v, want %v", props, want)
		}
	}

	readable := table.Readable()
	if len(readable) != 2 {
		t.Fatalf("Readable() returned %d descriptors, want 2", len(readable))
	}
	if readable[0].Property != "a" || readable[1].Property != "b" {
		t.Errorf("Readable() = [%s %s], want [a b]", readable[0].Property, readable[1].Property)
	}

	d, err := table.Lookup("c")
	if err != nil {
		t.Fatalf("Lookup(c) error = %v", err)
	}
	if d.Address != 40005 {
		t.Errorf("Lookup(c).Address = %d, want 40005", d.Address)
	}

	if _, err := table.Lookup("missing"); !errors.Is(err, ErrUnknownProperty) {
		t.Errorf("Lookup(missing) error = %v, want ErrUnknownProperty", err)
	}
}

func TestNewTableRejectsDuplicates(t *testing.T) {
	tests := []struct {
		name   string
		groups [][]Descriptor
	}{
		{
			"duplicate address",
			[][]Descriptor{{
				{Property: "x", Address: 40000, Codec: U16{}, Access: AccessRead},
				{Property: "y", Address: 40000, Codec: U16{}, Access: AccessRead},
			}},
		},
		{
			"duplicate property across groups",
			[][]Descriptor{
				{{Property: "x", Address: 40000, Codec: U16{}, Access: AccessRead}},
				{{Property: "x", Address: 40001, Codec: U16{}, Access: AccessRead}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewTable(tt.groups...); !errors.Is(err, ErrDuplicateRegister) {
				t.Errorf("NewTable() error = %v, want ErrDuplicateRegister", err)
			}
		})
	}
}
