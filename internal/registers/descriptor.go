package registers

import (
	"fmt"
	"sort"
)

// Property identifies a register by name, e.g. "rf_address" or
// "requested_ventilation_speed". Product packages define their
// property constants next to their register tables.
type Property string

// Access describes how a register may be used.
type Access uint8

// Access flags. A register can combine them, e.g. a writable preset that
// also carries a freshness status word.
const (
	AccessRead Access = 1 << iota
	AccessWrite
	AccessStatus
)

// CanRead reports whether the register may be read.
func (a Access) CanRead() bool { return a&AccessRead != 0 }

// CanWrite reports whether the register may be written.
func (a Access) CanWrite() bool { return a&AccessWrite != 0 }

// HasStatus reports whether the register has a status word at
// address+StatusOffset.
func (a Access) HasStatus() bool { return a&AccessStatus != 0 }

// Descriptor describes a single device register.
type Descriptor struct {
	// Property is the register's stable name.
	Property Property

	// Address is the holding-register address of the first word.
	Address uint16

	// Codec converts between register words and Go values.
	Codec Codec

	// Access holds the read/write/status capability flags.
	Access Access

	// Max optionally caps writable numeric values. Zero means no cap.
	Max uint16

	// Adapt optionally converts the codec output to a domain value,
	// e.g. a raw u16 to a battery status. Adapter errors surface as
	// decode errors.
	Adapt func(any) (any, error)
}

// Words returns the register length in words.
func (d *Descriptor) Words() uint16 { return d.Codec.Words() }

// DecodeValue decodes register words and applies the adapter, if any.
func (d *Descriptor) DecodeValue(words []uint16) (any, error) {
	if len(words) != int(d.Words()) {
		return nil, fmt.Errorf("%w: %s expects %d words, got %d",
			ErrDecode, d.Property, d.Words(), len(words))
	}
	v, err := d.Codec.Decode(words)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", d.Property, err)
	}
	if d.Adapt != nil {
		v, err = d.Adapt(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", d.Property, err)
		}
	}
	return v, nil
}

// EncodeValue encodes a Go value to register words, enforcing the
// optional Max cap for integer values.
func (d *Descriptor) EncodeValue(value any) ([]uint16, error) {
	if d.Max > 0 {
		var n int
		switch v := value.(type) {
		case int:
			n = v
		case uint16:
			n = int(v)
		default:
			n = -1
		}
		if n > int(d.Max) {
			return nil, fmt.Errorf("%w: %s value %d exceeds maximum %d",
				ErrInvalidValue, d.Property, n, d.Max)
		}
	}
	words, err := d.Codec.Encode(value)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", d.Property, err)
	}
	return words, nil
}

// Table is an immutable register map for one device model: descriptors
// ordered by address plus a property index.
type Table struct {
	ordered []*Descriptor
	byProp  map[Property]*Descriptor
}

// NewTable builds a table from one or more descriptor groups, typically
// a shared base set plus product-specific registers. Duplicate addresses
// or property names are construction errors.
func NewTable(groups ...[]Descriptor) (*Table, error) {
	t := &Table{byProp: make(map[Property]*Descriptor)}
	byAddr := make(map[uint16]Property)
	for _, group := range groups {
		for i := range group {
			d := group[i]
			if prev, ok := byAddr[d.Address]; ok {
				return nil, fmt.Errorf("%w: address %d used by %s and %s",
					ErrDuplicateRegister, d.Address, prev, d.Property)
			}
			if _, ok := t.byProp[d.Property]; ok {
				return nil, fmt.Errorf("%w: property %s defined twice",
					ErrDuplicateRegister, d.Property)
			}
			byAddr[d.Address] = d.Property
			t.byProp[d.Property] = &d
			t.ordered = append(t.ordered, &d)
		}
	}
	sort.Slice(t.ordered, func(i, j int) bool {
		return t.ordered[i].Address < t.ordered[j].Address
	})
	return t, nil
}

// MustTable is like NewTable but panics on error. Product register maps
// are static data, so a failure here is a programming error caught by
// the package tests.
func MustTable(groups ...[]Descriptor) *Table {
	t, err := NewTable(groups...)
	if err != nil {
		panic(err)
	}
	return t
}

// Lookup returns the descriptor for a property.
func (t *Table) Lookup(p Property) (*Descriptor, error) {
	d, ok := t.byProp[p]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProperty, p)
	}
	return d, nil
}

// Readable returns the read-capable descriptors ordered by address.
func (t *Table) Readable() []*Descriptor {
	out := make([]*Descriptor, 0, len(t.ordered))
	for _, d := range t.ordered {
		if d.Access.CanRead() {
			out = append(out, d)
		}
	}
	return out
}

// Properties returns all property names ordered by register address.
func (t *Table) Properties() []Property {
	out := make([]Property, len(t.ordered))
	for i, d := range t.ordered {
		out[i] = d.Property
	}
	return out
}

// Len returns the number of registers in the table.
func (t *Table) Len() int { return len(t.ordered) }
