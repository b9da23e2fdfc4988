package registers

import "errors"

// Domain errors for the register model.
var (
	// ErrDecode is returned when register words cannot be decoded to a value.
	ErrDecode = errors.New("registers: decoding failed")

	// ErrInvalidValue is returned when a value cannot be encoded for its
	// register, either because the Go type does not match the codec or
	// because the value is out of range.
	ErrInvalidValue = errors.New("registers: invalid value")

	// ErrNotReadable is returned on a read attempt against a write-only register.
	ErrNotReadable = errors.New("registers: register is not readable")

	// ErrNotWritable is returned on a write attempt against a read-only register.
	ErrNotWritable = errors.New("registers: register is not writable")

	// ErrDuplicateRegister is returned when a table is built with two
	// descriptors sharing an address or a property name.
	ErrDuplicateRegister = errors.New("registers: duplicate register")

	// ErrUnknownProperty is returned when a table lookup misses.
	ErrUnknownProperty = errors.New("registers: unknown property")
)
