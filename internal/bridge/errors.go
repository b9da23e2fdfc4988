package bridge

import "errors"

// Domain errors for the bridge package.
var (
	// ErrInvalidSlave is returned when a binding request names a Modbus
	// slave address outside 2-247 or one already taken by the bridge.
	ErrInvalidSlave = errors.New("bridge: invalid slave address")

	// ErrBindingNotReady is returned when the bridge reports a non-idle
	// binding status after an abort, so no new binding can start.
	ErrBindingNotReady = errors.New("bridge: not ready for binding")

	// ErrNodeNotFound is returned when a slave address does not appear
	// in the bound node directory.
	ErrNodeNotFound = errors.New("bridge: node not found")
)
