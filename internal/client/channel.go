package client

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/grid-x/modbus"
)

// Factory defaults for the RTU transport. The bridge ships configured
// for 19200 baud 8E1.
const (
	defaultBaudRate = 19200
	defaultDataBits = 8
	defaultParity   = "E"
	defaultStopBits = 1
	defaultTimeout  = 5 * time.Second
)

// Channel is the raw register transport under the Client. It is not
// safe for concurrent use; the Client serializes all access.
type Channel interface {
	Connect() error
	Close() error
	Connected() bool
	ReadHolding(ctx context.Context, slave uint8, address, quantity uint16) ([]uint16, error)
	WriteRegister(ctx context.Context, slave uint8, address, value uint16) error
	WriteRegisters(ctx context.Context, slave uint8, address uint16, values []uint16) error
}

// errEchoMismatch marks a write response that does not echo the request.
var errEchoMismatch = errors.New("response does not echo request")

// clientHandler is the grid-x handler surface the channel needs:
// framing plus transport connect/close.
type clientHandler interface {
	modbus.ClientHandler
	modbus.Connector
}

// ModbusChannel adapts a grid-x Modbus handler (RTU or TCP) to the
// Channel interface, converting between response bytes and register
// words.
type ModbusChannel struct {
	handler   clientHandler
	client    modbus.Client
	connected bool
}

var _ Channel = (*ModbusChannel)(nil)

// RTUOptions configures a Modbus RTU serial channel.
type RTUOptions struct {
	// Device is the serial device path, e.g. /dev/ttyACM0.
	Device string
	// BaudRate defaults to 19200.
	BaudRate int
	// DataBits defaults to 8.
	DataBits int
	// Parity defaults to "E" (even).
	Parity string
	// StopBits defaults to 1.
	StopBits int
	// Timeout is the per-request timeout. Defaults to 5s.
	Timeout time.Duration
}

// NewRTUChannel creates a channel over a serial RTU connection.
func NewRTUChannel(opts RTUOptions) *ModbusChannel {
	if opts.BaudRate == 0 {
		opts.BaudRate = defaultBaudRate
	}
	if opts.DataBits == 0 {
		opts.DataBits = defaultDataBits
	}
	if opts.Parity == "" {
		opts.Parity = defaultParity
	}
	if opts.StopBits == 0 {
		opts.StopBits = defaultStopBits
	}
	if opts.Timeout == 0 {
		opts.Timeout = defaultTimeout
	}

	handler := modbus.NewRTUClientHandler(opts.Device)
	handler.BaudRate = opts.BaudRate
	handler.DataBits = opts.DataBits
	handler.Parity = opts.Parity
	handler.StopBits = opts.StopBits
	handler.Timeout = opts.Timeout

	return &ModbusChannel{handler: handler, client: modbus.NewClient(handler)}
}

// TCPOptions configures a Modbus TCP channel.
type TCPOptions struct {
	// Address is the host:port of the bridge.
	Address string
	// Timeout is the per-request timeout. Defaults to 5s.
	Timeout time.Duration
}

// NewTCPChannel creates a channel over a Modbus TCP connection.
func NewTCPChannel(opts TCPOptions) *ModbusChannel {
	if opts.Timeout == 0 {
		opts.Timeout = defaultTimeout
	}

	handler := modbus.NewTCPClientHandler(opts.Address)
	handler.Timeout = opts.Timeout

	return &ModbusChannel{handler: handler, client: modbus.NewClient(handler)}
}

// Connect opens the underlying transport. Connecting an already
// connected channel is a no-op.
func (m *ModbusChannel) Connect() error {
	if m.connected {
		return nil
	}
	if err := m.handler.Connect(context.Background()); err != nil {
		return err
	}
	m.connected = true
	return nil
}

// Close shuts down the underlying transport.
func (m *ModbusChannel) Close() error {
	if !m.connected {
		return nil
	}
	m.connected = false
	return m.handler.Close()
}

// Connected reports whether the transport is open.
func (m *ModbusChannel) Connected() bool { return m.connected }

// ReadHolding reads a contiguous block of holding registers from a
// slave and returns the register words.
func (m *ModbusChannel) ReadHolding(ctx context.Context, slave uint8, address, quantity uint16) ([]uint16, error) {
	m.handler.SetSlave(slave)
	data, err := m.client.ReadHoldingRegisters(ctx, address, quantity)
	if err != nil {
		return nil, err
	}
	if len(data) != int(quantity)*2 {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrRead, len(data), quantity*2)
	}
	words := make([]uint16, quantity)
	for i := range words {
		words[i] = binary.BigEndian.Uint16(data[2*i:])
	}
	return words, nil
}

// WriteRegister writes a single holding register and verifies the echo.
func (m *ModbusChannel) WriteRegister(ctx context.Context, slave uint8, address, value uint16) error {
	m.handler.SetSlave(slave)
	results, err := m.client.WriteSingleRegister(ctx, address, value)
	if err != nil {
		return err
	}
	if len(results) < 2 || binary.BigEndian.Uint16(results) != value {
		return errEchoMismatch
	}
	return nil
}

// WriteRegisters writes a block of holding registers and verifies the
// echoed register count.
func (m *ModbusChannel) WriteRegisters(ctx context.Context, slave uint8, address uint16, values []uint16) error {
	m.handler.SetSlave(slave)
	data := make([]byte, len(values)*2)
	for i, w := range values {
		binary.BigEndian.PutUint16(data[2*i:], w)
	}
	results, err := m.client.WriteMultipleRegisters(ctx, address, uint16(len(values)), data)
	if err != nil {
		return err
	}
	if len(results) < 2 || binary.BigEndian.Uint16(results) != uint16(len(values)) {
		return errEchoMismatch
	}
	return nil
}
