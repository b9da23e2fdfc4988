// Package clienttest provides an in-memory Channel implementation for
// exercising the transport client and the device layer without a
// bridge on the wire.
package clienttest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/grid-x/modbus"

	"github.com/ventlogic/airios-bridge/internal/client"
)

// Call records one channel operation for assertions on ordering and
// pacing.
type Call struct {
	Op       string // "read", "write" or "writes"
	Slave    uint8
	Address  uint16
	Quantity uint16
	At       time.Time
}

// Channel is a fake register transport backed by an in-memory register
// map per slave. Writes are stored, so a follow-up read observes them.
//
// Errors are injected per address: a read or write hitting an address
// present in ReadErrs/WriteErrs returns that error instead of touching
// the register map. Reads of addresses that were never set return an
// illegal data address exception, like a real device would.
type Channel struct {
	mu sync.Mutex

	registers map[uint8]map[uint16]uint16
	connected bool

	// ConnectErr, when set, makes Connect fail.
	ConnectErr error
	// ReadErrs maps register addresses to injected read failures.
	ReadErrs map[uint16]error
	// WriteErrs maps register addresses to injected write failures.
	WriteErrs map[uint16]error

	// Connects and Closes count lifecycle calls.
	Connects int
	Closes   int
	// Calls logs every read and write in order.
	Calls []Call
}

var _ client.Channel = (*Channel)(nil)

// New creates an empty fake channel.
func New() *Channel {
	return &Channel{
		registers: make(map[uint8]map[uint16]uint16),
		ReadErrs:  make(map[uint16]error),
		WriteErrs: make(map[uint16]error),
	}
}

// SetRegisters seeds consecutive register words for a slave starting
// at address.
func (c *Channel) SetRegisters(slave uint8, address uint16, words ...uint16) {
	c.mu.Lock()
	defer c.mu.Unlock()
	bank := c.registers[slave]
	if bank == nil {
		bank = make(map[uint16]uint16)
		c.registers[slave] = bank
	}
	for i, w := range words {
		bank[address+uint16(i)] = w
	}
}

// Register returns the current word at an address and whether it was
// ever written or seeded.
func (c *Channel) Register(slave uint8, address uint16) (uint16, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	w, ok := c.registers[slave][address]
	return w, ok
}

// Connect opens the fake transport, failing with ConnectErr when set.
func (c *Channel) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Connects++
	if c.ConnectErr != nil {
		return c.ConnectErr
	}
	c.connected = true
	return nil
}

// Close marks the fake transport as down.
func (c *Channel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Closes++
	c.connected = false
	return nil
}

// Connected reports whether the fake transport is open.
func (c *Channel) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// ReadHolding returns seeded register words, an injected error, or an
// illegal data address exception for unseeded registers.
func (c *Channel) ReadHolding(_ context.Context, slave uint8, address, quantity uint16) ([]uint16, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls = append(c.Calls, Call{Op: "read", Slave: slave, Address: address, Quantity: quantity, At: time.Now()})

	if err := c.ReadErrs[address]; err != nil {
		return nil, err
	}

	words := make([]uint16, quantity)
	bank := c.registers[slave]
	for i := range words {
		w, ok := bank[address+uint16(i)]
		if !ok {
			return nil, &modbus.Error{
				FunctionCode:  modbus.FuncCodeReadHoldingRegisters | 0x80,
				ExceptionCode: modbus.ExceptionCodeIllegalDataAddress,
			}
		}
		words[i] = w
	}
	return words, nil
}

// WriteRegister stores a single register word.
func (c *Channel) WriteRegister(_ context.Context, slave uint8, address, value uint16) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls = append(c.Calls, Call{Op: "write", Slave: slave, Address: address, Quantity: 1, At: time.Now()})

	if err := c.WriteErrs[address]; err != nil {
		return err
	}
	c.storeLocked(slave, address, value)
	return nil
}

// WriteRegisters stores a block of register words.
func (c *Channel) WriteRegisters(_ context.Context, slave uint8, address uint16, values []uint16) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls = append(c.Calls, Call{Op: "writes", Slave: slave, Address: address, Quantity: uint16(len(values)), At: time.Now()})

	if err := c.WriteErrs[address]; err != nil {
		return err
	}
	for i, w := range values {
		c.storeLocked(slave, address+uint16(i), w)
	}
	return nil
}

func (c *Channel) storeLocked(slave uint8, address, value uint16) {
	bank := c.registers[slave]
	if bank == nil {
		bank = make(map[uint16]uint16)
		c.registers[slave] = bank
	}
	bank[address] = value
}

// CallsFor filters the call log by operation.
func (c *Channel) CallsFor(op string) []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Call
	for _, call := range c.Calls {
		if call.Op == op {
			out = append(out, call)
		}
	}
	return out
}

// String aids test failure messages.
func (c *Call) String() string {
	return fmt.Sprintf("%s slave=%d addr=%d qty=%d", c.Op, c.Slave, c.Address, c.Quantity)
}
