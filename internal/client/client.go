package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/grid-x/modbus"

	"github.com/ventlogic/airios-bridge/internal/registers"
)

// DefaultPace is the minimum time between two commands sent to the
// bridge. Commands sent faster than this are silently dropped by the
// device, notably when connected over USB.
const DefaultPace = 10 * time.Millisecond

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Options configures a Client.
type Options struct {
	// Pace is the minimum inter-command delay. Defaults to DefaultPace.
	Pace time.Duration
	// Logger receives transport diagnostics. Optional.
	Logger Logger
}

// Client is the serialized register client shared by every device bound
// to one bridge.
//
// Thread Safety:
//   - All methods are safe for concurrent use. A single mutex spans
//     each complete exchange, including the status follow-up read of
//     GetRegister, so exchanges never interleave on the wire.
type Client struct {
	ch  Channel
	log Logger

	mu     sync.Mutex
	pace   time.Duration
	lastOp time.Time
}

// New creates a Client on top of a channel.
func New(ch Channel, opts Options) *Client {
	pace := opts.Pace
	if pace == 0 {
		pace = DefaultPace
	}
	return &Client{ch: ch, log: opts.Logger, pace: pace}
}

// Connect eagerly opens the underlying channel. Operations connect
// lazily on demand, so calling Connect is optional.
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ensureConnected()
}

// Close shuts down the underlying channel.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ch.Close()
}

// GetRegister reads a register from a slave and decodes it. For
// registers with a status word, the freshness follow-up read happens
// within the same exchange.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - slave: Modbus slave address of the device
//   - desc: Register descriptor to read
//
// Returns:
//   - registers.Value: Decoded value, with freshness when available
//   - error: Capability, transport or decode error
func (c *Client) GetRegister(ctx context.Context, slave uint8, desc *registers.Descriptor) (registers.Value, error) {
	if !desc.Access.CanRead() {
		c.warn("attempt to read write-only register", "property", desc.Property, "address", desc.Address)
		return registers.Value{}, fmt.Errorf("%w: %s", registers.ErrNotReadable, desc.Property)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.debug("reading register", "property", desc.Property, "address", desc.Address, "slave", slave)

	words, err := c.readLocked(ctx, slave, desc.Address, desc.Words())
	if err != nil {
		return registers.Value{}, err
	}
	raw, err := desc.DecodeValue(words)
	if err != nil {
		return registers.Value{}, err
	}

	value := registers.Value{Raw: raw}
	if desc.Access.HasStatus() {
		status, err := c.readLocked(ctx, slave, desc.Address+registers.StatusOffset, 1)
		if err != nil {
			return registers.Value{}, err
		}
		freshness := registers.DecodeStatus(status[0])
		value.Status = &freshness
	}
	return value, nil
}

// SetRegister encodes and writes a value to a register on a slave.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - slave: Modbus slave address of the device
//   - desc: Register descriptor to write
//   - value: Go value matching the register codec
//
// Returns:
//   - error: nil when the device confirmed the write
func (c *Client) SetRegister(ctx context.Context, slave uint8, desc *registers.Descriptor, value any) error {
	if !desc.Access.CanWrite() {
		c.warn("attempt to write read-only register", "property", desc.Property, "address", desc.Address)
		return fmt.Errorf("%w: %s", registers.ErrNotWritable, desc.Property)
	}

	words, err := desc.EncodeValue(value)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.debug("writing register", "property", desc.Property, "address", desc.Address, "slave", slave, "words", words)

	if err := c.ensureConnected(); err != nil {
		return err
	}
	if err := c.waitPace(ctx); err != nil {
		return err
	}
	if len(words) == 1 {
		err = c.ch.WriteRegister(ctx, slave, desc.Address, words[0])
	} else {
		err = c.ch.WriteRegisters(ctx, slave, desc.Address, words)
	}
	c.lastOp = time.Now()
	if err != nil {
		return c.mapError(err, true)
	}
	return nil
}

// ReadBlock reads a contiguous block of raw register words. It is the
// primitive under the bulk fetch path; no decoding or status reads are
// performed.
func (c *Client) ReadBlock(ctx context.Context, slave uint8, address, quantity uint16) ([]uint16, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.debug("reading block", "address", address, "quantity", quantity, "slave", slave)

	return c.readLocked(ctx, slave, address, quantity)
}

// readLocked performs one paced read. The caller holds c.mu.
func (c *Client) readLocked(ctx context.Context, slave uint8, address, quantity uint16) ([]uint16, error) {
	if err := c.ensureConnected(); err != nil {
		return nil, err
	}
	if err := c.waitPace(ctx); err != nil {
		return nil, err
	}
	words, err := c.ch.ReadHolding(ctx, slave, address, quantity)
	c.lastOp = time.Now()
	if err != nil {
		return nil, c.mapError(err, false)
	}
	return words, nil
}

// ensureConnected lazily connects the channel, at most one attempt per
// operation. The caller holds c.mu.
func (c *Client) ensureConnected() error {
	if c.ch.Connected() {
		return nil
	}
	c.debug("establishing connection")
	if err := c.ch.Connect(); err != nil {
		c.error("failed to establish connection", "error", err)
		c.ch.Close()
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	return nil
}

// waitPace enforces the minimum inter-command delay. The caller holds c.mu.
func (c *Client) waitPace(ctx context.Context) error {
	wait := c.pace - time.Since(c.lastOp)
	if wait <= 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// mapError translates channel failures to the package error taxonomy.
// Transport-level failures close the channel so the next operation
// reconnects. The caller holds c.mu.
func (c *Client) mapError(err error, write bool) error {
	base := ErrRead
	if write {
		base = ErrWrite
	}

	var mbErr *modbus.Error
	if errors.As(err, &mbErr) {
		switch mbErr.ExceptionCode {
		case modbus.ExceptionCodeServerDeviceBusy:
			return fmt.Errorf("%w: %v", ErrSlaveBusy, err)
		case modbus.ExceptionCodeServerDeviceFailure:
			return fmt.Errorf("%w: %v", ErrSlaveFailure, err)
		case modbus.ExceptionCodeAcknowledge:
			return fmt.Errorf("%w: %v", ErrAcknowledge, err)
		default:
			return fmt.Errorf("%w: exception code %d", base, mbErr.ExceptionCode)
		}
	}

	// Short responses are detected by the channel and already tagged.
	if errors.Is(err, ErrRead) {
		return err
	}
	if errors.Is(err, errEchoMismatch) {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	c.error("connection interrupted", "error", err)
	c.ch.Close()
	return fmt.Errorf("%w: %v", ErrConnectionInterrupted, err)
}

func (c *Client) debug(msg string, args ...any) {
	if c.log != nil {
		c.log.Debug(msg, args...)
	}
}

func (c *Client) warn(msg string, args ...any) {
	if c.log != nil {
		c.log.Warn(msg, args...)
	}
}

func (c *Client) error(msg string, args ...any) {
	if c.log != nil {
		c.log.Error(msg, args...)
	}
}
