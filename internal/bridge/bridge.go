package bridge

import (
	"context"
	"fmt"
	"time"

	"github.com/ventlogic/airios-bridge/internal/client"
	"github.com/ventlogic/airios-bridge/internal/device"
	"github.com/ventlogic/airios-bridge/internal/registers"
)

// DefaultSlave is the factory Modbus slave address of the bridge.
const DefaultSlave = 207

// Options configures a Bridge.
type Options struct {
	// Slave is the bridge Modbus address. Defaults to DefaultSlave.
	Slave uint8
	// Logger receives directory scan diagnostics. Optional.
	Logger client.Logger
}

// Bridge is a BRDG-02R13 gateway: the common node registers plus the
// gateway register group.
type Bridge struct {
	*device.Node
	log client.Logger
}

// New creates a bridge handle on the shared transport client.
func New(c *client.Client, opts Options) (*Bridge, error) {
	slave := opts.Slave
	if slave == 0 {
		slave = DefaultSlave
	}
	n, err := device.NewNode(slave, c, bridgeRegisters())
	if err != nil {
		return nil, err
	}
	return &Bridge{Node: n, log: opts.Logger}, nil
}

func (b *Bridge) String() string {
	return fmt.Sprintf("BRDG-02R13@%d", b.Slave())
}

// Product returns the bridge product ID.
func (b *Bridge) Product() device.ProductID { return device.ProductBRDG02R13 }

// SnapshotProperties is the property set fetched for a bridge state
// snapshot.
func (b *Bridge) SnapshotProperties() []registers.Property {
	return []registers.Property{
		device.PropRFAddress, device.PropProductID, device.PropSoftwareVersion,
		device.PropProductName, device.PropRFCommStatus,
		device.PropBatteryStatus, device.PropFaultStatus,
		PropUptime, PropMessagesCurrentHour, PropMessagesLastHour,
		PropRFLoadCurrentHour, PropRFLoadLastHour,
	}
}

// SerialConfig returns the bridge serial line settings.
func (b *Bridge) SerialConfig(ctx context.Context) (SerialConfig, error) {
	var cfg SerialConfig
	v, err := b.Get(ctx, PropSerialBaudrate)
	if err != nil {
		return cfg, err
	}
	cfg.Baudrate = Baudrate(v.Raw.(uint16))
	if v, err = b.Get(ctx, PropSerialParity); err != nil {
		return cfg, err
	}
	cfg.Parity = Parity(v.Raw.(uint16))
	if v, err = b.Get(ctx, PropSerialStopBits); err != nil {
		return cfg, err
	}
	cfg.StopBits = StopBits(v.Raw.(uint16))
	return cfg, nil
}

// SetSerialConfig writes the bridge serial line settings. The new
// settings take effect after a reset.
func (b *Bridge) SetSerialConfig(ctx context.Context, cfg SerialConfig) error {
	if err := b.Set(ctx, PropSerialBaudrate, uint16(cfg.Baudrate)); err != nil {
		return fmt.Errorf("set baudrate: %w", err)
	}
	if err := b.Set(ctx, PropSerialParity, uint16(cfg.Parity)); err != nil {
		return fmt.Errorf("set parity: %w", err)
	}
	if err := b.Set(ctx, PropSerialStopBits, uint16(cfg.StopBits)); err != nil {
		return fmt.Errorf("set stop bits: %w", err)
	}
	return nil
}

// ModbusEvents returns the configured unsolicited event mode.
func (b *Bridge) ModbusEvents(ctx context.Context) (ModbusEvents, error) {
	v, err := b.Get(ctx, PropModbusEvents)
	if err != nil {
		return 0, err
	}
	return v.Raw.(ModbusEvents), nil
}

// SetModbusEvents configures the unsolicited event mode.
func (b *Bridge) SetModbusEvents(ctx context.Context, mode ModbusEvents) error {
	return b.Set(ctx, PropModbusEvents, uint16(mode))
}

// Uptime returns the time since the last power on or reset.
func (b *Bridge) Uptime(ctx context.Context) (time.Duration, error) {
	v, err := b.Get(ctx, PropUptime)
	if err != nil {
		return 0, err
	}
	return time.Duration(v.Raw.(uint32)) * time.Second, nil
}

// UTCTime returns the bridge clock in UTC.
func (b *Bridge) UTCTime(ctx context.Context) (time.Time, error) {
	v, err := b.Get(ctx, PropUTCTime)
	if err != nil {
		return time.Time{}, err
	}
	return v.Raw.(time.Time), nil
}

// SetUTCTime sets the bridge clock.
func (b *Bridge) SetUTCTime(ctx context.Context, t time.Time) error {
	return b.Set(ctx, PropUTCTime, t.UTC())
}

// Reset restarts the bridge. A factory reset also clears all bound
// nodes.
func (b *Bridge) Reset(ctx context.Context, mode ResetMode) error {
	return b.Set(ctx, PropResetDevice, uint16(mode))
}

// RFLoad returns the RF duty cycle of the current and last hour (%).
func (b *Bridge) RFLoad(ctx context.Context) (RFLoad, error) {
	var load RFLoad
	v, err := b.Get(ctx, PropRFLoadCurrentHour)
	if err != nil {
		return load, err
	}
	load.CurrentHour = v.Raw.(float64)
	if v, err = b.Get(ctx, PropRFLoadLastHour); err != nil {
		return load, err
	}
	load.LastHour = v.Raw.(float64)
	return load, nil
}

// RFSentMessages returns the RF transmission counters of the current
// and last hour.
func (b *Bridge) RFSentMessages(ctx context.Context) (RFSentMessages, error) {
	var sent RFSentMessages
	v, err := b.Get(ctx, PropMessagesCurrentHour)
	if err != nil {
		return sent, err
	}
	sent.CurrentHour = v.Raw.(uint16)
	if v, err = b.Get(ctx, PropMessagesLastHour); err != nil {
		return sent, err
	}
	sent.LastHour = v.Raw.(uint16)
	return sent, nil
}
