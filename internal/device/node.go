package device

import (
	"context"
	"fmt"
	"time"

	"github.com/ventlogic/airios-bridge/internal/client"
	"github.com/ventlogic/airios-bridge/internal/registers"
)

// Properties common to every RF node.
const (
	PropRFAddress         registers.Property = "rf_address"
	PropProductID         registers.Property = "product_id"
	PropSoftwareVersion   registers.Property = "software_version"
	PropOEMNumber         registers.Property = "oem_number"
	PropRFCapabilities    registers.Property = "rf_capabilities"
	PropManufactureDate   registers.Property = "manufacture_date"
	PropSoftwareBuildDate registers.Property = "software_build_date"
	PropProductName       registers.Property = "product_name"
	PropReceivedProductID registers.Property = "received_product_id"
	PropRFCommStatus      registers.Property = "rf_comm_status"
	PropBatteryStatus     registers.Property = "battery_status"
	PropFaultStatus       registers.Property = "fault_status"

	PropRFStatsIndex    registers.Property = "rf_stats_index"
	PropRFStatsLength   registers.Property = "rf_stats_length"
	PropRFStatsDevice   registers.Property = "rf_stats_device"
	PropRFStatsAverage  registers.Property = "rf_stats_average"
	PropRFStatsStdDev   registers.Property = "rf_stats_stddev"
	PropRFStatsMin      registers.Property = "rf_stats_min"
	PropRFStatsMax      registers.Property = "rf_stats_max"
	PropRFStatsMissed   registers.Property = "rf_stats_missed"
	PropRFStatsReceived registers.Property = "rf_stats_received"
	PropRFStatsAge      registers.Property = "rf_stats_age"

	PropFaultHistoryIndex      registers.Property = "fault_history_index"
	PropFaultHistoryLength     registers.Property = "fault_history_length"
	PropFaultHistoryTimestamp  registers.Property = "fault_history_timestamp"
	PropFaultHistoryFaultCode  registers.Property = "fault_history_fault_code"
	PropFaultHistoryStatusInfo registers.Property = "fault_history_status_info"
	PropFaultHistoryCommStatus registers.Property = "fault_history_comm_status"
)

// nodeRegisters is the register group shared by the bridge and every
// bound node.
func nodeRegisters() []registers.Descriptor {
	return []registers.Descriptor{
		{Property: PropRFAddress, Address: 40000, Codec: registers.U32{}, Access: registers.AccessRead},
		{Property: PropProductID, Address: 40002, Codec: registers.U32{}, Access: registers.AccessRead, Adapt: adaptProductID},
		{Property: PropSoftwareVersion, Address: 40004, Codec: registers.U16{}, Access: registers.AccessRead},
		{Property: PropOEMNumber, Address: 40005, Codec: registers.U16{}, Access: registers.AccessRead},
		{Property: PropRFCapabilities, Address: 40006, Codec: registers.U16{}, Access: registers.AccessRead},
		{Property: PropManufactureDate, Address: 40007, Codec: registers.Date{}, Access: registers.AccessRead},
		{Property: PropSoftwareBuildDate, Address: 40009, Codec: registers.Date{}, Access: registers.AccessRead},
		{Property: PropProductName, Address: 40011, Codec: registers.String{Length: 10}, Access: registers.AccessRead},
		{Property: PropReceivedProductID, Address: 40021, Codec: registers.U32{}, Access: registers.AccessRead, Adapt: adaptProductID},
		{Property: PropRFCommStatus, Address: 40101, Codec: registers.U16{}, Access: registers.AccessRead, Adapt: adaptRFCommStatus},
		{Property: PropBatteryStatus, Address: 40102, Codec: registers.U16{}, Access: registers.AccessRead, Adapt: adaptBatteryStatus},
		{Property: PropFaultStatus, Address: 40103, Codec: registers.U16{}, Access: registers.AccessRead, Adapt: adaptFaultStatus},
		{Property: PropRFStatsIndex, Address: 40120, Codec: registers.U16{}, Access: registers.AccessRead | registers.AccessWrite},
		{Property: PropRFStatsLength, Address: 40121, Codec: registers.U16{}, Access: registers.AccessRead},
		{Property: PropRFStatsDevice, Address: 40122, Codec: registers.U32{}, Access: registers.AccessRead},
		{Property: PropRFStatsAverage, Address: 40124, Codec: registers.U16{}, Access: registers.AccessRead},
		{Property: PropRFStatsStdDev, Address: 40125, Codec: registers.F32{}, Access: registers.AccessRead},
		{Property: PropRFStatsMin, Address: 40127, Codec: registers.U16{}, Access: registers.AccessRead},
		{Property: PropRFStatsMax, Address: 40128, Codec: registers.U16{}, Access: registers.AccessRead},
		{Property: PropRFStatsMissed, Address: 40129, Codec: registers.U16{}, Access: registers.AccessRead},
		{Property: PropRFStatsReceived, Address: 40130, Codec: registers.U16{}, Access: registers.AccessRead},
		{Property: PropRFStatsAge, Address: 40131, Codec: registers.U16{}, Access: registers.AccessRead},
		{Property: PropFaultHistoryIndex, Address: 40300, Codec: registers.U16{}, Access: registers.AccessRead | registers.AccessWrite},
		{Property: PropFaultHistoryLength, Address: 40301, Codec: registers.U16{}, Access: registers.AccessRead | registers.AccessWrite},
		{Property: PropFaultHistoryTimestamp, Address: 40302, Codec: registers.DateTime{}, Access: registers.AccessRead},
		{Property: PropFaultHistoryFaultCode, Address: 40304, Codec: registers.U16{}, Access: registers.AccessRead},
		{Property: PropFaultHistoryStatusInfo, Address: 40305, Codec: registers.U32{}, Access: registers.AccessRead},
		{Property: PropFaultHistoryCommStatus, Address: 40307, Codec: registers.U16{}, Access: registers.AccessRead},
	}
}

// clearStatsIndex resets the RF statistics table on the node.
const clearStatsIndex = 255

// Node is an addressable unit on the bridge bus: the bridge itself or
// any bound RF node. It holds the register table and the shared
// transport client.
type Node struct {
	slave uint8
	c     *client.Client
	table *registers.Table
}

// NewNode creates a node from the common register group plus any
// product-specific groups.
func NewNode(slave uint8, c *client.Client, extra ...[]registers.Descriptor) (*Node, error) {
	groups := append([][]registers.Descriptor{nodeRegisters()}, extra...)
	table, err := registers.NewTable(groups...)
	if err != nil {
		return nil, err
	}
	return &Node{slave: slave, c: c, table: table}, nil
}

// Slave returns the Modbus slave address of the node.
func (n *Node) Slave() uint8 { return n.slave }

// Client returns the shared transport client.
func (n *Node) Client() *client.Client { return n.c }

// Table returns the node register table.
func (n *Node) Table() *registers.Table { return n.table }

// Get reads a register by property name.
func (n *Node) Get(ctx context.Context, prop registers.Property) (registers.Value, error) {
	desc, err := n.table.Lookup(prop)
	if err != nil {
		return registers.Value{}, err
	}
	return n.c.GetRegister(ctx, n.slave, desc)
}

// Set writes a register by property name.
func (n *Node) Set(ctx context.Context, prop registers.Property, value any) error {
	desc, err := n.table.Lookup(prop)
	if err != nil {
		return err
	}
	return n.c.SetRegister(ctx, n.slave, desc, value)
}

// RFAddress returns the node RF address, which doubles as the serial
// number.
func (n *Node) RFAddress(ctx context.Context) (uint32, error) {
	v, err := n.Get(ctx, PropRFAddress)
	if err != nil {
		return 0, err
	}
	return v.Raw.(uint32), nil
}

// ProductID returns the product ID assigned to the virtual node created
// by the bridge. The ID received over RF from the real device is in
// the received_product_id register.
func (n *Node) ProductID(ctx context.Context) (ProductID, error) {
	v, err := n.Get(ctx, PropProductID)
	if err != nil {
		return 0, err
	}
	return v.Raw.(ProductID), nil
}

// ReceivedProductID returns the product ID reported by the bound RF
// device. A mismatch with product_id means the wrong product is bound.
func (n *Node) ReceivedProductID(ctx context.Context) (ProductID, error) {
	v, err := n.Get(ctx, PropReceivedProductID)
	if err != nil {
		return 0, err
	}
	return v.Raw.(ProductID), nil
}

// SoftwareVersion returns the node firmware version.
func (n *Node) SoftwareVersion(ctx context.Context) (uint16, error) {
	v, err := n.Get(ctx, PropSoftwareVersion)
	if err != nil {
		return 0, err
	}
	return v.Raw.(uint16), nil
}

// ProductName returns the node product name string.
func (n *Node) ProductName(ctx context.Context) (string, error) {
	v, err := n.Get(ctx, PropProductName)
	if err != nil {
		return "", err
	}
	return v.Raw.(string), nil
}

// RFCommStatus returns the RF link health of the node.
func (n *Node) RFCommStatus(ctx context.Context) (RFCommStatus, error) {
	v, err := n.Get(ctx, PropRFCommStatus)
	if err != nil {
		return 0, err
	}
	return v.Raw.(RFCommStatus), nil
}

// BatteryStatus returns the node battery state.
func (n *Node) BatteryStatus(ctx context.Context) (BatteryStatus, error) {
	v, err := n.Get(ctx, PropBatteryStatus)
	if err != nil {
		return BatteryStatus{}, err
	}
	return v.Raw.(BatteryStatus), nil
}

// FaultStatus returns the node fault state.
func (n *Node) FaultStatus(ctx context.Context) (FaultStatus, error) {
	v, err := n.Get(ctx, PropFaultStatus)
	if err != nil {
		return FaultStatus{}, err
	}
	return v.Raw.(FaultStatus), nil
}

// RFStatsRecord is one row of the node RF statistics table.
type RFStatsRecord struct {
	DeviceID uint32
	// Average received signal strength margin of the RF beacon (dB).
	Average uint16
	// Standard deviation of the signal strength margin (0.1 dB).
	StdDev float64
	// Lowest and highest received signal strength (dB).
	Min, Max uint16
	// Missed messages (%).
	Missed uint16
	// Received beacon counter.
	Received uint16
	// Time since the last beacon.
	Age time.Duration
}

// RFStats scans the node RF statistics table. The table is indexed
// through a cursor register; each row is selected by writing its index
// and reading the statistic registers back.
func (n *Node) RFStats(ctx context.Context) ([]RFStatsRecord, error) {
	length, err := n.Get(ctx, PropRFStatsLength)
	if err != nil {
		return nil, err
	}

	count := int(length.Raw.(uint16))
	records := make([]RFStatsRecord, 0, count)
	for i := 0; i < count; i++ {
		if err := n.Set(ctx, PropRFStatsIndex, i); err != nil {
			return records, fmt.Errorf("%w: row %d: %v", ErrStatsIndexRejected, i, err)
		}
		var rec RFStatsRecord
		if err := n.readStatsRow(ctx, &rec); err != nil {
			return records, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func (n *Node) readStatsRow(ctx context.Context, rec *RFStatsRecord) error {
	v, err := n.Get(ctx, PropRFStatsDevice)
	if err != nil {
		return err
	}
	rec.DeviceID = v.Raw.(uint32)

	if v, err = n.Get(ctx, PropRFStatsAverage); err != nil {
		return err
	}
	rec.Average = v.Raw.(uint16)

	if v, err = n.Get(ctx, PropRFStatsStdDev); err != nil {
		return err
	}
	rec.StdDev = v.Raw.(float64)

	if v, err = n.Get(ctx, PropRFStatsMin); err != nil {
		return err
	}
	rec.Min = v.Raw.(uint16)

	if v, err = n.Get(ctx, PropRFStatsMax); err != nil {
		return err
	}
	rec.Max = v.Raw.(uint16)

	if v, err = n.Get(ctx, PropRFStatsMissed); err != nil {
		return err
	}
	rec.Missed = v.Raw.(uint16)

	if v, err = n.Get(ctx, PropRFStatsReceived); err != nil {
		return err
	}
	rec.Received = v.Raw.(uint16)

	if v, err = n.Get(ctx, PropRFStatsAge); err != nil {
		return err
	}
	rec.Age = time.Duration(v.Raw.(uint16)) * time.Minute
	return nil
}

// ClearRFStats resets the node RF statistics table.
func (n *Node) ClearRFStats(ctx context.Context) error {
	return n.Set(ctx, PropRFStatsIndex, clearStatsIndex)
}

// FaultRecord is one row of the node fault history.
type FaultRecord struct {
	Timestamp  time.Time
	Code       uint16
	StatusInfo uint32
	CommStatus uint16
}

// FaultHistory scans the node fault history table, newest first as
// reported by the node.
func (n *Node) FaultHistory(ctx context.Context) ([]FaultRecord, error) {
	length, err := n.Get(ctx, PropFaultHistoryLength)
	if err != nil {
		return nil, err
	}

	count := int(length.Raw.(uint16))
	records := make([]FaultRecord, 0, count)
	for i := 0; i < count; i++ {
		if err := n.Set(ctx, PropFaultHistoryIndex, i); err != nil {
			return records, fmt.Errorf("%w: row %d: %v", ErrStatsIndexRejected, i, err)
		}
		var rec FaultRecord
		v, err := n.Get(ctx, PropFaultHistoryTimestamp)
		if err != nil {
			return records, err
		}
		rec.Timestamp = v.Raw.(time.Time)
		if v, err = n.Get(ctx, PropFaultHistoryFaultCode); err != nil {
			return records, err
		}
		rec.Code = v.Raw.(uint16)
		if v, err = n.Get(ctx, PropFaultHistoryStatusInfo); err != nil {
			return records, err
		}
		rec.StatusInfo = v.Raw.(uint32)
		if v, err = n.Get(ctx, PropFaultHistoryCommStatus); err != nil {
			return records, err
		}
		rec.CommStatus = v.Raw.(uint16)
		records = append(records, rec)
	}
	return records, nil
}
