package bridge

import (
	"fmt"

	"github.com/ventlogic/airios-bridge/internal/registers"
)

// Properties of the BRDG-02R13 gateway.
const (
	PropCustomerProductID    registers.Property = "customer_product_id"
	PropUTCTime              registers.Property = "utc_time"
	PropLocalTime            registers.Property = "local_time"
	PropUptime               registers.Property = "uptime"
	PropDaylightSavingType   registers.Property = "daylight_saving_type"
	PropTimezoneOffset       registers.Property = "timezone_offset"
	PropOEMCode              registers.Property = "oem_code"
	PropModbusEvents         registers.Property = "modbus_events"
	PropResetDevice          registers.Property = "reset_device"
	PropCustomerNodeID       registers.Property = "customer_specific_node_id"
	PropSerialParity         registers.Property = "serial_parity"
	PropSerialStopBits       registers.Property = "serial_stop_bits"
	PropSerialBaudrate       registers.Property = "serial_baudrate"
	PropSlaveAddress         registers.Property = "slave_address"
	PropMessagesCurrentHour  registers.Property = "messages_sent_current_hour"
	PropMessagesLastHour     registers.Property = "messages_sent_last_hour"
	PropRFLoadCurrentHour    registers.Property = "rf_load_current_hour"
	PropRFLoadLastHour       registers.Property = "rf_load_last_hour"
	PropBindingProductID     registers.Property = "binding_product_id"
	PropBindingProductSerial registers.Property = "binding_product_serial"
	PropBindingCommand       registers.Property = "binding_command"
	PropCreateNode           registers.Property = "create_node"
	PropFirstAddressToAssign registers.Property = "first_address_to_assign"
	PropRemoveNode           registers.Property = "remove_node"
	PropBindingStatus        registers.Property = "actual_binding_status"
	PropNumberOfNodes        registers.Property = "number_of_nodes"
)

// Node directory geometry.
const (
	nodeDirectoryBase  = 43902
	nodeDirectorySlots = 32
)

func adaptBindingStatus(v any) (any, error) { return BindingStatus(v.(uint16)), nil }
func adaptModbusEvents(v any) (any, error)  { return ModbusEvents(v.(uint16)), nil }

// bridgeRegisters is the gateway register group, added on top of the
// common node group.
func bridgeRegisters() []registers.Descriptor {
	r := registers.AccessRead
	rw := registers.AccessRead | registers.AccessWrite
	w := registers.AccessWrite
	descs := []registers.Descriptor{
		{Property: PropCustomerProductID, Address: 40023, Codec: registers.U16{}, Access: rw},
		{Property: PropUTCTime, Address: 41015, Codec: registers.DateTime{}, Access: rw},
		{Property: PropLocalTime, Address: 41017, Codec: registers.DateTime{}, Access: r},
		{Property: PropUptime, Address: 41019, Codec: registers.U32{}, Access: r},
		{Property: PropDaylightSavingType, Address: 41021, Codec: registers.U16{}, Access: rw},
		{Property: PropTimezoneOffset, Address: 41022, Codec: registers.U16{}, Access: rw},
		{Property: PropOEMCode, Address: 41101, Codec: registers.U16{}, Access: rw},
		{Property: PropModbusEvents, Address: 41103, Codec: registers.U16{}, Access: rw, Adapt: adaptModbusEvents},
		{Property: PropResetDevice, Address: 41107, Codec: registers.U16{}, Access: w},
		{Property: PropCustomerNodeID, Address: 41108, Codec: registers.String{Length: 10}, Access: w},
		{Property: PropSerialParity, Address: 41998, Codec: registers.U16{}, Access: rw},
		{Property: PropSerialStopBits, Address: 41999, Codec: registers.U16{}, Access: rw},
		{Property: PropSerialBaudrate, Address: 42000, Codec: registers.U16{}, Access: rw},
		{Property: PropSlaveAddress, Address: 42001, Codec: registers.U16{}, Access: rw},
		{Property: PropMessagesCurrentHour, Address: 42100, Codec: registers.U16{}, Access: r},
		{Property: PropMessagesLastHour, Address: 42101, Codec: registers.U16{}, Access: r},
		{Property: PropRFLoadCurrentHour, Address: 42102, Codec: registers.F32{}, Access: r},
		{Property: PropRFLoadLastHour, Address: 42104, Codec: registers.F32{}, Access: r},
		{Property: PropBindingProductID, Address: 43000, Codec: registers.U32{}, Access: rw},
		{Property: PropBindingProductSerial, Address: 43002, Codec: registers.U32{}, Access: rw},
		{Property: PropBindingCommand, Address: 43004, Codec: registers.U16{}, Access: w},
		{Property: PropCreateNode, Address: 43005, Codec: registers.U16{}, Access: w},
		{Property: PropFirstAddressToAssign, Address: 43006, Codec: registers.U16{}, Access: rw},
		{Property: PropRemoveNode, Address: 43399, Codec: registers.U16{}, Access: w},
		{Property: PropBindingStatus, Address: 43900, Codec: registers.U16{}, Access: r, Adapt: adaptBindingStatus},
		{Property: PropNumberOfNodes, Address: 43901, Codec: registers.U16{}, Access: r},
	}
	for i := 0; i < nodeDirectorySlots; i++ {
		descs = append(descs, registers.Descriptor{
			Property: registers.Property(fmt.Sprintf("address_node_%d", i+1)),
			Address:  uint16(nodeDirectoryBase + i),
			Codec:    registers.U16{},
			Access:   r,
		})
	}
	return descs
}
