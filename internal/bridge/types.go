package bridge

import "fmt"

// BindingStatus is the state of the bridge binding machine.
type BindingStatus uint16

// Binding status values.
const (
	BindingNotAvailable              BindingStatus = 0
	BindingOutgoingInitialized       BindingStatus = 1
	BindingOutgoingCompleted         BindingStatus = 2
	BindingIncomingActive            BindingStatus = 3
	BindingIncomingCompleted         BindingStatus = 4
	BindingLearningCompleted         BindingStatus = 5
	BindingIncomingWindowClosed      BindingStatus = 10
	BindingFailedNoAnswer            BindingStatus = 100
	BindingFailedIncompatibleDevice  BindingStatus = 101
	BindingFailedNodeListFull        BindingStatus = 102
	BindingFailedModbusAddrInvalid   BindingStatus = 103
	BindingFailedWindowClosedUnbound BindingStatus = 104
	BindingFailedSerialNumberInvalid BindingStatus = 105
	BindingFailedUnknownCommand      BindingStatus = 200
	BindingFailedUnknownProductType  BindingStatus = 201
)

func (s BindingStatus) String() string {
	switch s {
	case BindingNotAvailable:
		return "not_available"
	case BindingOutgoingInitialized:
		return "outgoing_binding_initialized"
	case BindingOutgoingCompleted:
		return "outgoing_binding_completed"
	case BindingIncomingActive:
		return "incoming_binding_active"
	case BindingIncomingCompleted:
		return "incoming_binding_completed"
	case BindingLearningCompleted:
		return "learning_completed"
	case BindingIncomingWindowClosed:
		return "incoming_autodetect_window_closed"
	case BindingFailedNoAnswer:
		return "outgoing_binding_failed_no_answer"
	case BindingFailedIncompatibleDevice:
		return "outgoing_binding_failed_incompatible_device"
	case BindingFailedNodeListFull:
		return "outgoing_binding_failed_node_list_full"
	case BindingFailedModbusAddrInvalid:
		return "outgoing_binding_failed_modbus_address_invalid"
	case BindingFailedWindowClosedUnbound:
		return "incoming_binding_window_closed_without_binding_a_product"
	case BindingFailedSerialNumberInvalid:
		return "binding_failed_serial_number_invalid"
	case BindingFailedUnknownCommand:
		return "unknown_binding_command"
	case BindingFailedUnknownProductType:
		return "unknown_product_type"
	default:
		return fmt.Sprintf("unknown (%d)", uint16(s))
	}
}

// Completed reports whether the binding machine reached a terminal
// success state.
func (s BindingStatus) Completed() bool {
	switch s {
	case BindingOutgoingCompleted, BindingIncomingCompleted, BindingLearningCompleted:
		return true
	}
	return false
}

// Failed reports whether the binding machine reached a terminal failure
// state.
func (s BindingStatus) Failed() bool {
	return s >= BindingFailedNoAnswer
}

// bindingMode selects the binding flow started by the command register.
type bindingMode uint16

const (
	bindOutgoingSingleProduct     bindingMode = 0x0003
	bindOutgoingProductPlusSerial bindingMode = 0x0004
	bindIncomingOnExistingNode    bindingMode = 0x0014
	bindAbort                     bindingMode = 0x00C8
)

// ModbusEvents selects which unsolicited Modbus event frames the bridge
// emits when a value changes.
type ModbusEvents uint16

// Modbus event modes.
const (
	EventsNone   ModbusEvents = 0
	EventsBridge ModbusEvents = 1
	EventsNode   ModbusEvents = 2
	EventsData   ModbusEvents = 3
)

func (e ModbusEvents) String() string {
	switch e {
	case EventsNone:
		return "no_events"
	case EventsBridge:
		return "bridge_events"
	case EventsNode:
		return "node_events"
	case EventsData:
		return "data_events"
	default:
		return fmt.Sprintf("unknown (%d)", uint16(e))
	}
}

// ResetMode selects the depth of a bridge reset. The magic values guard
// against accidental writes.
type ResetMode uint16

// Reset modes.
const (
	ResetSoft    ResetMode = 12345
	ResetFactory ResetMode = 56789
)

// Baudrate is the bridge serial port speed setting.
type Baudrate uint16

// Serial baudrate settings.
const (
	Baud300 Baudrate = iota
	Baud600
	Baud1200
	Baud2400
	Baud4800
	Baud9600
	Baud19200
	Baud38400
	Baud57600
	Baud115200
)

// BitsPerSecond returns the line speed the setting stands for, or 0
// for unknown settings.
func (b Baudrate) BitsPerSecond() int {
	rates := []int{300, 600, 1200, 2400, 4800, 9600, 19200, 38400, 57600, 115200}
	if int(b) < len(rates) {
		return rates[b]
	}
	return 0
}

func (b Baudrate) String() string {
	if bps := b.BitsPerSecond(); bps != 0 {
		return fmt.Sprintf("%d", bps)
	}
	return fmt.Sprintf("unknown (%d)", uint16(b))
}

// Parity is the bridge serial port parity setting.
type Parity uint16

// Serial parity settings.
const (
	ParityNone Parity = 0
	ParityOdd  Parity = 1
	ParityEven Parity = 2
)

func (p Parity) String() string {
	switch p {
	case ParityNone:
		return "none"
	case ParityOdd:
		return "odd"
	case ParityEven:
		return "even"
	default:
		return fmt.Sprintf("unknown (%d)", uint16(p))
	}
}

// StopBits is the bridge serial port stop bit setting.
type StopBits uint16

// Serial stop bit settings.
const (
	StopBits0 StopBits = 0
	StopBits1 StopBits = 1
)

// SerialConfig is the bridge serial line configuration. Changes take
// effect after a reset.
type SerialConfig struct {
	Baudrate Baudrate
	Parity   Parity
	StopBits StopBits
}

func (c SerialConfig) String() string {
	return fmt.Sprintf("%s baud, parity %s, %d stop bits", c.Baudrate, c.Parity, uint16(c.StopBits))
}

// RFLoad is the RF duty cycle of the bridge in percent.
type RFLoad struct {
	CurrentHour float64
	LastHour    float64
}

// RFSentMessages counts RF transmissions of the bridge.
type RFSentMessages struct {
	CurrentHour uint16
	LastHour    uint16
}
