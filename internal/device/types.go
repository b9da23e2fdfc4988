package device

import (
	"fmt"
	"math"
	"strings"
)

// ProductID identifies an Airios product. The value combines product
// type, sub ID and manufacturer ID.
type ProductID uint32

// Known product IDs.
const (
	ProductBRDG02R13  ProductID = 0x0001C849 // RF-to-Modbus bridge
	ProductVMD02RPS78 ProductID = 0x0001C892 // ventilation controller
	ProductVMN05LM02  ProductID = 0x0001C83E // remote control
	ProductVMN02LM11  ProductID = 0x0001C852 // remote control
)

func (p ProductID) String() string {
	switch p {
	case ProductBRDG02R13:
		return "BRDG-02R13"
	case ProductVMD02RPS78:
		return "VMD-02RPS78"
	case ProductVMN05LM02:
		return "VMN-05LM02"
	case ProductVMN02LM11:
		return "VMN-02LM11"
	default:
		return fmt.Sprintf("unknown (0x%08X)", uint32(p))
	}
}

// BoundStatus reports how a device joined its controller.
type BoundStatus uint16

// Bound status values.
const (
	BoundNoChange BoundStatus = 0
	BoundRebound  BoundStatus = 1
	BoundNew      BoundStatus = 2
)

func (s BoundStatus) String() string {
	switch s {
	case BoundNoChange:
		return "no_change"
	case BoundRebound:
		return "rebound"
	case BoundNew:
		return "new_bound"
	default:
		return fmt.Sprintf("unknown (%d)", uint16(s))
	}
}

// RFCommStatus reports the RF link health of a node. The bridge flags
// an error after 30 minutes without data.
type RFCommStatus uint16

// RF communication status values.
const (
	RFCommOK    RFCommStatus = 0
	RFCommError RFCommStatus = 1
)

func (s RFCommStatus) String() string {
	switch s {
	case RFCommOK:
		return "no_error"
	case RFCommError:
		return "error"
	default:
		return fmt.Sprintf("unknown (%d)", uint16(s))
	}
}

// ValueErrorStatus reports whether any register value on a device is
// out of range, for example due to a broken sensor.
type ValueErrorStatus uint16

// Value error status values.
const (
	ValueErrorNone   ValueErrorStatus = 0
	ValueErrorActive ValueErrorStatus = 1
)

func (s ValueErrorStatus) String() string {
	switch s {
	case ValueErrorNone:
		return "no_error"
	case ValueErrorActive:
		return "error"
	default:
		return fmt.Sprintf("unknown (%d)", uint16(s))
	}
}

// BatteryStatus is the decoded battery register. Low is meaningful only
// when Available is true.
type BatteryStatus struct {
	Available bool
	Low       bool
}

func (s BatteryStatus) String() string {
	if !s.Available {
		return "unavailable"
	}
	if s.Low {
		return "low"
	}
	return "ok"
}

// FaultStatus is the decoded fault register. Fault is meaningful only
// when Available is true.
type FaultStatus struct {
	Available bool
	Fault     bool
}

func (s FaultStatus) String() string {
	if !s.Available {
		return "unavailable"
	}
	if s.Fault {
		return "fault"
	}
	return "ok"
}

// The battery and fault registers use all-ones for "no such feature".
const statusUnavailable = 0xFFFF

func adaptBatteryStatus(v any) (any, error) {
	raw := v.(uint16)
	s := BatteryStatus{Available: raw != statusUnavailable}
	if s.Available {
		s.Low = raw != 0
	}
	return s, nil
}

func adaptFaultStatus(v any) (any, error) {
	raw := v.(uint16)
	return FaultStatus{Available: raw != statusUnavailable, Fault: raw != 0}, nil
}

func adaptProductID(v any) (any, error)        { return ProductID(v.(uint32)), nil }
func adaptBoundStatus(v any) (any, error)      { return BoundStatus(v.(uint16)), nil }
func adaptRFCommStatus(v any) (any, error)     { return RFCommStatus(v.(uint16)), nil }
func adaptValueErrorStatus(v any) (any, error) { return ValueErrorStatus(v.(uint16)), nil }

// VentilationSpeed is the active speed preset reported by a controller.
type VentilationSpeed uint16

// Ventilation speed values.
const (
	SpeedOff          VentilationSpeed = 0
	SpeedLow          VentilationSpeed = 1
	SpeedMid          VentilationSpeed = 2
	SpeedHigh         VentilationSpeed = 3
	SpeedOverrideLow  VentilationSpeed = 11
	SpeedOverrideMid  VentilationSpeed = 12
	SpeedOverrideHigh VentilationSpeed = 13
	SpeedAway         VentilationSpeed = 21
	SpeedBoost        VentilationSpeed = 23
	SpeedAuto         VentilationSpeed = 24
)

func (s VentilationSpeed) String() string {
	switch s {
	case SpeedOff:
		return "off"
	case SpeedLow:
		return "low"
	case SpeedMid:
		return "mid"
	case SpeedHigh:
		return "high"
	case SpeedOverrideLow:
		return "low (override)"
	case SpeedOverrideMid:
		return "mid (override)"
	case SpeedOverrideHigh:
		return "high (override)"
	case SpeedAway:
		return "away"
	case SpeedBoost:
		return "boost"
	case SpeedAuto:
		return "auto"
	default:
		return fmt.Sprintf("unknown (%d)", uint16(s))
	}
}

// RequestedSpeed is the speed preset commanded to a controller. The
// request encoding differs from the reported VentilationSpeed encoding.
type RequestedSpeed uint16

// Requested speed values.
const (
	RequestOff   RequestedSpeed = 0
	RequestAway  RequestedSpeed = 1
	RequestLow   RequestedSpeed = 2
	RequestMid   RequestedSpeed = 3
	RequestHigh  RequestedSpeed = 4
	RequestAuto  RequestedSpeed = 5
	RequestBoost RequestedSpeed = 7
)

func (s RequestedSpeed) String() string {
	switch s {
	case RequestOff:
		return "off"
	case RequestAway:
		return "away"
	case RequestLow:
		return "low"
	case RequestMid:
		return "mid"
	case RequestHigh:
		return "high"
	case RequestAuto:
		return "auto"
	case RequestBoost:
		return "boost"
	default:
		return fmt.Sprintf("unknown (%d)", uint16(s))
	}
}

// ParseRequestedSpeed converts a user-facing name to a RequestedSpeed.
func ParseRequestedSpeed(s string) (RequestedSpeed, error) {
	switch strings.ToLower(s) {
	case "off":
		return RequestOff, nil
	case "away":
		return RequestAway, nil
	case "low":
		return RequestLow, nil
	case "mid":
		return RequestMid, nil
	case "high":
		return RequestHigh, nil
	case "auto":
		return RequestAuto, nil
	case "boost":
		return RequestBoost, nil
	}
	return 0, fmt.Errorf("device: invalid ventilation speed %q", s)
}

// BypassMode is the heat exchanger bypass mode.
type BypassMode uint16

// Bypass mode values.
const (
	BypassClose   BypassMode = 0
	BypassOpen    BypassMode = 100
	BypassUnknown BypassMode = 239
	BypassAuto    BypassMode = 255
)

func (m BypassMode) String() string {
	switch m {
	case BypassClose:
		return "close"
	case BypassOpen:
		return "open"
	case BypassUnknown:
		return "unknown"
	case BypassAuto:
		return "auto"
	default:
		return fmt.Sprintf("unknown (%d)", uint16(m))
	}
}

// ParseBypassMode converts a user-facing name to a BypassMode.
func ParseBypassMode(s string) (BypassMode, error) {
	switch strings.ToLower(s) {
	case "close":
		return BypassClose, nil
	case "open":
		return BypassOpen, nil
	case "auto":
		return BypassAuto, nil
	}
	return 0, fmt.Errorf("device: invalid bypass mode %q", s)
}

// BypassPosition is the bypass valve position sample. Values above
// 120 % indicate a positioning error.
type BypassPosition struct {
	Percent uint16
	Error   bool
}

func (p BypassPosition) String() string {
	if p.Error {
		return fmt.Sprintf("error (%d)", p.Percent)
	}
	return fmt.Sprintf("%d%%", p.Percent)
}

// ErrorCode is the fault code reported by a ventilation controller.
type ErrorCode uint16

// Controller error codes.
const (
	ErrorNone                 ErrorCode = 0
	ErrorNonSpecificFault     ErrorCode = 1
	ErrorEmergencyStop        ErrorCode = 2
	ErrorFan1                 ErrorCode = 3
	ErrorX22Sensor            ErrorCode = 4
	ErrorX23Sensor            ErrorCode = 5
	ErrorX21Sensor            ErrorCode = 6
	ErrorX20Sensor            ErrorCode = 7
	ErrorFan2                 ErrorCode = 8
	ErrorBindingModeActive    ErrorCode = 254
	ErrorIdentificationActive ErrorCode = 255
)

func (e ErrorCode) String() string {
	switch e {
	case ErrorNone:
		return "no_error"
	case ErrorNonSpecificFault:
		return "non_specific_fault"
	case ErrorEmergencyStop:
		return "emergency_stop"
	case ErrorFan1:
		return "fan_1_error"
	case ErrorX22Sensor:
		return "x22_sensor_error"
	case ErrorX23Sensor:
		return "x23_sensor_error"
	case ErrorX21Sensor:
		return "x21_sensor_error"
	case ErrorX20Sensor:
		return "x20_sensor_error"
	case ErrorFan2:
		return "fan_2_error"
	case ErrorBindingModeActive:
		return "binding_mode_active"
	case ErrorIdentificationActive:
		return "identification_active"
	default:
		return fmt.Sprintf("unknown (%d)", uint16(e))
	}
}

// Capabilities is the feature flag word of a ventilation controller.
type Capabilities uint16

// Capability flags.
const (
	CapPreHeater  Capabilities = 0x0001
	CapPostHeater Capabilities = 0x0002
	CapNightMode  Capabilities = 0x0008
	CapSpeed10    Capabilities = 0x0010
	CapSpeed9     Capabilities = 0x0020
	CapSpeed8     Capabilities = 0x0040
	CapSpeed7     Capabilities = 0x0080
	CapSpeed6     Capabilities = 0x0100
	CapSpeed5     Capabilities = 0x0200
	CapSpeed4     Capabilities = 0x0400
	CapAutoMode   Capabilities = 0x0800
	CapBoostMode  Capabilities = 0x1000
	CapTimer      Capabilities = 0x2000
	CapOff        Capabilities = 0x8000
)

func (c Capabilities) String() string {
	names := []struct {
		flag Capabilities
		name string
	}{
		{CapPreHeater, "pre_heater"},
		{CapPostHeater, "post_heater"},
		{CapNightMode, "night_mode"},
		{CapSpeed10, "speed_10"},
		{CapSpeed9, "speed_9"},
		{CapSpeed8, "speed_8"},
		{CapSpeed7, "speed_7"},
		{CapSpeed6, "speed_6"},
		{CapSpeed5, "speed_5"},
		{CapSpeed4, "speed_4"},
		{CapAutoMode, "auto_mode"},
		{CapBoostMode, "boost_mode"},
		{CapTimer, "timer"},
		{CapOff, "off"},
	}
	var set []string
	for _, n := range names {
		if c&n.flag != 0 {
			set = append(set, n.name)
		}
	}
	if len(set) == 0 {
		return "none"
	}
	return strings.Join(set, "|")
}

// SensorStatus qualifies a sensor sample.
type SensorStatus uint8

// Sensor status values.
const (
	SensorOK SensorStatus = iota
	SensorUnavailable
	SensorError
)

func (s SensorStatus) String() string {
	switch s {
	case SensorOK:
		return "ok"
	case SensorUnavailable:
		return "unavailable"
	case SensorError:
		return "error"
	default:
		return fmt.Sprintf("unknown (%d)", uint8(s))
	}
}

// Temperature is an air temperature sample in degrees Celsius.
type Temperature struct {
	Celsius float64
	Status  SensorStatus
}

func (t Temperature) String() string {
	if t.Status != SensorOK {
		return t.Status.String()
	}
	return fmt.Sprintf("%.1f°C", t.Celsius)
}

// HeaterStatus qualifies a heater level sample.
type HeaterStatus uint8

// Heater status values.
const (
	HeaterOK HeaterStatus = iota + 1
	HeaterUnavailable
)

// Heater is a pre- or post-heater level sample in percent.
type Heater struct {
	Level  uint16
	Status HeaterStatus
}

func (h Heater) String() string {
	if h.Status == HeaterUnavailable {
		return "unavailable"
	}
	return fmt.Sprintf("%d%%", h.Level)
}

// The heater level register reports 0xEF when no heater is installed.
const heaterUnavailable = 0xEF

func adaptVentilationSpeed(v any) (any, error) { return VentilationSpeed(v.(uint16)), nil }
func adaptRequestedSpeed(v any) (any, error)   { return RequestedSpeed(v.(uint16)), nil }
func adaptErrorCode(v any) (any, error)        { return ErrorCode(v.(uint16)), nil }
func adaptCapabilities(v any) (any, error)     { return Capabilities(v.(uint16)), nil }

func adaptBypassMode(v any) (any, error) {
	m := BypassMode(v.(uint16))
	switch m {
	case BypassClose, BypassOpen, BypassUnknown, BypassAuto:
		return m, nil
	}
	return BypassUnknown, nil
}

func adaptBypassPosition(v any) (any, error) {
	raw := v.(uint16)
	return BypassPosition{Percent: raw, Error: raw > 120}, nil
}

func adaptTemperature(v any) (any, error) {
	c := v.(float64)
	t := Temperature{Celsius: c, Status: SensorOK}
	switch {
	case math.IsNaN(c):
		t.Status = SensorUnavailable
	case c < -273.0:
		t.Status = SensorError
	}
	return t, nil
}

func adaptHeater(v any) (any, error) {
	raw := v.(uint16)
	h := Heater{Level: raw, Status: HeaterOK}
	if raw == heaterUnavailable {
		h.Status = HeaterUnavailable
	}
	return h, nil
}
