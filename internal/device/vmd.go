package device

import (
	"context"
	"fmt"
	"time"

	"github.com/ventlogic/airios-bridge/internal/client"
	"github.com/ventlogic/airios-bridge/internal/registers"
)

// Properties of the VMD-02RPS78 ventilation controller.
const (
	PropCurrentSpeed          registers.Property = "current_ventilation_speed"
	PropFanSpeedExhaust       registers.Property = "fan_speed_exhaust"
	PropFanSpeedSupply        registers.Property = "fan_speed_supply"
	PropErrorCode             registers.Property = "error_code"
	PropOverrideRemainingTime registers.Property = "override_remaining_time"
	PropTemperatureIndoor     registers.Property = "temperature_indoor"
	PropTemperatureOutdoor    registers.Property = "temperature_outdoor"
	PropTemperatureExhaust    registers.Property = "temperature_exhaust"
	PropTemperatureSupply     registers.Property = "temperature_supply"
	PropPreheater             registers.Property = "preheater"
	PropFilterDirty           registers.Property = "filter_dirty"
	PropDefrost               registers.Property = "defrost"
	PropBypassPosition        registers.Property = "bypass_position"
	PropHumidityIndoor        registers.Property = "humidity_indoor"
	PropHumidityOutdoor       registers.Property = "humidity_outdoor"
	PropFlowInlet             registers.Property = "flow_inlet"
	PropFlowOutlet            registers.Property = "flow_outlet"
	PropAirQuality            registers.Property = "air_quality"
	PropAirQualityBasis       registers.Property = "air_quality_basis"
	PropCO2Level              registers.Property = "co2_level"
	PropPostheater            registers.Property = "postheater"
	PropCapabilities          registers.Property = "capabilities"
	PropFilterRemainingDays   registers.Property = "filter_remaining_days"
	PropFilterDuration        registers.Property = "filter_duration"
	PropFilterRemaining       registers.Property = "filter_remaining_percent"
	PropFanRPMExhaust         registers.Property = "fan_rpm_exhaust"
	PropFanRPMSupply          registers.Property = "fan_rpm_supply"
	PropBypassMode            registers.Property = "bypass_mode"
	PropBypassStatus          registers.Property = "bypass_status"
	PropRequestedSpeed        registers.Property = "requested_ventilation_speed"
	PropOverrideTimeLow       registers.Property = "override_time_speed_low"
	PropOverrideTimeMid       registers.Property = "override_time_speed_mid"
	PropOverrideTimeHigh      registers.Property = "override_time_speed_high"
	PropRequestedBypassMode   registers.Property = "requested_bypass_mode"
	PropFilterReset           registers.Property = "filter_reset"
	PropFanAwaySupply         registers.Property = "fan_speed_away_supply"
	PropFanAwayExhaust        registers.Property = "fan_speed_away_exhaust"
	PropFanLowSupply          registers.Property = "fan_speed_low_supply"
	PropFanLowExhaust         registers.Property = "fan_speed_low_exhaust"
	PropFanMidSupply          registers.Property = "fan_speed_mid_supply"
	PropFanMidExhaust         registers.Property = "fan_speed_mid_exhaust"
	PropFanHighSupply         registers.Property = "fan_speed_high_supply"
	PropFanHighExhaust        registers.Property = "fan_speed_high_exhaust"
	PropFrostSetpoint         registers.Property = "frost_protection_preheater_setpoint"
	PropPreheaterSetpoint     registers.Property = "preheater_setpoint"
	PropFreeVentSetpoint      registers.Property = "free_ventilation_heating_setpoint"
	PropFreeVentCoolingOffset registers.Property = "free_ventilation_cooling_offset"
)

// maxOverrideMinutes caps temporary speed overrides at 18 hours.
const maxOverrideMinutes = 18 * 60

// vmdRegisters is the register group of the VMD-02RPS78 controller.
func vmdRegisters() []registers.Descriptor {
	rs := registers.AccessRead | registers.AccessStatus
	rws := registers.AccessRead | registers.AccessWrite | registers.AccessStatus
	return []registers.Descriptor{
		{Property: PropCurrentSpeed, Address: 41000, Codec: registers.U16{}, Access: rs, Adapt: adaptVentilationSpeed},
		{Property: PropFanSpeedExhaust, Address: 41001, Codec: registers.U16{}, Access: rs},
		{Property: PropFanSpeedSupply, Address: 41002, Codec: registers.U16{}, Access: rs},
		{Property: PropErrorCode, Address: 41003, Codec: registers.U16{}, Access: rs, Adapt: adaptErrorCode},
		{Property: PropOverrideRemainingTime, Address: 41004, Codec: registers.U16{}, Access: rs},
		{Property: PropTemperatureIndoor, Address: 41005, Codec: registers.F32{}, Access: rs, Adapt: adaptTemperature},
		{Property: PropTemperatureOutdoor, Address: 41007, Codec: registers.F32{}, Access: rs, Adapt: adaptTemperature},
		{Property: PropTemperatureExhaust, Address: 41009, Codec: registers.F32{}, Access: rs, Adapt: adaptTemperature},
		{Property: PropTemperatureSupply, Address: 41011, Codec: registers.F32{}, Access: rs, Adapt: adaptTemperature},
		{Property: PropPreheater, Address: 41013, Codec: registers.U16{}, Access: rs, Adapt: adaptHeater},
		{Property: PropFilterDirty, Address: 41014, Codec: registers.U16{}, Access: rs},
		{Property: PropDefrost, Address: 41015, Codec: registers.U16{}, Access: rs},
		{Property: PropBypassPosition, Address: 41016, Codec: registers.U16{}, Access: rs, Adapt: adaptBypassPosition},
		{Property: PropHumidityIndoor, Address: 41017, Codec: registers.U16{}, Access: rs},
		{Property: PropHumidityOutdoor, Address: 41018, Codec: registers.U16{}, Access: rs},
		{Property: PropFlowInlet, Address: 41019, Codec: registers.F32{}, Access: rs},
		{Property: PropFlowOutlet, Address: 41021, Codec: registers.F32{}, Access: rs},
		{Property: PropAirQuality, Address: 41023, Codec: registers.U16{}, Access: rs},
		{Property: PropAirQualityBasis, Address: 41024, Codec: registers.U16{}, Access: rs},
		{Property: PropCO2Level, Address: 41025, Codec: registers.U16{}, Access: rs},
		{Property: PropPostheater, Address: 41026, Codec: registers.U16{}, Access: rs, Adapt: adaptHeater},
		{Property: PropCapabilities, Address: 41027, Codec: registers.U16{}, Access: rs, Adapt: adaptCapabilities},
		{Property: PropFilterRemainingDays, Address: 41040, Codec: registers.U16{}, Access: rs},
		{Property: PropFilterDuration, Address: 41041, Codec: registers.U16{}, Access: rs},
		{Property: PropFilterRemaining, Address: 41042, Codec: registers.U16{}, Access: rs},
		{Property: PropFanRPMExhaust, Address: 41043, Codec: registers.U16{}, Access: rs},
		{Property: PropFanRPMSupply, Address: 41044, Codec: registers.U16{}, Access: rs},
		{Property: PropBypassMode, Address: 41050, Codec: registers.U16{}, Access: rs, Adapt: adaptBypassMode},
		{Property: PropBypassStatus, Address: 41051, Codec: registers.U16{}, Access: rs},
		{Property: PropRequestedSpeed, Address: 41500, Codec: registers.U16{}, Access: rws, Adapt: adaptRequestedSpeed},
		{Property: PropOverrideTimeLow, Address: 41501, Codec: registers.U16{}, Access: registers.AccessWrite, Max: maxOverrideMinutes},
		{Property: PropOverrideTimeMid, Address: 41502, Codec: registers.U16{}, Access: registers.AccessWrite, Max: maxOverrideMinutes},
		{Property: PropOverrideTimeHigh, Address: 41503, Codec: registers.U16{}, Access: registers.AccessWrite, Max: maxOverrideMinutes},
		{Property: PropRequestedBypassMode, Address: 41550, Codec: registers.U16{}, Access: rws, Adapt: adaptBypassMode},
		{Property: PropFilterReset, Address: 42000, Codec: registers.U16{}, Access: registers.AccessWrite | registers.AccessStatus},
		{Property: PropFanAwaySupply, Address: 42001, Codec: registers.U16{}, Access: rws, Max: 40},
		{Property: PropFanAwayExhaust, Address: 42002, Codec: registers.U16{}, Access: rws, Max: 40},
		{Property: PropFanLowSupply, Address: 42003, Codec: registers.U16{}, Access: rws, Max: 80},
		{Property: PropFanLowExhaust, Address: 42004, Codec: registers.U16{}, Access: rws, Max: 80},
		{Property: PropFanMidSupply, Address: 42005, Codec: registers.U16{}, Access: rws, Max: 100},
		{Property: PropFanMidExhaust, Address: 42006, Codec: registers.U16{}, Access: rws, Max: 100},
		{Property: PropFanHighSupply, Address: 42007, Codec: registers.U16{}, Access: rws, Max: 100},
		{Property: PropFanHighExhaust, Address: 42008, Codec: registers.U16{}, Access: rws, Max: 100},
		{Property: PropFrostSetpoint, Address: 42009, Codec: registers.F32{}, Access: rws},
		{Property: PropPreheaterSetpoint, Address: 42011, Codec: registers.F32{}, Access: rws},
		{Property: PropFreeVentSetpoint, Address: 42013, Codec: registers.F32{}, Access: rws},
		{Property: PropFreeVentCoolingOffset, Address: 42015, Codec: registers.F32{}, Access: rws},
	}
}

// VMD02RPS78 is a ventilation controller node.
type VMD02RPS78 struct {
	*RFDevice
}

// NewVMD02RPS78 creates a controller node on the given slave address.
func NewVMD02RPS78(slave uint8, c *client.Client) (*VMD02RPS78, error) {
	d, err := NewRFDevice(slave, c, vmdRegisters())
	if err != nil {
		return nil, err
	}
	return &VMD02RPS78{RFDevice: d}, nil
}

func (d *VMD02RPS78) String() string {
	return fmt.Sprintf("VMD-02RPS78@%d", d.Slave())
}

// Product returns the controller product ID.
func (d *VMD02RPS78) Product() ProductID { return ProductVMD02RPS78 }

// Capabilities returns the controller feature flags.
func (d *VMD02RPS78) Capabilities(ctx context.Context) (Capabilities, error) {
	v, err := d.Get(ctx, PropCapabilities)
	if err != nil {
		return 0, err
	}
	return v.Raw.(Capabilities), nil
}

// VentilationSpeed returns the active speed preset.
func (d *VMD02RPS78) VentilationSpeed(ctx context.Context) (VentilationSpeed, error) {
	v, err := d.Get(ctx, PropCurrentSpeed)
	if err != nil {
		return 0, err
	}
	return v.Raw.(VentilationSpeed), nil
}

// SetVentilationSpeed commands a speed preset.
func (d *VMD02RPS78) SetVentilationSpeed(ctx context.Context, speed RequestedSpeed) error {
	return d.Set(ctx, PropRequestedSpeed, uint16(speed))
}

// SetSpeedOverride commands a speed preset for a limited time. Only
// low, mid and high support timed overrides; the maximum is 18 hours.
func (d *VMD02RPS78) SetSpeedOverride(ctx context.Context, speed RequestedSpeed, duration time.Duration) error {
	minutes := int(duration / time.Minute)
	var prop registers.Property
	switch speed {
	case RequestLow:
		prop = PropOverrideTimeLow
	case RequestMid:
		prop = PropOverrideTimeMid
	case RequestHigh:
		prop = PropOverrideTimeHigh
	default:
		return fmt.Errorf("%w: speed %s cannot be overridden", registers.ErrInvalidValue, speed)
	}
	return d.Set(ctx, prop, minutes)
}

// OverrideRemainingTime returns how long the active override still
// runs.
func (d *VMD02RPS78) OverrideRemainingTime(ctx context.Context) (time.Duration, error) {
	v, err := d.Get(ctx, PropOverrideRemainingTime)
	if err != nil {
		return 0, err
	}
	return time.Duration(v.Raw.(uint16)) * time.Minute, nil
}

// Preset identifies a fan speed preset with configurable fan speeds.
type Preset uint8

// Presets with configurable supply and exhaust fan speeds.
const (
	PresetAway Preset = iota
	PresetLow
	PresetMid
	PresetHigh
)

func (p Preset) String() string {
	switch p {
	case PresetAway:
		return "away"
	case PresetLow:
		return "low"
	case PresetMid:
		return "mid"
	case PresetHigh:
		return "high"
	default:
		return fmt.Sprintf("unknown (%d)", uint8(p))
	}
}

func (p Preset) props() (supply, exhaust registers.Property, err error) {
	switch p {
	case PresetAway:
		return PropFanAwaySupply, PropFanAwayExhaust, nil
	case PresetLow:
		return PropFanLowSupply, PropFanLowExhaust, nil
	case PresetMid:
		return PropFanMidSupply, PropFanMidExhaust, nil
	case PresetHigh:
		return PropFanHighSupply, PropFanHighExhaust, nil
	}
	return "", "", fmt.Errorf("%w: invalid preset %d", registers.ErrInvalidValue, p)
}

// PresetSpeeds returns the configured supply and exhaust fan speeds of
// a preset (%).
func (d *VMD02RPS78) PresetSpeeds(ctx context.Context, p Preset) (supply, exhaust uint16, err error) {
	sp, ep, err := p.props()
	if err != nil {
		return 0, 0, err
	}
	sv, err := d.Get(ctx, sp)
	if err != nil {
		return 0, 0, err
	}
	ev, err := d.Get(ctx, ep)
	if err != nil {
		return 0, 0, err
	}
	return sv.Raw.(uint16), ev.Raw.(uint16), nil
}

// SetPresetSpeeds configures the supply and exhaust fan speeds of a
// preset (%). Each preset has its own upper limit, enforced per
// register.
func (d *VMD02RPS78) SetPresetSpeeds(ctx context.Context, p Preset, supply, exhaust uint16) error {
	sp, ep, err := p.props()
	if err != nil {
		return err
	}
	if err := d.Set(ctx, sp, supply); err != nil {
		return err
	}
	return d.Set(ctx, ep, exhaust)
}

// BypassMode returns the heat exchanger bypass mode.
func (d *VMD02RPS78) BypassMode(ctx context.Context) (BypassMode, error) {
	v, err := d.Get(ctx, PropBypassMode)
	if err != nil {
		return BypassUnknown, err
	}
	return v.Raw.(BypassMode), nil
}

// SetBypassMode commands the heat exchanger bypass mode.
func (d *VMD02RPS78) SetBypassMode(ctx context.Context, mode BypassMode) error {
	if mode == BypassUnknown {
		return fmt.Errorf("%w: bypass mode %s cannot be requested", registers.ErrInvalidValue, mode)
	}
	return d.Set(ctx, PropRequestedBypassMode, uint16(mode))
}

// BypassPosition returns the bypass valve position.
func (d *VMD02RPS78) BypassPosition(ctx context.Context) (BypassPosition, error) {
	v, err := d.Get(ctx, PropBypassPosition)
	if err != nil {
		return BypassPosition{}, err
	}
	return v.Raw.(BypassPosition), nil
}

// ErrorCode returns the controller fault code.
func (d *VMD02RPS78) ErrorCode(ctx context.Context) (ErrorCode, error) {
	v, err := d.Get(ctx, PropErrorCode)
	if err != nil {
		return 0, err
	}
	return v.Raw.(ErrorCode), nil
}

// Temperature returns the air temperature sample of the given register.
func (d *VMD02RPS78) Temperature(ctx context.Context, prop registers.Property) (Temperature, error) {
	v, err := d.Get(ctx, prop)
	if err != nil {
		return Temperature{}, err
	}
	t, ok := v.Raw.(Temperature)
	if !ok {
		return Temperature{}, fmt.Errorf("%w: %s is not a temperature register", registers.ErrDecode, prop)
	}
	return t, nil
}

// FilterReset clears the filter dirty flag and restarts the filter
// lifetime counter.
func (d *VMD02RPS78) FilterReset(ctx context.Context) error {
	return d.Set(ctx, PropFilterReset, 0)
}

// FilterRemaining returns the remaining filter lifetime (%).
func (d *VMD02RPS78) FilterRemaining(ctx context.Context) (uint16, error) {
	v, err := d.Get(ctx, PropFilterRemaining)
	if err != nil {
		return 0, err
	}
	return v.Raw.(uint16), nil
}

// SnapshotProperties is the property set fetched for a controller
// state snapshot.
func (d *VMD02RPS78) SnapshotProperties() []registers.Property {
	return []registers.Property{
		PropRFAddress, PropProductID, PropSoftwareVersion, PropProductName,
		PropRFCommStatus, PropBatteryStatus, PropFaultStatus,
		PropBoundStatus, PropValueErrorStatus,
		PropErrorCode, PropCurrentSpeed,
		PropFanSpeedExhaust, PropFanSpeedSupply,
		PropFanRPMExhaust, PropFanRPMSupply,
		PropOverrideRemainingTime,
		PropTemperatureIndoor, PropTemperatureOutdoor,
		PropTemperatureExhaust, PropTemperatureSupply,
		PropFilterDirty, PropFilterRemaining, PropFilterDuration,
		PropDefrost, PropBypassPosition, PropBypassMode, PropBypassStatus,
		PropPreheater, PropPostheater,
		PropPreheaterSetpoint, PropFreeVentSetpoint,
		PropFreeVentCoolingOffset, PropFrostSetpoint,
		PropFanHighSupply, PropFanHighExhaust,
		PropFanMidSupply, PropFanMidExhaust,
		PropFanLowSupply, PropFanLowExhaust,
		PropFanAwaySupply, PropFanAwayExhaust,
	}
}
