package registers

import (
	"fmt"
	"strings"
	"time"
)

// StatusOffset is the address distance between a register and its
// companion status word.
const StatusOffset = 10000

// Source identifies where a cached register value last came from.
type Source uint8

// Value sources.
const (
	SourceUnknown Source = 0
	SourceRF      Source = 1
	SourceModbus  Source = 2
)

// String returns the source name.
func (s Source) String() string {
	switch s {
	case SourceRF:
		return "rf"
	case SourceModbus:
		return "modbus"
	default:
		return "unknown"
	}
}

// Flags carries the status-word state bits of a register value.
type Flags uint8

// Status flags.
const (
	// FlagValid means the value was written or received at least once.
	FlagValid Flags = 0x01
	// FlagError means the value has an error, e.g. a broken sensor.
	FlagError Flags = 0x02
	// FlagReadPending means a read towards the RF node is pending.
	FlagReadPending Flags = 0x04
	// FlagWritePending means a write towards the RF node is pending.
	FlagWritePending Flags = 0x08
	// FlagNewValue means a new value is cached in the bridge.
	FlagNewValue Flags = 0x40
)

// String returns the set flags as a comma-separated list.
func (f Flags) String() string {
	var names []string
	for _, e := range []struct {
		flag Flags
		name string
	}{
		{FlagValid, "valid"},
		{FlagError, "error"},
		{FlagReadPending, "read_pending"},
		{FlagWritePending, "write_pending"},
		{FlagNewValue, "new_value"},
	} {
		if f&e.flag != 0 {
			names = append(names, e.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ",")
}

// Freshness is the decoded status word of a register value.
type Freshness struct {
	// Age is how long ago the value was last updated. Resolution is
	// seconds up to 127 s, then whole hours.
	Age time.Duration
	// Source is where the value came from.
	Source Source
	// Flags holds the value state bits.
	Flags Flags
}

// String formats the freshness for logs.
func (f Freshness) String() string {
	return fmt.Sprintf("age %s, source %s, flags %s", f.Age, f.Source, f.Flags)
}

// DecodeStatus unpacks a raw status word.
//
// Layout: bits 0-6 age, bit 7 selects hours instead of seconds,
// bits 8-11 and 14-15 flags, bits 12-13 source.
func DecodeStatus(word uint16) Freshness {
	age := time.Duration(word&0x7F) * time.Second
	if word&0x80 != 0 {
		age = time.Duration(word&0x7F) * time.Hour
	}
	return Freshness{
		Age:    age,
		Flags:  Flags(word >> 8 & 0xCF),
		Source: Source(word >> 12 & 0x03),
	}
}

// Value is a decoded register value with optional freshness metadata.
// The zero Value marks a property that could not be fetched.
type Value struct {
	// Raw is the decoded value: uint16, int16, uint32, float64, string,
	// time.Time, or a domain type produced by a descriptor adapter.
	Raw any
	// Status is the decoded status word, when one was read.
	Status *Freshness
}

// Present reports whether the value was actually fetched.
func (v Value) Present() bool { return v.Raw != nil }

// String formats the value for CLI output and logs.
func (v Value) String() string {
	if !v.Present() {
		return "<absent>"
	}
	var s string
	switch raw := v.Raw.(type) {
	case float64:
		s = fmt.Sprintf("%.4f", raw)
	case time.Time:
		if raw.IsZero() {
			s = "<not set>"
		} else {
			s = raw.Format(time.RFC3339)
		}
	default:
		s = fmt.Sprintf("%v", raw)
	}
	if v.Status != nil {
		s += fmt.Sprintf(" (%s)", v.Status)
	}
	return s
}
