package registers

import (
	"testing"
	"time"
)

// ─── Status word ───────────────────────────────────────────────────

func TestDecodeStatus(t *testing.T) {
	tests := []struct {
		name       string
		word       uint16
		wantAge    time.Duration
		wantSource Source
		wantFlags  Flags
	}{
		{"zero", 0x0000, 0, SourceUnknown, 0},
		{"age seconds", 0x0025, 37 * time.Second, SourceUnknown, 0},
		{"age max seconds", 0x007F, 127 * time.Second, SourceUnknown, 0},
		{"age hours", 0x0083, 3 * time.Hour, SourceUnknown, 0},
		{"valid from rf", 0x1101, 1 * time.Second, SourceRF, FlagValid},
		{"valid from modbus", 0x2100, 0, SourceModbus, FlagValid},
		{"error flag", 0x0200, 0, SourceUnknown, FlagError},
		{"read pending", 0x0400, 0, SourceUnknown, FlagReadPending},
		{"write pending", 0x0800, 0, SourceUnknown, FlagWritePending},
		{"new value", 0x4000, 0, SourceUnknown, FlagNewValue},
		// Bits 12-13 belong to the source field and must not leak
		// into the flags.
		{"source bits masked", 0x3000, 0, 3, 0},
		{"all together", 0x5A85, 5 * time.Hour, SourceRF, FlagWritePending | FlagError | FlagNewValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecodeStatus(tt.word)
			if got.Age != tt.wantAge {
				t.Errorf("DecodeStatus(%#04x).Age = %v, want %v", tt.word, got.Age, tt.wantAge)
			}
			if got.Source != tt.wantSource {
				t.Errorf("DecodeStatus(%#04x).Source = %v, want %v", tt.word, got.Source, tt.wantSource)
			}
			if got.Flags != tt.wantFlags {
				t.Errorf("DecodeStatus(%#04x).Flags = %v, want %v", tt.word, got.Flags, tt.wantFlags)
			}
		})
	}
}

func TestFlagsString(t *testing.T) {
	if got := (FlagValid | FlagNewValue).String(); got != "valid,new_value" {
		t.Errorf("Flags.String() = %q, want %q", got, "valid,new_value")
	}
	if got := Flags(0).String(); got != "none" {
		t.Errorf("Flags(0).String() = %q, want %q", got, "none")
	}
}

// ─── Value ─────────────────────────────────────────────────────────

func TestValuePresent(t *testing.T) {
	if (Value{}).Present() {
		t.Error("zero Value reported as present")
	}
	if !(Value{Raw: uint16(1)}).Present() {
		t.Error("populated Value reported as absent")
	}
}

func TestValueString(t *testing.T) {
	tests := []struct {
		name  string
		value Value
		want  string
	}{
		{"absent", Value{}, "<absent>"},
		{"uint16", Value{Raw: uint16(42)}, "42"},
		{"float", Value{Raw: 21.5}, "21.5000"},
		{"zero time", Value{Raw: time.Time{}}, "<not set>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.value.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}
