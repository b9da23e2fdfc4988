package registers

import (
	"errors"
	"math"
	"testing"
	"time"
)

// ─── U16 / I16 ─────────────────────────────────────────────────────

func TestU16Encode(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		want    uint16
		wantErr bool
	}{
		{"uint16", uint16(1234), 1234, false},
		{"int", 65535, 65535, false},
		{"zero", 0, 0, false},
		{"negative int", -1, 0, true},
		{"overflow int", 65536, 0, true},
		{"string rejected", "12", 0, true},
		{"float rejected", 1.5, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			words, err := U16{}.Encode(tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Encode(%v) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidValue) {
					t.Errorf("Encode(%v) error = %v, want ErrInvalidValue", tt.value, err)
				}
				return
			}
			if len(words) != 1 || words[0] != tt.want {
				t.Errorf("Encode(%v) = %v, want [%d]", tt.value, words, tt.want)
			}
		})
	}
}

func TestI16Decode(t *testing.T) {
	tests := []struct {
		name string
		word uint16
		want int16
	}{
		{"positive", 0x0010, 16},
		{"negative", 0xFFF6, -10},
		{"min", 0x8000, -32768},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := I16{}.Decode([]uint16{tt.word})
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if got.(int16) != tt.want {
				t.Errorf("Decode(%#04x) = %v, want %d", tt.word, got, tt.want)
			}
		})
	}
}

// ─── U32 / F32 (low word first) ────────────────────────────────────

func TestU32WordOrder(t *testing.T) {
	// 0x0001C849 on the wire: low word 0xC849 first, high word 0x0001.
	got, err := U32{}.Decode([]uint16{0xC849, 0x0001})
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got.(uint32) != 0x0001C849 {
		t.Errorf("Decode() = %#08x, want 0x0001C849", got)
	}

	words, err := U32{}.Encode(uint32(0x0001C849))
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if words[0] != 0xC849 || words[1] != 0x0001 {
		t.Errorf("Encode() = %v, want [0xC849 0x0001]", words)
	}
}

func TestF32RoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		value float64
	}{
		{"zero", 0},
		{"temperature", 21.5},
		{"negative", -12.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			words, err := F32{}.Encode(tt.value)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			got, err := F32{}.Decode(words)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if got.(float64) != tt.value {
				t.Errorf("round trip = %v, want %v", got, tt.value)
			}
		})
	}
}

func TestF32DecodeNaN(t *testing.T) {
	words := u32ToWords(math.Float32bits(float32(math.NaN())))
	got, err := F32{}.Decode(words)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !math.IsNaN(got.(float64)) {
		t.Errorf("Decode() = %v, want NaN", got)
	}
}

// ─── String ────────────────────────────────────────────────────────

func TestStringDecode(t *testing.T) {
	tests := []struct {
		name    string
		words   []uint16
		want    string
		wantErr bool
	}{
		{"full", []uint16{0x4252, 0x4447}, "BRDG", false},
		{"nul padded", []uint16{0x5644, 0x0000}, "VD", false},
		{"odd length", []uint16{0x5600, 0x0000}, "V", false},
		{"empty", []uint16{0x0000, 0x0000}, "", false},
		{"invalid utf-8", []uint16{0xFF01, 0x0000}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := String{Length: 2}.Decode(tt.words)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Decode() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrDecode) {
					t.Errorf("Decode() error = %v, want ErrDecode", err)
				}
				return
			}
			if got.(string) != tt.want {
				t.Errorf("Decode(%v) = %q, want %q", tt.words, got, tt.want)
			}
		})
	}
}

func TestStringEncode(t *testing.T) {
	words, err := String{Length: 10}.Encode("node-1")
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if len(words) != 10 {
		t.Fatalf("Encode() returned %d words, want 10", len(words))
	}
	if words[0] != 0x6E6F || words[1] != 0x6465 || words[2] != 0x2D31 || words[3] != 0x0000 {
		t.Errorf("Encode() = %v, unexpected packing", words[:4])
	}

	if _, err := (String{Length: 2}).Encode("too long!"); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("Encode(oversized) error = %v, want ErrInvalidValue", err)
	}
	if _, err := (String{Length: 2}).Encode(42); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("Encode(int) error = %v, want ErrInvalidValue", err)
	}
}

// ─── Date / DateTime ───────────────────────────────────────────────

func TestDateRoundTrip(t *testing.T) {
	want := time.Date(2021, time.June, 15, 0, 0, 0, 0, time.UTC)

	words, err := Date{}.Encode(want)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	// 15 June 2021 packs as 0x0F0607E5: day 0x0F, month 0x06, year 0x07E5.
	if wordsToU32(words) != 0x0F0607E5 {
		t.Fatalf("Encode() = %#08x, want 0x0F0607E5", wordsToU32(words))
	}

	got, err := Date{}.Decode(words)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !got.(time.Time).Equal(want) {
		t.Errorf("round trip = %v, want %v", got, want)
	}
}

func TestDateUnknownSentinel(t *testing.T) {
	got, err := Date{}.Decode([]uint16{0xFFFF, 0xFFFF})
	if err != nil {
		t.Fatalf("Decode(sentinel) error = %v", err)
	}
	if !got.(time.Time).IsZero() {
		t.Errorf("Decode(sentinel) = %v, want zero time", got)
	}

	words, err := Date{}.Encode(time.Time{})
	if err != nil {
		t.Fatalf("Encode(zero) error = %v", err)
	}
	if wordsToU32(words) != unknownSentinel {
		t.Errorf("Encode(zero) = %#08x, want sentinel", wordsToU32(words))
	}
}

func TestDateDecodeInvalid(t *testing.T) {
	// Month 13 is not a date.
	words := u32ToWords(0x010D07E5)
	if _, err := (Date{}).Decode(words); !errors.Is(err, ErrDecode) {
		t.Errorf("Decode(invalid) error = %v, want ErrDecode", err)
	}
}

func TestDateTimeRoundTrip(t *testing.T) {
	want := time.Date(2024, time.March, 1, 12, 30, 45, 0, time.UTC)

	words, err := DateTime{}.Encode(want)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	got, err := DateTime{}.Decode(words)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !got.(time.Time).Equal(want) {
		t.Errorf("round trip = %v, want %v", got, want)
	}
}

func TestDateTimeUnknownSentinel(t *testing.T) {
	got, err := DateTime{}.Decode([]uint16{0xFFFF, 0xFFFF})
	if err != nil {
		t.Fatalf("Decode(sentinel) error = %v", err)
	}
	if !got.(time.Time).IsZero() {
		t.Errorf("Decode(sentinel) = %v, want zero time", got)
	}
}
