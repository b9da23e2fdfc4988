package registers

import (
	"fmt"
	"math"
	"time"
	"unicode/utf8"
)

// unknownSentinel marks a Date or DateTime register that was never set.
const unknownSentinel = 0xFFFFFFFF

// Codec converts between register words and Go values.
//
// Decode receives exactly Words() words. Encode returns exactly Words()
// words or ErrInvalidValue when the Go value does not fit the register.
type Codec interface {
	Words() uint16
	Decode(words []uint16) (any, error)
	Encode(value any) ([]uint16, error)
}

// wordsToU32 assembles a 32-bit value from two words, low word first.
func wordsToU32(words []uint16) uint32 {
	return uint32(words[1])<<16 | uint32(words[0])
}

// u32ToWords splits a 32-bit value into two words, low word first.
func u32ToWords(v uint32) []uint16 {
	return []uint16{uint16(v & 0xFFFF), uint16(v >> 16)}
}

// U16 is an unsigned 16-bit register codec.
type U16 struct{}

// Words returns the register length in words.
func (U16) Words() uint16 { return 1 }

// Decode converts one word to a uint16.
func (U16) Decode(words []uint16) (any, error) {
	return words[0], nil
}

// Encode converts a uint16 or a non-negative int to one word.
func (U16) Encode(value any) ([]uint16, error) {
	switch v := value.(type) {
	case uint16:
		return []uint16{v}, nil
	case int:
		if v < 0 || v > math.MaxUint16 {
			return nil, fmt.Errorf("%w: %d out of range 0-65535", ErrInvalidValue, v)
		}
		return []uint16{uint16(v)}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported type %T for u16 register", ErrInvalidValue, value)
	}
}

// I16 is a signed 16-bit register codec.
type I16 struct{}

// Words returns the register length in words.
func (I16) Words() uint16 { return 1 }

// Decode converts one word to an int16.
func (I16) Decode(words []uint16) (any, error) {
	return int16(words[0]), nil
}

// Encode converts an int16 or int to one word.
func (I16) Encode(value any) ([]uint16, error) {
	switch v := value.(type) {
	case int16:
		return []uint16{uint16(v)}, nil
	case int:
		if v < math.MinInt16 || v > math.MaxInt16 {
			return nil, fmt.Errorf("%w: %d out of range for i16 register", ErrInvalidValue, v)
		}
		return []uint16{uint16(int16(v))}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported type %T for i16 register", ErrInvalidValue, value)
	}
}

// U32 is an unsigned 32-bit register codec, low word first.
type U32 struct{}

// Words returns the register length in words.
func (U32) Words() uint16 { return 2 }

// Decode converts two words to a uint32.
func (U32) Decode(words []uint16) (any, error) {
	return wordsToU32(words), nil
}

// Encode converts a uint32 or a non-negative int to two words.
func (U32) Encode(value any) ([]uint16, error) {
	switch v := value.(type) {
	case uint32:
		return u32ToWords(v), nil
	case int:
		if v < 0 || int64(v) > math.MaxUint32 {
			return nil, fmt.Errorf("%w: %d out of range for u32 register", ErrInvalidValue, v)
		}
		return u32ToWords(uint32(v)), nil
	default:
		return nil, fmt.Errorf("%w: unsupported type %T for u32 register", ErrInvalidValue, value)
	}
}

// F32 is an IEEE 754 single-precision codec, low word first. Values
// decode to float64 for convenience.
type F32 struct{}

// Words returns the register length in words.
func (F32) Words() uint16 { return 2 }

// Decode converts two words to a float64.
func (F32) Decode(words []uint16) (any, error) {
	return float64(math.Float32frombits(wordsToU32(words))), nil
}

// Encode converts a float64, float32 or int to two words.
func (F32) Encode(value any) ([]uint16, error) {
	var f float32
	switch v := value.(type) {
	case float64:
		f = float32(v)
	case float32:
		f = v
	case int:
		f = float32(v)
	default:
		return nil, fmt.Errorf("%w: unsupported type %T for float register", ErrInvalidValue, value)
	}
	return u32ToWords(math.Float32bits(f)), nil
}

// String is a fixed-length UTF-8 string codec. Each word carries two
// bytes, big-endian. Unused trailing bytes are NUL padded.
type String struct {
	// Length is the register length in words.
	Length uint16
}

// Words returns the register length in words.
func (s String) Words() uint16 { return s.Length }

// Decode converts words to a string, stripping trailing NUL padding.
// Invalid UTF-8 is a decode error.
func (s String) Decode(words []uint16) (any, error) {
	buf := make([]byte, 0, len(words)*2)
	for _, w := range words {
		buf = append(buf, byte(w>>8), byte(w))
	}
	for len(buf) > 0 && buf[len(buf)-1] == 0 {
		buf = buf[:len(buf)-1]
	}
	if !utf8.Valid(buf) {
		return nil, fmt.Errorf("%w: register content is not valid UTF-8", ErrDecode)
	}
	return string(buf), nil
}

// Encode converts a string to NUL-padded words.
func (s String) Encode(value any) ([]uint16, error) {
	str, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported type %T for string register", ErrInvalidValue, value)
	}
	if len(str) > int(s.Length)*2 {
		return nil, fmt.Errorf("%w: string %q exceeds %d bytes", ErrInvalidValue, str, s.Length*2)
	}
	buf := make([]byte, s.Length*2)
	copy(buf, str)
	words := make([]uint16, s.Length)
	for i := range words {
		words[i] = uint16(buf[2*i])<<8 | uint16(buf[2*i+1])
	}
	return words, nil
}

// Date is a calendar date codec: day, month and a 16-bit year packed
// big-endian into one 32-bit value. The all-ones sentinel decodes to the
// zero time.Time.
type Date struct{}

// Words returns the register length in words.
func (Date) Words() uint16 { return 2 }

// Decode converts two words to a time.Time at midnight UTC.
func (Date) Decode(words []uint16) (any, error) {
	v := wordsToU32(words)
	if v == unknownSentinel {
		return time.Time{}, nil
	}
	day := int(v >> 24)
	month := int(v >> 16 & 0xFF)
	year := int(v & 0xFFFF)
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return nil, fmt.Errorf("%w: invalid date %02d-%02d-%04d", ErrDecode, day, month, year)
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), nil
}

// Encode converts a time.Time to the packed date format. The zero time
// encodes as the "not set" sentinel.
func (Date) Encode(value any) ([]uint16, error) {
	t, ok := value.(time.Time)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported type %T for date register", ErrInvalidValue, value)
	}
	if t.IsZero() {
		return u32ToWords(unknownSentinel), nil
	}
	year, month, day := t.Date()
	if year < 0 || year > math.MaxUint16 {
		return nil, fmt.Errorf("%w: year %d out of range", ErrInvalidValue, year)
	}
	v := uint32(day)<<24 | uint32(month)<<16 | uint32(year)
	return u32ToWords(v), nil
}

// DateTime is a UTC UNIX timestamp codec. The all-ones sentinel decodes
// to the zero time.Time.
type DateTime struct{}

// Words returns the register length in words.
func (DateTime) Words() uint16 { return 2 }

// Decode converts two words to a UTC time.Time.
func (DateTime) Decode(words []uint16) (any, error) {
	v := wordsToU32(words)
	if v == unknownSentinel {
		return time.Time{}, nil
	}
	return time.Unix(int64(v), 0).UTC(), nil
}

// Encode converts a time.Time to a UNIX timestamp. The zero time encodes
// as the "not set" sentinel.
func (DateTime) Encode(value any) ([]uint16, error) {
	t, ok := value.(time.Time)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported type %T for datetime register", ErrInvalidValue, value)
	}
	if t.IsZero() {
		return u32ToWords(unknownSentinel), nil
	}
	ts := t.Unix()
	if ts < 0 || ts >= unknownSentinel {
		return nil, fmt.Errorf("%w: timestamp %v not representable", ErrInvalidValue, t)
	}
	return u32ToWords(uint32(ts)), nil
}
