// Package registers provides the typed register model for Airios RF
// bridges and their bound nodes.
//
// Every Modbus-visible value on an Airios device is described by a
// Descriptor: a property name, a holding-register address, a codec that
// converts between 16-bit register words and a Go value, and access
// flags. Product packages assemble Descriptors into a Table, which the
// transport client and device engine consume.
//
// # Wire formats
//
// All values live in 16-bit holding registers. Multi-word values are
// transferred low word first; bytes within a word are big-endian.
//
//   - U16/I16: one word
//   - U32/F32: two words, low word first
//   - String:  N words, two UTF-8 bytes per word, NUL padded
//   - Date:    day/month/year packed big-endian into one U32
//   - DateTime: U32 UNIX timestamp, UTC
//
// Date and DateTime use 0xFFFFFFFF as the "not set" sentinel, which
// decodes to the zero time.Time rather than an error.
//
// # Value freshness
//
// Registers flagged with AccessStatus have a companion status word at
// address+10000 describing how old the cached value is, where it came
// from (RF or Modbus) and pending read/write state. DecodeStatus unpacks
// that word into a Freshness.
package registers
