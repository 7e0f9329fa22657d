// Package smp implements the typed-argument message codec: a 32-bit
// message id carrying an ordered, sparse sequence of tagged values.
package smp

import "math"

// T is the 8-bit type tag that both labels a Value and determines its
// on-wire width.
type T uint8

const (
	NONE   T = 0x00
	U8     T = 0x01
	I8     T = 0x02
	U16    T = 0x03
	I16    T = 0x04
	U32    T = 0x05
	I32    T = 0x06
	U64    T = 0x07
	I64    T = 0x08
	STRING T = 0x09
	F32    T = 0x0a
	F64    T = 0x0b
	RAW    T = 0x10
)

// MaxValues is the default message capacity.
const MaxValues = 32

// MaxStringLen is the largest string content length a STRING argument can
// carry; the wire-encoded length is one byte larger for the NUL
// terminator, and both must fit the 16-bit length field.
const MaxStringLen = 0xFFFF - 1

// MaxRawLen is the largest RAW payload that fits in its 16-bit length
// field.
const MaxRawLen = 0xFFFF

// Value is a tagged variant carrying one argument of a Message. The zero
// Value has type NONE.
type Value struct {
	typ T
	bits uint64
	str  string
	raw  []byte
}

// Type returns the type tag of v.
func (v Value) Type() T { return v.typ }

// IsNone reports whether v is an empty (NONE) slot.
func (v Value) IsNone() bool { return v.typ == NONE }

func NoneValue() Value { return Value{} }

func ValueU8(x uint8) Value   { return Value{typ: U8, bits: uint64(x)} }
func ValueI8(x int8) Value    { return Value{typ: I8, bits: uint64(uint8(x))} }
func ValueU16(x uint16) Value { return Value{typ: U16, bits: uint64(x)} }
func ValueI16(x int16) Value  { return Value{typ: I16, bits: uint64(uint16(x))} }
func ValueU32(x uint32) Value { return Value{typ: U32, bits: uint64(x)} }
func ValueI32(x int32) Value  { return Value{typ: I32, bits: uint64(uint32(x))} }
func ValueU64(x uint64) Value { return Value{typ: U64, bits: x} }
func ValueI64(x int64) Value  { return Value{typ: I64, bits: uint64(x)} }
func ValueF32(x float32) Value {
	return Value{typ: F32, bits: uint64(math.Float32bits(x))}
}
func ValueF64(x float64) Value {
	return Value{typ: F64, bits: math.Float64bits(x)}
}

// ValueString constructs a STRING value borrowing s.
func ValueString(s string) Value { return Value{typ: STRING, str: s} }

// ValueRaw constructs a RAW value borrowing b; the caller must keep b
// alive for as long as the Value (and any Message holding it) is in use.
func ValueRaw(b []byte) Value { return Value{typ: RAW, raw: b} }

func (v Value) U8() (uint8, bool) {
	if v.typ != U8 {
		return 0, false
	}
	return uint8(v.bits), true
}

func (v Value) I8() (int8, bool) {
	if v.typ != I8 {
		return 0, false
	}
	return int8(uint8(v.bits)), true
}

func (v Value) U16() (uint16, bool) {
	if v.typ != U16 {
		return 0, false
	}
	return uint16(v.bits), true
}

func (v Value) I16() (int16, bool) {
	if v.typ != I16 {
		return 0, false
	}
	return int16(uint16(v.bits)), true
}

func (v Value) U32() (uint32, bool) {
	if v.typ != U32 {
		return 0, false
	}
	return uint32(v.bits), true
}

func (v Value) I32() (int32, bool) {
	if v.typ != I32 {
		return 0, false
	}
	return int32(uint32(v.bits)), true
}

func (v Value) U64() (uint64, bool) {
	if v.typ != U64 {
		return 0, false
	}
	return v.bits, true
}

func (v Value) I64() (int64, bool) {
	if v.typ != I64 {
		return 0, false
	}
	return int64(v.bits), true
}

func (v Value) F32() (float32, bool) {
	if v.typ != F32 {
		return 0, false
	}
	return math.Float32frombits(uint32(v.bits)), true
}

func (v Value) F64() (float64, bool) {
	if v.typ != F64 {
		return 0, false
	}
	return math.Float64frombits(v.bits), true
}

// Str returns the string value of v, if v is a STRING.
func (v Value) Str() (string, bool) {
	if v.typ != STRING {
		return "", false
	}
	return v.str, true
}

func (v Value) Raw() ([]byte, bool) {
	if v.typ != RAW {
		return nil, false
	}
	return v.raw, true
}

// width returns the encoded byte width of the value (excluding the type
// tag byte), or -1 for an invalid tag.
func (t T) width(v Value) int {
	switch t {
	case NONE:
		return 0
	case U8, I8:
		return 1
	case U16, I16:
		return 2
	case U32, I32, F32:
		return 4
	case U64, I64, F64:
		return 8
	case STRING:
		return 2 + len(v.str) + 1
	case RAW:
		return 2 + len(v.raw)
	default:
		return -1
	}
}

// Valid reports whether t is a recognized on-wire type tag.
func (t T) Valid() bool {
	switch t {
	case NONE, U8, I8, U16, I16, U32, I32, U64, I64, STRING, F32, F64, RAW:
		return true
	default:
		return false
	}
}
