package smp

import (
	"encoding/binary"
	"math"

	"github.com/oscillon-systems/smp/pkg/smperr"
)

const headerSize = 8

// EncodedSize returns the number of bytes EncodeMessage would produce for
// m, or an error if any argument can't be encoded.
func EncodedSize(m *Message) (int, error) {
	size := headerSize
	for _, v := range m.values {
		if v.IsNone() {
			continue
		}
		w := v.typ.width(v)
		if w < 0 {
			return 0, smperr.BadType
		}
		if v.typ == STRING && len(v.str) > MaxStringLen {
			return 0, smperr.Overflow
		}
		if v.typ == RAW && len(v.raw) > MaxRawLen {
			return 0, smperr.Overflow
		}
		size += 1 + w
	}
	if uint64(size-headerSize) > math.MaxUint32 {
		return 0, smperr.Overflow
	}
	return size, nil
}

// EncodeMessage allocates a buffer sized exactly to m's encoded size and
// encodes m into it.
func EncodeMessage(m *Message) ([]byte, error) {
	size, err := EncodedSize(m)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, size)
	if _, err := EncodeMessageInto(m, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// EncodeMessageInto encodes m into the caller-supplied out, returning the
// number of bytes written. It fails with NoMem if out is too small.
func EncodeMessageInto(m *Message, out []byte) (int, error) {
	size, err := EncodedSize(m)
	if err != nil {
		return 0, err
	}
	if len(out) < size {
		return 0, smperr.NoMem
	}

	offset := headerSize
	for _, v := range m.values {
		if v.IsNone() {
			continue
		}
		n, err := encodeValue(v, out[offset:])
		if err != nil {
			return 0, err
		}
		offset += n
	}

	payloadLen := offset - headerSize
	binary.LittleEndian.PutUint32(out[0:4], m.msgid)
	binary.LittleEndian.PutUint32(out[4:8], uint32(payloadLen))

	return offset, nil
}

func encodeValue(v Value, out []byte) (int, error) {
	out[0] = byte(v.typ)
	body := out[1:]

	switch v.typ {
	case U8:
		body[0] = byte(v.bits)
	case I8:
		body[0] = byte(v.bits)
	case U16:
		binary.LittleEndian.PutUint16(body, uint16(v.bits))
	case I16:
		binary.LittleEndian.PutUint16(body, uint16(v.bits))
	case U32, F32:
		binary.LittleEndian.PutUint32(body, uint32(v.bits))
	case I32:
		binary.LittleEndian.PutUint32(body, uint32(v.bits))
	case U64, F64:
		binary.LittleEndian.PutUint64(body, v.bits)
	case I64:
		binary.LittleEndian.PutUint64(body, v.bits)
	case STRING:
		n := len(v.str) + 1
		binary.LittleEndian.PutUint16(body, uint16(n))
		copy(body[2:], v.str)
		body[2+len(v.str)] = 0x00
	case RAW:
		binary.LittleEndian.PutUint16(body, uint16(len(v.raw)))
		copy(body[2:], v.raw)
	default:
		return 0, smperr.BadType
	}

	return 1 + v.typ.width(v), nil
}

// DecodeMessage parses buf into a freshly allocated Message of the given
// capacity. Decoded RAW values alias buf; the caller must keep buf alive
// for as long as the returned Message is used. Decoded STRING values are
// copied out of buf and do not alias it.
func DecodeMessage(buf []byte, capacity int) (*Message, error) {
	m := &Message{values: make([]Value, capacity)}
	if err := DecodeMessageInto(m, buf); err != nil {
		return nil, err
	}
	return m, nil
}

// DecodeMessageInto parses buf into dst, overwriting slots 0..n in parse
// order. It does not clear slots beyond what it writes; callers reusing a
// Message across frames (static mode) must Clear it first.
func DecodeMessageInto(dst *Message, buf []byte) error {
	if len(buf) < headerSize {
		return smperr.BadMessage
	}

	msgid := binary.LittleEndian.Uint32(buf[0:4])
	payloadLen := binary.LittleEndian.Uint32(buf[4:8])
	if uint64(len(buf)) < uint64(headerSize)+uint64(payloadLen) {
		return smperr.BadMessage
	}

	dst.msgid = msgid
	payload := buf[headerSize : headerSize+int(payloadLen)]

	offset := 0
	slot := 0
	capacity := len(dst.values)
	for offset < len(payload) {
		if slot >= capacity {
			return smperr.TooBig
		}
		v, n, err := decodeValue(payload[offset:])
		if err != nil {
			return err
		}
		dst.values[slot] = v
		offset += n
		slot++
	}

	return nil
}

func decodeValue(buf []byte) (Value, int, error) {
	if len(buf) < 2 {
		return Value{}, 0, smperr.BadMessage
	}
	t := T(buf[0])
	body := buf[1:]

	switch t {
	case U8:
		return ValueU8(body[0]), 2, nil
	case I8:
		return ValueI8(int8(body[0])), 2, nil
	case U16:
		if len(body) < 2 {
			return Value{}, 0, smperr.BadMessage
		}
		return ValueU16(binary.LittleEndian.Uint16(body)), 3, nil
	case I16:
		if len(body) < 2 {
			return Value{}, 0, smperr.BadMessage
		}
		return ValueI16(int16(binary.LittleEndian.Uint16(body))), 3, nil
	case U32:
		if len(body) < 4 {
			return Value{}, 0, smperr.BadMessage
		}
		return ValueU32(binary.LittleEndian.Uint32(body)), 5, nil
	case I32:
		if len(body) < 4 {
			return Value{}, 0, smperr.BadMessage
		}
		return ValueI32(int32(binary.LittleEndian.Uint32(body))), 5, nil
	case F32:
		if len(body) < 4 {
			return Value{}, 0, smperr.BadMessage
		}
		bits := binary.LittleEndian.Uint32(body)
		return Value{typ: F32, bits: uint64(bits)}, 5, nil
	case U64:
		if len(body) < 8 {
			return Value{}, 0, smperr.BadMessage
		}
		return ValueU64(binary.LittleEndian.Uint64(body)), 9, nil
	case I64:
		if len(body) < 8 {
			return Value{}, 0, smperr.BadMessage
		}
		return ValueI64(int64(binary.LittleEndian.Uint64(body))), 9, nil
	case F64:
		if len(body) < 8 {
			return Value{}, 0, smperr.BadMessage
		}
		bits := binary.LittleEndian.Uint64(body)
		return Value{typ: F64, bits: bits}, 9, nil
	case STRING:
		if len(body) < 2 {
			return Value{}, 0, smperr.BadMessage
		}
		strlen := int(binary.LittleEndian.Uint16(body))
		if len(body) < 2+strlen || strlen == 0 {
			return Value{}, 0, smperr.BadMessage
		}
		if body[2+strlen-1] != 0x00 {
			return Value{}, 0, smperr.BadMessage
		}
		s := string(body[2 : 2+strlen-1])
		return ValueString(s), 1 + 2 + strlen, nil
	case RAW:
		if len(body) < 2 {
			return Value{}, 0, smperr.BadMessage
		}
		rawlen := int(binary.LittleEndian.Uint16(body))
		if len(body) < 2+rawlen {
			return Value{}, 0, smperr.BadMessage
		}
		b := body[2 : 2+rawlen]
		return ValueRaw(b), 1 + 2 + rawlen, nil
	default:
		return Value{}, 0, smperr.BadMessage
	}
}
