package smp

import (
	"bytes"
	"testing"

	"github.com/oscillon-systems/smp/pkg/smperr"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	m := NewMessage(16)
	m.SetID(42)
	m.SetU8(0, 33)
	m.SetI8(1, -4)
	m.SetU16(2, 24356)
	m.SetI16(3, -16533)
	m.SetU32(4, 554323)
	m.SetI32(5, -250002)
	m.SetU64(6, 1<<55)
	m.SetI64(7, -(1 << 33))
	m.SetString(8, "Hello World !")
	raw := []byte{0x56, 0xff, 0x42, 0xa5, 0xbd, 0x16, 0x0f, 0x99, 0x8c, 0x65, 0xa4, 0x88, 0x72}
	m.SetRaw(9, raw)
	m.SetF32(10, 1.42)
	m.SetF64(11, 3.14)

	buf, err := EncodeMessage(m)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	wantSize, err := EncodedSize(m)
	if err != nil {
		t.Fatalf("EncodedSize: %v", err)
	}
	if len(buf) != wantSize {
		t.Fatalf("size = %d, want %d", len(buf), wantSize)
	}

	if buf[0] != 0x2a || buf[1] != 0 || buf[2] != 0 || buf[3] != 0 {
		t.Fatalf("msgid header wrong: % x", buf[:4])
	}
	if buf[4] != 0x56 || buf[5] != 0 || buf[6] != 0 || buf[7] != 0 {
		t.Fatalf("payload_len header wrong: % x", buf[4:8])
	}
	if buf[8] != 0x01 || buf[9] != 0x21 {
		t.Fatalf("first arg record wrong: % x", buf[8:10])
	}

	dec, err := DecodeMessage(buf, 16)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if dec.MsgID() != 42 {
		t.Fatalf("msgid = %d", dec.MsgID())
	}

	u8, _ := dec.GetU8(0)
	if u8 != 33 {
		t.Fatalf("u8 = %d", u8)
	}
	i8, _ := dec.GetI8(1)
	if i8 != -4 {
		t.Fatalf("i8 = %d", i8)
	}
	s, _ := dec.GetString(8)
	if s != "Hello World !" {
		t.Fatalf("string = %q", s)
	}
	rb, _ := dec.GetRaw(9)
	if !bytes.Equal(rb, raw) {
		t.Fatalf("raw = % x", rb)
	}
	f32, _ := dec.GetF32(10)
	if f32 != 1.42 {
		t.Fatalf("f32 = %v", f32)
	}
	f64, _ := dec.GetF64(11)
	if f64 != 3.14 {
		t.Fatalf("f64 = %v", f64)
	}
}

func TestDecodeLiteralBufferSequentialSlots(t *testing.T) {
	u64 := uint64(0x0004000000000312)
	i64 := -int64(0x0a0403d0340312)

	buf := []byte{
		0x03, 0x33, 0x24, 0x02, // message id
		0x26, 0x00, 0x00, 0x00, // argument size
		0x05, 0x24, 0x03, 0x00, 0x00, // uint32_t = 804
		0x03, 0x3a, 0x00, // uint16_t = 58
		0x02, 0xf1, // int8_t = -15
		0x01, 0x0a, // uint8_t = 10
	}
	u64Bytes := make([]byte, 8)
	for i := 0; i < 8; i++ {
		u64Bytes[i] = byte(u64 >> (8 * i))
	}
	buf = append(buf, 0x07)
	buf = append(buf, u64Bytes...)

	i64Bytes := make([]byte, 8)
	u := uint64(i64)
	for i := 0; i < 8; i++ {
		i64Bytes[i] = byte(u >> (8 * i))
	}
	buf = append(buf, 0x08)
	buf = append(buf, i64Bytes...)

	buf = append(buf, 0x04, 0x2a, 0x80) // int16 = -32726
	buf = append(buf, 0x06, 0x2a, 0x80, 0xff, 0xff) // int32 = -32726

	m, err := DecodeMessage(buf, MaxValues)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if m.MsgID() != 0x02243303 {
		t.Fatalf("msgid = %#x", m.MsgID())
	}
	if v, _ := m.GetU32(0); v != 804 {
		t.Fatalf("slot0 = %d", v)
	}
	if v, _ := m.GetU16(1); v != 58 {
		t.Fatalf("slot1 = %d", v)
	}
	if v, _ := m.GetI8(2); v != -15 {
		t.Fatalf("slot2 = %d", v)
	}
	if v, _ := m.GetU8(3); v != 10 {
		t.Fatalf("slot3 = %d", v)
	}
	if v, _ := m.GetU64(4); v != u64 {
		t.Fatalf("slot4 = %d", v)
	}
	if v, _ := m.GetI64(5); v != i64 {
		t.Fatalf("slot5 = %d", v)
	}
	if v, _ := m.GetI16(6); v != -32726 {
		t.Fatalf("slot6 = %d", v)
	}
	if v, _ := m.GetI32(7); v != -32726 {
		t.Fatalf("slot7 = %d", v)
	}
}

func TestDecodeTooSmallBuffer(t *testing.T) {
	buf := []byte{0x03, 0x33, 0x24, 0x02}
	if _, err := DecodeMessage(buf, MaxValues); err != smperr.BadMessage {
		t.Fatalf("err = %v, want BadMessage", err)
	}
}

func TestDecodeCorruptedSize(t *testing.T) {
	buf := []byte{
		0x03, 0x33, 0x24, 0x02,
		0xff, 0x00, 0x00, 0x00, // claims far more payload than present
		0x01, 0x0a,
	}
	if _, err := DecodeMessage(buf, MaxValues); err != smperr.BadMessage {
		t.Fatalf("err = %v, want BadMessage", err)
	}
}

func TestDecodeTooManyValues(t *testing.T) {
	capacity := 4
	buf := []byte{0, 0, 0, 0, 0, 0, 0, 0}
	n := capacity + 2
	for i := 0; i < n; i++ {
		buf = append(buf, 0x01, 0x42)
	}
	buf[4] = byte(2 * n)
	if _, err := DecodeMessage(buf, capacity); err != smperr.TooBig {
		t.Fatalf("err = %v, want TooBig", err)
	}
}

func TestStringMissingNulTerminator(t *testing.T) {
	m := NewMessage(4)
	m.SetString(0, "hi")
	buf, err := EncodeMessage(m)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	// corrupt the terminator byte
	buf[len(buf)-1] = 'x'
	if _, err := DecodeMessage(buf, 4); err != smperr.BadMessage {
		t.Fatalf("err = %v, want BadMessage", err)
	}
}

func TestStringLengthExceedsRemaining(t *testing.T) {
	buf := []byte{
		0, 0, 0, 0,
		5, 0, 0, 0,
		0x09, 0xff, 0xff, 'h', 'i',
	}
	if _, err := DecodeMessage(buf, MaxValues); err != smperr.BadMessage {
		t.Fatalf("err = %v, want BadMessage", err)
	}
}

func TestNArgs(t *testing.T) {
	m := NewMessage(8)
	if m.NArgs() != 0 {
		t.Fatalf("NArgs = %d, want 0", m.NArgs())
	}
	m.SetU8(0, 1)
	m.SetU8(1, 2)
	if m.NArgs() != 2 {
		t.Fatalf("NArgs = %d, want 2", m.NArgs())
	}
	m.SetU8(3, 3) // gap at index 2
	if m.NArgs() != 2 {
		t.Fatalf("NArgs = %d, want 2 (first NONE terminates)", m.NArgs())
	}
}

func TestSetGetRoundTripAllTypes(t *testing.T) {
	m := NewMessage(12)
	m.SetU8(0, 200)
	m.SetI8(1, -100)
	m.SetU16(2, 50000)
	m.SetI16(3, -30000)
	m.SetU32(4, 4000000000)
	m.SetI32(5, -2000000000)
	m.SetU64(6, 1<<63)
	m.SetI64(7, -(1 << 62))
	m.SetF32(8, 2.5)
	m.SetF64(9, 6.25)
	m.SetString(10, "x")
	m.SetRaw(11, []byte{1, 2, 3})

	if v, _ := m.GetU8(0); v != 200 {
		t.Errorf("u8: %d", v)
	}
	if v, _ := m.GetI8(1); v != -100 {
		t.Errorf("i8: %d", v)
	}
	if v, _ := m.GetU16(2); v != 50000 {
		t.Errorf("u16: %d", v)
	}
	if v, _ := m.GetI16(3); v != -30000 {
		t.Errorf("i16: %d", v)
	}
	if v, _ := m.GetU32(4); v != 4000000000 {
		t.Errorf("u32: %d", v)
	}
	if v, _ := m.GetI32(5); v != -2000000000 {
		t.Errorf("i32: %d", v)
	}
	if v, _ := m.GetU64(6); v != 1<<63 {
		t.Errorf("u64: %d", v)
	}
	if v, _ := m.GetI64(7); v != -(1 << 62) {
		t.Errorf("i64: %d", v)
	}
	if v, _ := m.GetF32(8); v != 2.5 {
		t.Errorf("f32: %v", v)
	}
	if v, _ := m.GetF64(9); v != 6.25 {
		t.Errorf("f64: %v", v)
	}
	if v, _ := m.GetString(10); v != "x" {
		t.Errorf("string: %v", v)
	}
	if v, _ := m.GetRaw(11); !bytes.Equal(v, []byte{1, 2, 3}) {
		t.Errorf("raw: %v", v)
	}
}

func TestBadTypeAndNotFound(t *testing.T) {
	m := NewMessage(4)
	m.SetU8(0, 1)
	if _, err := m.GetU16(0); err != smperr.BadType {
		t.Fatalf("err = %v, want BadType", err)
	}
	if _, err := m.GetU8(m.Capacity()); err != smperr.NotFound {
		t.Fatalf("err = %v, want NotFound", err)
	}
}

func TestClearResetsMsgIDAndValues(t *testing.T) {
	m := NewMessage(4)
	m.SetID(7)
	m.SetU8(0, 1)
	m.Clear()
	if m.MsgID() != 0 {
		t.Fatalf("msgid = %d, want 0", m.MsgID())
	}
	if m.NArgs() != 0 {
		t.Fatalf("NArgs = %d, want 0", m.NArgs())
	}
}
