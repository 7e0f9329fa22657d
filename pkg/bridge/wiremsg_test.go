package bridge

import (
	"testing"

	"github.com/oscillon-systems/smp/pkg/smp"
)

func TestEncodeDecodeMessageRoundTrip(t *testing.T) {
	m := smp.NewMessage(6)
	m.SetID(42)
	if err := m.SetU32(0, 100); err != nil {
		t.Fatalf("SetU32: %v", err)
	}
	if err := m.SetI16(1, -7); err != nil {
		t.Fatalf("SetI16: %v", err)
	}
	if err := m.SetString(2, "hello"); err != nil {
		t.Fatalf("SetString: %v", err)
	}
	if err := m.SetRaw(3, []byte{0xde, 0xad}); err != nil {
		t.Fatalf("SetRaw: %v", err)
	}
	if err := m.SetF32(4, 1.5); err != nil {
		t.Fatalf("SetF32: %v", err)
	}
	if err := m.SetF64(5, 2.25); err != nil {
		t.Fatalf("SetF64: %v", err)
	}

	buf, err := EncodeMessage(m)
	if err != nil {
		t.Fatalf("EncodeMessage: %v", err)
	}

	got, err := DecodeMessage(buf)
	if err != nil {
		t.Fatalf("DecodeMessage: %v", err)
	}

	if got.MsgID() != 42 {
		t.Fatalf("expected msgid 42, got %d", got.MsgID())
	}
	if v, err := got.GetU32(0); err != nil || v != 100 {
		t.Fatalf("arg0: %v %v", v, err)
	}
	if v, err := got.GetI16(1); err != nil || v != -7 {
		t.Fatalf("arg1: %v %v", v, err)
	}
	if v, err := got.GetString(2); err != nil || v != "hello" {
		t.Fatalf("arg2: %q %v", v, err)
	}
	if v, err := got.GetRaw(3); err != nil || string(v) != "\xde\xad" {
		t.Fatalf("arg3: %x %v", v, err)
	}
	if v, err := got.GetF32(4); err != nil || v != 1.5 {
		t.Fatalf("arg4: %v %v", v, err)
	}
	if v, err := got.GetF64(5); err != nil || v != 2.25 {
		t.Fatalf("arg5: %v %v", v, err)
	}
}
