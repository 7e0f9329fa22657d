package bridge

import (
	"math"

	"github.com/fxamacker/cbor/v2"

	"github.com/oscillon-systems/smp/pkg/smp"
	"github.com/oscillon-systems/smp/pkg/smperr"
)

// wireValue is the CBOR-serializable shadow of smp.Value: Value's fields
// are private, so a message crossing the Redis boundary is flattened into
// this representation and rebuilt on the other side.
type wireValue struct {
	Type uint8  `cbor:"t"`
	Bits uint64 `cbor:"b,omitempty"`
	Str  string `cbor:"s,omitempty"`
	Raw  []byte `cbor:"r,omitempty"`
}

// wireMessage is the CBOR envelope published/consumed over Redis,
// carrying an smp.Message's id and its arguments up to the first NONE slot
// (NArgs) across the pub/sub and list boundary; slots after that are not
// carried.
type wireMessage struct {
	MsgID  uint32      `cbor:"id"`
	Values []wireValue `cbor:"v"`
}

func toWire(m *smp.Message) wireMessage {
	n := m.NArgs()
	values := make([]wireValue, 0, n)
	for i := 0; i < n; i++ {
		v, err := m.Get(i)
		if err != nil {
			continue
		}
		wv := wireValue{Type: uint8(v.Type())}
		switch v.Type() {
		case smp.STRING:
			wv.Str, _ = v.Str()
		case smp.RAW:
			wv.Raw, _ = v.Raw()
		case smp.F32:
			if b, ok := v.F32(); ok {
				wv.Bits = uint64(math.Float32bits(b))
			}
		case smp.F64:
			if b, ok := v.F64(); ok {
				wv.Bits = math.Float64bits(b)
			}
		default:
			if b, ok := v.U64(); ok {
				wv.Bits = b
			} else if b, ok := v.I64(); ok {
				wv.Bits = uint64(b)
			} else if b, ok := v.U32(); ok {
				wv.Bits = uint64(b)
			} else if b, ok := v.I32(); ok {
				wv.Bits = uint64(uint32(b))
			} else if b, ok := v.U16(); ok {
				wv.Bits = uint64(b)
			} else if b, ok := v.I16(); ok {
				wv.Bits = uint64(uint16(b))
			} else if b, ok := v.U8(); ok {
				wv.Bits = uint64(b)
			} else if b, ok := v.I8(); ok {
				wv.Bits = uint64(uint8(b))
			}
		}
		values = append(values, wv)
	}
	return wireMessage{MsgID: m.MsgID(), Values: values}
}

func fromWire(w wireMessage) (*smp.Message, error) {
	m := smp.NewMessage(len(w.Values))
	m.SetID(w.MsgID)
	for i, wv := range w.Values {
		var err error
		switch smp.T(wv.Type) {
		case smp.U8:
			err = m.SetU8(i, uint8(wv.Bits))
		case smp.I8:
			err = m.SetI8(i, int8(wv.Bits))
		case smp.U16:
			err = m.SetU16(i, uint16(wv.Bits))
		case smp.I16:
			err = m.SetI16(i, int16(wv.Bits))
		case smp.U32:
			err = m.SetU32(i, uint32(wv.Bits))
		case smp.I32:
			err = m.SetI32(i, int32(wv.Bits))
		case smp.U64:
			err = m.SetU64(i, wv.Bits)
		case smp.I64:
			err = m.SetI64(i, int64(wv.Bits))
		case smp.STRING:
			err = m.SetString(i, wv.Str)
		case smp.RAW:
			err = m.SetRaw(i, wv.Raw)
		case smp.F32:
			err = m.SetF32(i, math.Float32frombits(uint32(wv.Bits)))
		case smp.F64:
			err = m.SetF64(i, math.Float64frombits(wv.Bits))
		default:
			err = smperr.BadType
		}
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}

// EncodeMessage CBOR-encodes m for transport over a Redis channel or list.
func EncodeMessage(m *smp.Message) ([]byte, error) {
	return cbor.Marshal(toWire(m))
}

// DecodeMessage reconstructs a Message previously produced by EncodeMessage.
func DecodeMessage(buf []byte) (*smp.Message, error) {
	var w wireMessage
	if err := cbor.Unmarshal(buf, &w); err != nil {
		return nil, err
	}
	return fromWire(w)
}
