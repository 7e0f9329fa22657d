package smp

import "github.com/oscillon-systems/smp/pkg/smperr"

// Message is a 32-bit msgid plus an ordered, sparse sequence of Values.
// It is a single type regardless of how its backing array was provided:
// NewMessage allocates a slice sized to at least MaxValues; NewMessageStatic
// uses caller-supplied storage and never allocates again.
type Message struct {
	msgid  uint32
	values []Value
}

// NewMessage returns a Message backed by a freshly allocated slice of at
// least capacity slots, and never fewer than MaxValues.
func NewMessage(capacity int) *Message {
	if capacity < MaxValues {
		capacity = MaxValues
	}
	return &Message{values: make([]Value, capacity)}
}

// NewMessageStatic returns a Message backed directly by values, without
// allocating. The caller owns values and must keep it alive for the
// lifetime of the Message.
func NewMessageStatic(values []Value) *Message {
	return &Message{values: values}
}

// Capacity returns the number of argument slots in m.
func (m *Message) Capacity() int { return len(m.values) }

// MsgID returns m's message id.
func (m *Message) MsgID() uint32 { return m.msgid }

// SetID sets m's message id.
func (m *Message) SetID(id uint32) { m.msgid = id }

// Clear resets every value slot to NONE and zeroes msgid, making message
// reuse fully deterministic.
func (m *Message) Clear() {
	m.msgid = 0
	for i := range m.values {
		m.values[i] = Value{}
	}
}

// NArgs returns the index of the first NONE slot, or Capacity() if every
// slot holds a value.
func (m *Message) NArgs() int {
	for i, v := range m.values {
		if v.IsNone() {
			return i
		}
	}
	return len(m.values)
}

// Get returns the value at index i.
func (m *Message) Get(i int) (Value, error) {
	if i < 0 || i >= len(m.values) {
		return Value{}, smperr.NotFound
	}
	return m.values[i], nil
}

// Set stores v at index i.
func (m *Message) Set(i int, v Value) error {
	if i < 0 || i >= len(m.values) {
		return smperr.NotFound
	}
	m.values[i] = v
	return nil
}

// getTyped fetches the value at i and checks it has type t, returning
// BadType if not.
func (m *Message) getTyped(i int, t T) (Value, error) {
	v, err := m.Get(i)
	if err != nil {
		return Value{}, err
	}
	if v.typ != t {
		return Value{}, smperr.BadType
	}
	return v, nil
}

func (m *Message) GetU8(i int) (uint8, error) {
	v, err := m.getTyped(i, U8)
	if err != nil {
		return 0, err
	}
	x, _ := v.U8()
	return x, nil
}

func (m *Message) GetI8(i int) (int8, error) {
	v, err := m.getTyped(i, I8)
	if err != nil {
		return 0, err
	}
	x, _ := v.I8()
	return x, nil
}

func (m *Message) GetU16(i int) (uint16, error) {
	v, err := m.getTyped(i, U16)
	if err != nil {
		return 0, err
	}
	x, _ := v.U16()
	return x, nil
}

func (m *Message) GetI16(i int) (int16, error) {
	v, err := m.getTyped(i, I16)
	if err != nil {
		return 0, err
	}
	x, _ := v.I16()
	return x, nil
}

func (m *Message) GetU32(i int) (uint32, error) {
	v, err := m.getTyped(i, U32)
	if err != nil {
		return 0, err
	}
	x, _ := v.U32()
	return x, nil
}

func (m *Message) GetI32(i int) (int32, error) {
	v, err := m.getTyped(i, I32)
	if err != nil {
		return 0, err
	}
	x, _ := v.I32()
	return x, nil
}

func (m *Message) GetU64(i int) (uint64, error) {
	v, err := m.getTyped(i, U64)
	if err != nil {
		return 0, err
	}
	x, _ := v.U64()
	return x, nil
}

func (m *Message) GetI64(i int) (int64, error) {
	v, err := m.getTyped(i, I64)
	if err != nil {
		return 0, err
	}
	x, _ := v.I64()
	return x, nil
}

func (m *Message) GetF32(i int) (float32, error) {
	v, err := m.getTyped(i, F32)
	if err != nil {
		return 0, err
	}
	x, _ := v.F32()
	return x, nil
}

func (m *Message) GetF64(i int) (float64, error) {
	v, err := m.getTyped(i, F64)
	if err != nil {
		return 0, err
	}
	x, _ := v.F64()
	return x, nil
}

func (m *Message) GetString(i int) (string, error) {
	v, err := m.getTyped(i, STRING)
	if err != nil {
		return "", err
	}
	s, _ := v.Str()
	return s, nil
}

func (m *Message) GetRaw(i int) ([]byte, error) {
	v, err := m.getTyped(i, RAW)
	if err != nil {
		return nil, err
	}
	b, _ := v.Raw()
	return b, nil
}

func (m *Message) SetU8(i int, x uint8) error   { return m.Set(i, ValueU8(x)) }
func (m *Message) SetI8(i int, x int8) error    { return m.Set(i, ValueI8(x)) }
func (m *Message) SetU16(i int, x uint16) error { return m.Set(i, ValueU16(x)) }
func (m *Message) SetI16(i int, x int16) error  { return m.Set(i, ValueI16(x)) }
func (m *Message) SetU32(i int, x uint32) error { return m.Set(i, ValueU32(x)) }
func (m *Message) SetI32(i int, x int32) error  { return m.Set(i, ValueI32(x)) }
func (m *Message) SetU64(i int, x uint64) error { return m.Set(i, ValueU64(x)) }
func (m *Message) SetI64(i int, x int64) error  { return m.Set(i, ValueI64(x)) }
func (m *Message) SetF32(i int, x float32) error { return m.Set(i, ValueF32(x)) }
func (m *Message) SetF64(i int, x float64) error { return m.Set(i, ValueF64(x)) }
func (m *Message) SetString(i int, s string) error { return m.Set(i, ValueString(s)) }
func (m *Message) SetRaw(i int, b []byte) error    { return m.Set(i, ValueRaw(b)) }
