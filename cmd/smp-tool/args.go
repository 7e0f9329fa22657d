package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/oscillon-systems/smp/pkg/smp"
)

// argSpec is one -arg flag value, "type:value", e.g. "u16:1234" or
// "string:hello".
type argSpec struct {
	typ string
	val string
}

// argList collects repeated -arg flags; it implements flag.Value.
type argList []argSpec

func (a *argList) String() string {
	parts := make([]string, len(*a))
	for i, s := range *a {
		parts[i] = s.typ + ":" + s.val
	}
	return strings.Join(parts, ",")
}

func (a *argList) Set(s string) error {
	idx := strings.IndexByte(s, ':')
	if idx < 0 {
		return fmt.Errorf("arg %q must be TYPE:VALUE", s)
	}
	*a = append(*a, argSpec{typ: s[:idx], val: s[idx+1:]})
	return nil
}

// buildMessage encodes args into a smp.Message with the given msgid.
func buildMessage(msgid uint32, args argList) (*smp.Message, error) {
	m := smp.NewMessage(len(args))
	m.SetID(msgid)

	for i, a := range args {
		var err error
		switch a.typ {
		case "u8":
			v, perr := strconv.ParseUint(a.val, 0, 8)
			if perr == nil {
				err = m.SetU8(i, uint8(v))
			} else {
				err = perr
			}
		case "i8":
			v, perr := strconv.ParseInt(a.val, 0, 8)
			if perr == nil {
				err = m.SetI8(i, int8(v))
			} else {
				err = perr
			}
		case "u16":
			v, perr := strconv.ParseUint(a.val, 0, 16)
			if perr == nil {
				err = m.SetU16(i, uint16(v))
			} else {
				err = perr
			}
		case "i16":
			v, perr := strconv.ParseInt(a.val, 0, 16)
			if perr == nil {
				err = m.SetI16(i, int16(v))
			} else {
				err = perr
			}
		case "u32":
			v, perr := strconv.ParseUint(a.val, 0, 32)
			if perr == nil {
				err = m.SetU32(i, uint32(v))
			} else {
				err = perr
			}
		case "i32":
			v, perr := strconv.ParseInt(a.val, 0, 32)
			if perr == nil {
				err = m.SetI32(i, int32(v))
			} else {
				err = perr
			}
		case "u64":
			v, perr := strconv.ParseUint(a.val, 0, 64)
			if perr == nil {
				err = m.SetU64(i, v)
			} else {
				err = perr
			}
		case "i64":
			v, perr := strconv.ParseInt(a.val, 0, 64)
			if perr == nil {
				err = m.SetI64(i, v)
			} else {
				err = perr
			}
		case "f32":
			v, perr := strconv.ParseFloat(a.val, 32)
			if perr == nil {
				err = m.SetF32(i, float32(v))
			} else {
				err = perr
			}
		case "f64":
			v, perr := strconv.ParseFloat(a.val, 64)
			if perr == nil {
				err = m.SetF64(i, v)
			} else {
				err = perr
			}
		case "string":
			err = m.SetString(i, a.val)
		case "raw":
			err = m.SetRaw(i, []byte(a.val))
		default:
			err = fmt.Errorf("unknown arg type %q", a.typ)
		}
		if err != nil {
			return nil, fmt.Errorf("arg %d (%s): %w", i, a.typ, err)
		}
	}
	return m, nil
}
