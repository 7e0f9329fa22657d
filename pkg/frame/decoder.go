package frame

import "github.com/oscillon-systems/smp/pkg/smperr"

// State is a Decoder's position in the byte-stuffing state machine.
type State int

const (
	WaitHeader State = iota
	InFrame
	InFrameEsc
)

// Decoder is a byte-at-a-time state machine that recognizes frame
// boundaries, undoes byte-stuffing, verifies the checksum, and yields
// complete payloads. A Decoder is not safe for concurrent use.
type Decoder struct {
	state State
	buf   []byte
	// offset is the number of bytes currently held in buf.
	offset int

	capacity    int
	maxCapacity int
	static      bool
}

const growStep = 1024

// defaultMaxCapacity caps a dynamically-growing decoder buffer at 1 MiB
// unless the caller raises it.
const defaultMaxCapacity = 1024 * 1024

// NewDecoder returns a heap-mode Decoder whose buffer grows in 1024-byte
// steps up to maxCapacity bytes (DefaultMaxFrameSize*1024 if maxCapacity is
// 0).
func NewDecoder(maxCapacity int) *Decoder {
	if maxCapacity <= 0 {
		maxCapacity = defaultMaxCapacity
	}
	initial := growStep
	if initial > maxCapacity {
		initial = maxCapacity
	}
	return &Decoder{
		state:       WaitHeader,
		buf:         make([]byte, initial),
		capacity:    initial,
		maxCapacity: maxCapacity,
	}
}

// NewStaticDecoder returns a Decoder backed by the caller-supplied storage.
// It never grows; any frame larger than len(storage) fails with TooBig.
func NewStaticDecoder(storage []byte) *Decoder {
	return &Decoder{
		state:       WaitHeader,
		buf:         storage,
		capacity:    len(storage),
		maxCapacity: len(storage),
		static:      true,
	}
}

// SetMaxCapacity raises the ceiling a heap-mode Decoder's buffer may grow
// to. It fails with InvalidParam if max <= 16, and with TooBig on a static
// Decoder (growth is never supported there).
func (d *Decoder) SetMaxCapacity(max int) error {
	if d.static {
		return smperr.TooBig
	}
	if max <= 16 {
		return smperr.InvalidParam
	}
	d.maxCapacity = max
	return nil
}

func (d *Decoder) reset() {
	d.state = WaitHeader
	d.offset = 0
}

// grow ensures room for one more byte, returning TooBig if it can't.
func (d *Decoder) grow() error {
	if d.offset < d.capacity {
		return nil
	}
	if d.static || d.capacity >= d.maxCapacity {
		return smperr.TooBig
	}
	newCap := d.capacity + growStep
	if newCap > d.maxCapacity {
		newCap = d.maxCapacity
	}
	if newCap <= d.capacity {
		return smperr.TooBig
	}
	grown := make([]byte, newCap)
	copy(grown, d.buf[:d.offset])
	d.buf = grown
	d.capacity = newCap
	return nil
}

func (d *Decoder) append(b byte) error {
	if err := d.grow(); err != nil {
		return err
	}
	d.buf[d.offset] = b
	d.offset++
	return nil
}

// ProcessByte feeds one byte into the decoder. It returns a non-nil frame
// slice when a complete, checksum-valid frame has just been recognized;
// the slice aliases the Decoder's internal buffer and is only valid until
// the next call to ProcessByte. A non-nil error indicates a protocol-level
// problem (BadMessage, TooBig); it does not necessarily mean no frame was
// produced from a prior byte.
func (d *Decoder) ProcessByte(b byte) ([]byte, error) {
	switch d.state {
	case WaitHeader:
		if b == Start {
			d.state = InFrame
			d.offset = 0
		}
		return nil, nil

	case InFrame:
		switch b {
		case Start:
			d.offset = 0
			return nil, smperr.BadMessage
		case Esc:
			d.state = InFrameEsc
			return nil, nil
		case End:
			frame, err := d.closeFrame()
			d.reset()
			return frame, err
		default:
			if err := d.append(b); err != nil {
				d.reset()
				return nil, err
			}
			return nil, nil
		}

	case InFrameEsc:
		if err := d.append(b); err != nil {
			d.reset()
			return nil, err
		}
		d.state = InFrame
		return nil, nil
	}

	return nil, nil
}

// closeFrame validates and emits the frame currently held in d.buf[:d.offset]
// (payload followed by a trailing CRC byte).
func (d *Decoder) closeFrame() ([]byte, error) {
	if d.offset < 1 {
		return nil, smperr.BadMessage
	}
	payload := d.buf[:d.offset-1]
	gotCRC := d.buf[d.offset-1]
	if checksum(payload) != gotCRC {
		return nil, smperr.BadMessage
	}
	return payload, nil
}
