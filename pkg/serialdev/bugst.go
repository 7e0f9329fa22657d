package serialdev

import (
	"time"

	"github.com/oscillon-systems/smp/pkg/smperr"
	"go.bug.st/serial"
)

// BugSt is the primary, cross-platform Device adapter, backed by
// go.bug.st/serial.
type BugSt struct {
	base
}

// NewBugSt returns an unopened BugSt device.
func NewBugSt() *BugSt {
	return &BugSt{}
}

func (d *BugSt) Open(path string) error {
	if d.opened {
		return smperr.Busy
	}
	port, err := serial.Open(path, toBugStMode(DefaultConfig()))
	if err != nil {
		return smperr.NoDevice
	}
	if err := port.SetReadTimeout(50 * time.Millisecond); err != nil {
		port.Close()
		return smperr.IO
	}
	d.port = port
	d.opened = true
	return nil
}

func (d *BugSt) SetConfig(cfg Config) error {
	if !d.opened {
		return smperr.BadFD
	}
	if cfg.FlowControl {
		// go.bug.st/serial.Mode has no flow-control field.
		return smperr.NotSupported
	}
	port, ok := d.port.(serial.Port)
	if !ok {
		return smperr.NotSupported
	}
	if err := port.SetMode(toBugStMode(cfg)); err != nil {
		return smperr.NotSupported
	}
	return nil
}

func toBugStMode(cfg Config) *serial.Mode {
	mode := &serial.Mode{
		BaudRate: int(cfg.Baud),
		DataBits: 8,
		StopBits: serial.OneStopBit,
	}
	switch cfg.Parity {
	case ParityOdd:
		mode.Parity = serial.OddParity
	case ParityEven:
		mode.Parity = serial.EvenParity
	default:
		mode.Parity = serial.NoParity
	}
	return mode
}
