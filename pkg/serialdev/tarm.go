package serialdev

import (
	"time"

	"github.com/oscillon-systems/smp/pkg/smperr"
	"github.com/tarm/serial"
)

// Tarm is an alternate Device adapter backed by github.com/tarm/serial,
// kept for targets where go.bug.st/serial's ioctl set isn't available.
type Tarm struct {
	base
	path string
}

// NewTarm returns an unopened Tarm device.
func NewTarm() *Tarm {
	return &Tarm{}
}

func (d *Tarm) Open(path string) error {
	if d.opened {
		return smperr.Busy
	}
	cfg := DefaultConfig()
	port, err := serial.OpenPort(toTarmConfig(path, cfg))
	if err != nil {
		return smperr.NoDevice
	}
	d.path = path
	d.port = port
	d.opened = true
	return nil
}

// SetConfig on tarm/serial requires reopening the port, since the library
// has no in-place reconfiguration call.
func (d *Tarm) SetConfig(cfg Config) error {
	if !d.opened {
		return smperr.BadFD
	}
	if cfg.FlowControl {
		return smperr.NotSupported
	}
	if err := d.port.Close(); err != nil {
		return smperr.IO
	}
	port, err := serial.OpenPort(toTarmConfig(d.path, cfg))
	if err != nil {
		return smperr.IO
	}
	d.port = port
	return nil
}

func toTarmConfig(path string, cfg Config) *serial.Config {
	parity := serial.ParityNone
	switch cfg.Parity {
	case ParityOdd:
		parity = serial.ParityOdd
	case ParityEven:
		parity = serial.ParityEven
	}
	return &serial.Config{
		Name:        path,
		Baud:        int(cfg.Baud),
		Size:        8,
		Parity:      parity,
		StopBits:    serial.Stop1,
		ReadTimeout: 50 * time.Millisecond,
	}
}
