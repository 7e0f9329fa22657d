// Package serialdev defines the serial-device contract the session layer
// drives, and a handful of concrete adapters over it.
package serialdev

import (
	"time"

	"github.com/oscillon-systems/smp/pkg/smperr"
)

// Baud is a supported line rate. The base set matches every real UART;
// the extended set is only honored by adapters/platforms that support it.
type Baud int

const (
	Baud1200   Baud = 1200
	Baud2400   Baud = 2400
	Baud4800   Baud = 4800
	Baud9600   Baud = 9600
	Baud19200  Baud = 19200
	Baud38400  Baud = 38400
	Baud57600  Baud = 57600
	Baud115200 Baud = 115200

	// Extended set.
	Baud125000 Baud = 125000
	Baud230400 Baud = 230400
	Baud460800 Baud = 460800
	Baud921600 Baud = 921600
	Baud1M     Baud = 1000000
	Baud2M     Baud = 2000000
	Baud4M     Baud = 4000000
)

// Parity selects the UART parity bit.
type Parity int

const (
	ParityNone Parity = iota
	ParityOdd
	ParityEven
)

// Config is the line configuration applied by SetConfig. The zero value
// leaves Baud at 0; DefaultConfig returns the default 115200 8-N-1, no flow
// control.
type Config struct {
	Baud        Baud
	Parity      Parity
	FlowControl bool
}

// DefaultConfig returns the documented default (115200 8-N-1, no flow
// control, raw mode on tty-like devices).
func DefaultConfig() Config {
	return Config{Baud: Baud115200, Parity: ParityNone, FlowControl: false}
}

// Device is the contract a transport must satisfy to back a session
// Context. Exactly one goroutine is expected to drive Read/Write/Wait at a
// time; Device implementations need not be safe for concurrent use.
type Device interface {
	// Open opens the named port with DefaultConfig applied.
	Open(path string) error
	// Close closes the device. Close is idempotent.
	Close() error
	// Opened reports whether Open has succeeded and Close has not yet
	// been called.
	Opened() bool
	// SetConfig reconfigures line parameters. May fail with NotSupported.
	SetConfig(cfg Config) error
	// Write writes buf, best-effort atomically; a short write returns the
	// count actually written with a nil error.
	Write(buf []byte) (int, error)
	// Read is non-blocking: it returns (0, nil) when no bytes are
	// currently available.
	Read(buf []byte) (int, error)
	// Wait blocks until the device is readable or timeoutMs elapses.
	// timeoutMs < 0 means no timeout. Returns TimedOut on expiry.
	Wait(timeoutMs int) error
}

// pollPort is the minimal surface both go.bug.st/serial.Port and
// *tarm/serial.Port already satisfy.
type pollPort interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
}

// base implements the Read/Wait non-blocking-via-peek contract shared by
// every concrete adapter, so each adapter only has to know how to open and
// reconfigure its underlying library port.
type base struct {
	port    pollPort
	opened  bool
	pending []byte // a byte peeked by Wait but not yet delivered to Read
}

func (b *base) Opened() bool { return b.opened }

func (b *base) Close() error {
	if !b.opened {
		return nil
	}
	b.opened = false
	return b.port.Close()
}

func (b *base) Write(buf []byte) (int, error) {
	if !b.opened {
		return 0, smperr.BadFD
	}
	n, err := b.port.Write(buf)
	if err != nil {
		return n, mapIOError(err)
	}
	return n, nil
}

// Read is non-blocking: it first drains any byte Wait peeked ahead, then
// performs a short, timeout-bounded read of the underlying port, treating
// a timeout or zero bytes as "nothing pending" rather than an error.
func (b *base) Read(buf []byte) (int, error) {
	if !b.opened {
		return 0, smperr.BadFD
	}
	if len(buf) == 0 {
		return 0, nil
	}
	if len(b.pending) > 0 {
		n := copy(buf, b.pending)
		b.pending = b.pending[n:]
		return n, nil
	}
	n, err := b.port.Read(buf)
	if err != nil {
		if isTimeout(err) {
			return 0, nil
		}
		return 0, mapIOError(err)
	}
	return n, nil
}

// Wait polls the underlying port in small read slices until a byte is
// available (stashed in pending for the next Read) or timeoutMs elapses.
func (b *base) Wait(timeoutMs int) error {
	if !b.opened {
		return smperr.BadFD
	}

	const pollSlice = 20 * time.Millisecond
	deadline := time.Time{}
	if timeoutMs >= 0 {
		deadline = time.Now().Add(time.Duration(timeoutMs) * time.Millisecond)
	}

	peek := make([]byte, 1)
	for {
		n, err := b.port.Read(peek)
		if err != nil && !isTimeout(err) {
			return mapIOError(err)
		}
		if n > 0 {
			b.pending = append(b.pending, peek[:n]...)
			return nil
		}
		if timeoutMs >= 0 && !time.Now().Before(deadline) {
			return smperr.TimedOut
		}
		time.Sleep(pollSlice)
	}
}

func isTimeout(err error) bool {
	type timeouter interface{ Timeout() bool }
	if t, ok := err.(timeouter); ok {
		return t.Timeout()
	}
	return false
}

// mapIOError maps a lower-level transport error onto the shared error
// taxonomy. A real adapter additionally inspects platform-specific errno
// values (EPIPE -> Pipe) in isPipeError.
func mapIOError(err error) error {
	if err == nil {
		return nil
	}
	if isPipeError(err) {
		return smperr.Pipe
	}
	return smperr.IO
}
