package serialdev

import (
	"sync"

	"github.com/oscillon-systems/smp/pkg/smperr"
)

// Loopback is an in-memory Device, the stub double used by tests in place
// of a real UART. Bytes written with Write are recorded (see Written) and
// are not looped back to Read; Read only returns bytes supplied via Feed
// to simulate incoming data.
type Loopback struct {
	mu      sync.Mutex
	opened  bool
	rx      []byte
	written [][]byte
	cfg     Config
	closed  bool
}

// NewLoopback returns an unopened Loopback device.
func NewLoopback() *Loopback {
	return &Loopback{}
}

func (l *Loopback) Open(path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.opened {
		return smperr.Busy
	}
	l.opened = true
	l.closed = false
	l.cfg = DefaultConfig()
	return nil
}

func (l *Loopback) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.opened = false
	l.closed = true
	return nil
}

func (l *Loopback) Opened() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.opened
}

func (l *Loopback) SetConfig(cfg Config) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.opened {
		return smperr.BadFD
	}
	l.cfg = cfg
	return nil
}

// Write records buf and reports it fully written.
func (l *Loopback) Write(buf []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.opened {
		return 0, smperr.BadFD
	}
	if l.closed {
		return 0, smperr.Pipe
	}
	cp := make([]byte, len(buf))
	copy(cp, buf)
	l.written = append(l.written, cp)
	return len(buf), nil
}

// Read drains previously Fed bytes; it returns (0, nil) when none are
// pending, matching the non-blocking contract.
func (l *Loopback) Read(buf []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.opened {
		return 0, smperr.BadFD
	}
	if len(l.rx) == 0 {
		return 0, nil
	}
	n := copy(buf, l.rx)
	l.rx = l.rx[n:]
	return n, nil
}

// Wait returns immediately if bytes are pending, else TimedOut.
func (l *Loopback) Wait(timeoutMs int) error {
	l.mu.Lock()
	pending := len(l.rx) > 0
	opened := l.opened
	l.mu.Unlock()
	if !opened {
		return smperr.BadFD
	}
	if pending {
		return nil
	}
	return smperr.TimedOut
}

// Feed appends b to the device's read queue, as if it had arrived over
// the wire.
func (l *Loopback) Feed(b []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rx = append(l.rx, b...)
}

// Written returns every buffer passed to Write so far, in order.
func (l *Loopback) Written() [][]byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([][]byte, len(l.written))
	copy(out, l.written)
	return out
}
