// Package session implements Context: the object that binds a serial
// device to the frame and message codecs and drives the send and receive
// pipelines.
package session

import (
	"log"

	"github.com/oscillon-systems/smp/pkg/frame"
	"github.com/oscillon-systems/smp/pkg/serialdev"
	"github.com/oscillon-systems/smp/pkg/smp"
	"github.com/oscillon-systems/smp/pkg/smperr"
	"github.com/oscillon-systems/smp/pkg/snapshot"
)

// OnMessage is invoked synchronously from ProcessFD/WaitAndProcess for
// every successfully decoded message. ctx is the Context currently being
// driven.
type OnMessage func(ctx *Context, m *smp.Message)

// OnError is invoked synchronously for every decode-time error
// encountered on the receive path (BadMessage, TooBig); it does not
// receive argument-validation errors, which are returned synchronously
// from the call that caused them instead.
type OnError func(ctx *Context, err error)

// Context owns a serial device, a frame decoder, and the callbacks that
// receive decoded messages and receive-path errors. It is not safe for
// concurrent use: a single goroutine is expected to drive both
// SendMessage and ProcessFD/WaitAndProcess.
type Context struct {
	device  serialdev.Device
	decoder *frame.Decoder

	onMessage OnMessage
	onError   OnError
	UserData  interface{}

	opened bool
	static bool

	// static-mode scratch buffers; nil in heap mode.
	serialTx []byte
	msgTx    []byte
	msgRx    *smp.Message

	msgCapacity int

	Logger *log.Logger

	// Recorder, when non-nil, accumulates diagnostics for every message
	// sent or received and every receive-path error.
	Recorder *snapshot.Recorder
}

// New returns a heap-mode Context: every send allocates its own scratch
// buffers and every received frame is decoded into a freshly allocated
// Message of the given capacity.
func New(device serialdev.Device, capacity int, onMessage OnMessage, onError OnError) (*Context, error) {
	if device == nil {
		return nil, smperr.InvalidParam
	}
	if capacity <= 0 {
		capacity = smp.MaxValues
	}
	return &Context{
		device:      device,
		decoder:     frame.NewDecoder(0),
		onMessage:   onMessage,
		onError:     onError,
		msgCapacity: capacity,
		Logger:      log.Default(),
	}, nil
}

// NewStatic returns a static-mode Context: decoder, serialTx, msgTx and
// msgRx are all caller-owned storage and no further allocation happens
// after construction. A nil device, decoder, serialTx, msgTx or msgRx fails
// with InvalidParam; onMessage and onError may be nil.
func NewStatic(device serialdev.Device, decoder *frame.Decoder, serialTx, msgTx []byte, msgRx *smp.Message, onMessage OnMessage, onError OnError) (*Context, error) {
	if device == nil || decoder == nil || serialTx == nil || msgTx == nil || msgRx == nil {
		return nil, smperr.InvalidParam
	}
	return &Context{
		device:    device,
		decoder:   decoder,
		onMessage: onMessage,
		onError:   onError,
		static:    true,
		serialTx:  serialTx,
		msgTx:     msgTx,
		msgRx:     msgRx,
		Logger:    log.Default(),
	}, nil
}

// Open opens path on the underlying device. It fails with Busy if the
// Context is already open.
func (c *Context) Open(path string) error {
	if c.opened {
		return smperr.Busy
	}
	if err := c.device.Open(path); err != nil {
		return err
	}
	c.opened = true
	return nil
}

// Close closes the underlying device. Close is idempotent.
func (c *Context) Close() error {
	if !c.opened {
		return nil
	}
	c.opened = false
	return c.device.Close()
}

// Opened reports whether the Context currently has an open device.
func (c *Context) Opened() bool { return c.opened }

// SendMessage encodes m, frames it, and writes it to the device
// synchronously.
func (c *Context) SendMessage(m *smp.Message) error {
	if !c.opened {
		return smperr.BadFD
	}

	size, err := smp.EncodedSize(m)
	if err != nil {
		return err
	}

	var msgBuf []byte
	if c.static {
		if len(c.msgTx) < size {
			return smperr.Overflow
		}
		msgBuf = c.msgTx[:size]
	} else {
		msgBuf = make([]byte, size)
	}

	if _, err := smp.EncodeMessageInto(m, msgBuf); err != nil {
		return err
	}

	var framed []byte
	if c.static {
		framed, err = frame.Encode(msgBuf, c.serialTx)
	} else {
		framed, err = frame.Encode(msgBuf, nil)
	}
	if err != nil {
		return err
	}

	n, err := c.device.Write(framed)
	if err != nil {
		return err
	}
	if n != len(framed) {
		return smperr.IO
	}
	if c.Recorder != nil {
		c.Recorder.RecordSent(m)
	}
	return nil
}

// ProcessFD drains every byte currently available from the device,
// feeding each to the frame decoder and dispatching decoded
// messages/errors through the configured callbacks. It returns nil once
// the device reports no more bytes pending; a device-level error aborts
// the loop and is returned to the caller.
func (c *Context) ProcessFD() error {
	if !c.opened {
		return smperr.BadFD
	}

	var b [1]byte
	for {
		n, err := c.device.Read(b[:])
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}

		payload, ferr := c.decoder.ProcessByte(b[0])
		if ferr != nil {
			c.reportError(ferr)
			continue
		}
		if payload == nil {
			continue
		}

		if c.static {
			c.msgRx.Clear()
			if derr := smp.DecodeMessageInto(c.msgRx, payload); derr != nil {
				c.reportError(derr)
				continue
			}
			c.dispatch(c.msgRx)
		} else {
			msg, derr := smp.DecodeMessage(payload, c.msgCapacity)
			if derr != nil {
				c.reportError(derr)
				continue
			}
			c.dispatch(msg)
		}
	}
}

// WaitAndProcess waits up to timeoutMs for the device to become readable,
// then calls ProcessFD. A negative timeoutMs means no timeout.
func (c *Context) WaitAndProcess(timeoutMs int) error {
	if !c.opened {
		return smperr.BadFD
	}
	if err := c.device.Wait(timeoutMs); err != nil {
		return err
	}
	return c.ProcessFD()
}

func (c *Context) dispatch(m *smp.Message) {
	if c.Recorder != nil {
		c.Recorder.RecordReceived(m)
	}
	if c.onMessage != nil {
		c.onMessage(c, m)
	}
}

func (c *Context) reportError(err error) {
	if c.Logger != nil {
		c.Logger.Printf("smp: receive error: %v", err)
	}
	if c.Recorder != nil {
		c.Recorder.RecordError(err)
	}
	if c.onError != nil {
		c.onError(c, err)
	}
}
