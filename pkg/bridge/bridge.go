// Package bridge republishes decoded messages onto a Redis channel and
// drains an outbound Redis list of messages to send. It is an optional
// integration surface, never a dependency of pkg/session itself.
package bridge

import (
	"log"
	"time"

	"github.com/oscillon-systems/smp/pkg/session"
	"github.com/oscillon-systems/smp/pkg/smp"
)

// Bridge wires a session.Context to Redis: every message the Context
// decodes is CBOR-encoded and published to RXChannel; every CBOR payload
// popped off TXListKey is decoded and sent through the Context.
type Bridge struct {
	ctx    *session.Context
	client *Client

	RXChannel string
	TXListKey string

	stopCh chan struct{}
	Logger *log.Logger
}

// New returns a Bridge driving ctx's sends/receives through client. ctx
// may be nil at construction time and supplied later via SetContext, so
// a Bridge's callbacks can be wired into session.New before the Context
// it will drive exists.
func New(ctx *session.Context, client *Client, rxChannel, txListKey string) *Bridge {
	return &Bridge{
		ctx:       ctx,
		client:    client,
		RXChannel: rxChannel,
		TXListKey: txListKey,
		stopCh:    make(chan struct{}),
		Logger:    log.Default(),
	}
}

// SetContext attaches the session.Context this Bridge sends outbound
// messages through.
func (br *Bridge) SetContext(ctx *session.Context) {
	br.ctx = ctx
}

// OnMessage is a session.OnMessage callback that publishes every decoded
// message to RXChannel. Pass it to session.New/NewStatic when
// constructing the Context this Bridge will drive.
func (br *Bridge) OnMessage(_ *session.Context, m *smp.Message) {
	buf, err := EncodeMessage(m)
	if err != nil {
		br.Logger.Printf("bridge: failed to encode message %d for publish: %v", m.MsgID(), err)
		return
	}
	if err := br.client.Publish(br.RXChannel, buf); err != nil {
		br.Logger.Printf("bridge: failed to publish message %d: %v", m.MsgID(), err)
	}
}

// OnError is a session.OnError callback that logs receive-path errors.
func (br *Bridge) OnError(_ *session.Context, err error) {
	br.Logger.Printf("bridge: receive error: %v", err)
}

// WatchCommands blocks, popping CBOR-encoded messages off TXListKey and
// sending each through the Context. It checks for Stop between pops and
// returns once Stop has been called; a pop in progress waits without a
// timeout until an element arrives. It is intended to run in its own
// goroutine.
func (br *Bridge) WatchCommands() {
	br.Logger.Printf("bridge: watching outbound list %s", br.TXListKey)
	for {
		select {
		case <-br.stopCh:
			br.Logger.Printf("bridge: stopping outbound watcher")
			return
		default:
		}

		payload, err := br.client.BRPop(0*time.Second, br.TXListKey)
		if err != nil {
			br.Logger.Printf("bridge: BRPOP on %s failed: %v", br.TXListKey, err)
			time.Sleep(time.Second)
			continue
		}
		if payload == nil {
			continue
		}

		m, err := DecodeMessage(payload)
		if err != nil {
			br.Logger.Printf("bridge: failed to decode outbound payload: %v", err)
			continue
		}
		if err := br.ctx.SendMessage(m); err != nil {
			br.Logger.Printf("bridge: failed to send message %d: %v", m.MsgID(), err)
		}
	}
}

// Stop signals WatchCommands to return.
func (br *Bridge) Stop() {
	close(br.stopCh)
}
