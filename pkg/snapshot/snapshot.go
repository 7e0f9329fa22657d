// Package snapshot captures a rolling diagnostics view of a session for
// field support: the last N sent/received messages and per-code error
// counts, CBOR-encoded for compact transport. This is a side channel for
// support tooling, never part of the wire protocol itself.
package snapshot

import (
	"sync"

	"github.com/fxamacker/cbor/v2"

	"github.com/oscillon-systems/smp/pkg/smp"
	"github.com/oscillon-systems/smp/pkg/smperr"
)

// Entry records one message observed on the send or receive path.
type Entry struct {
	Direction string `cbor:"dir"`
	MsgID     uint32 `cbor:"msgid"`
	NArgs     int    `cbor:"nargs"`
}

// Snapshot is a CBOR-serializable diagnostics payload.
type Snapshot struct {
	Sent     []Entry     `cbor:"sent"`
	Received []Entry     `cbor:"received"`
	Errors   map[int]int `cbor:"errors"`
}

// Recorder accumulates a bounded ring of send/receive Entries plus error
// counts by code, and marshals them to CBOR on demand.
type Recorder struct {
	mu     sync.Mutex
	depth  int
	sent   []Entry
	recv   []Entry
	errors map[int]int
}

// NewRecorder returns a Recorder retaining up to depth entries per
// direction. depth <= 0 defaults to 32.
func NewRecorder(depth int) *Recorder {
	if depth <= 0 {
		depth = 32
	}
	return &Recorder{depth: depth, errors: make(map[int]int)}
}

func push(ring []Entry, e Entry, depth int) []Entry {
	ring = append(ring, e)
	if len(ring) > depth {
		ring = ring[len(ring)-depth:]
	}
	return ring
}

// RecordSent appends an Entry for a message that was just sent.
func (r *Recorder) RecordSent(m *smp.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = push(r.sent, Entry{Direction: "sent", MsgID: m.MsgID(), NArgs: m.NArgs()}, r.depth)
}

// RecordReceived appends an Entry for a message that was just decoded.
func (r *Recorder) RecordReceived(m *smp.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recv = push(r.recv, Entry{Direction: "received", MsgID: m.MsgID(), NArgs: m.NArgs()}, r.depth)
}

// RecordError increments the counter for err's code. Non-smperr errors are
// counted under smperr.Other.
func (r *Recorder) RecordError(err error) {
	code := int(smperr.Other)
	if e, ok := err.(smperr.Error); ok {
		code = int(e)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors[code]++
}

// Snapshot returns a point-in-time copy of the recorded diagnostics.
func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	sent := make([]Entry, len(r.sent))
	copy(sent, r.sent)
	recv := make([]Entry, len(r.recv))
	copy(recv, r.recv)
	errs := make(map[int]int, len(r.errors))
	for k, v := range r.errors {
		errs[k] = v
	}
	return Snapshot{Sent: sent, Received: recv, Errors: errs}
}

// Encode CBOR-marshals a Snapshot.
func Encode(s Snapshot) ([]byte, error) {
	return cbor.Marshal(s)
}

// Decode CBOR-unmarshals a Snapshot previously produced by Encode.
func Decode(buf []byte) (Snapshot, error) {
	var s Snapshot
	err := cbor.Unmarshal(buf, &s)
	return s, err
}
