package session

import (
	"errors"
	"testing"

	"github.com/oscillon-systems/smp/pkg/frame"
	"github.com/oscillon-systems/smp/pkg/serialdev"
	"github.com/oscillon-systems/smp/pkg/smp"
	"github.com/oscillon-systems/smp/pkg/smperr"
	"github.com/oscillon-systems/smp/pkg/snapshot"
)

func newTestContext(t *testing.T) (*Context, *serialdev.Loopback, *[]*smp.Message, *[]error) {
	t.Helper()
	dev := serialdev.NewLoopback()

	received := &[]*smp.Message{}
	errs := &[]error{}

	ctx, err := New(dev, smp.MaxValues,
		func(c *Context, m *smp.Message) { *received = append(*received, m) },
		func(c *Context, e error) { *errs = append(*errs, e) },
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := ctx.Open("/dev/loop0"); err != nil {
		t.Fatalf("Open: %v", err)
	}
	return ctx, dev, received, errs
}

func TestSendMessageRequiresOpen(t *testing.T) {
	dev := serialdev.NewLoopback()
	ctx, err := New(dev, 4, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	m := smp.NewMessage(1)
	if err := ctx.SendMessage(m); !errors.Is(err, smperr.BadFD) {
		t.Fatalf("expected BadFD before Open, got %v", err)
	}
}

func TestSendMessageWritesFramedBytes(t *testing.T) {
	ctx, dev, _, _ := newTestContext(t)

	m := smp.NewMessage(2)
	m.SetID(7)
	if err := m.SetU8(0, 9); err != nil {
		t.Fatalf("SetU8: %v", err)
	}

	if err := ctx.SendMessage(m); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	written := dev.Written()
	if len(written) != 1 {
		t.Fatalf("expected exactly one write, got %d", len(written))
	}
	framed := written[0]
	if framed[0] != frame.Start || framed[len(framed)-1] != frame.End {
		t.Fatalf("expected a framed buffer, got %x", framed)
	}
}

func TestProcessFDDecodesRoundTrippedMessage(t *testing.T) {
	senderDev := serialdev.NewLoopback()
	sender, err := New(senderDev, smp.MaxValues, nil, nil)
	if err != nil {
		t.Fatalf("New sender: %v", err)
	}
	if err := sender.Open("/dev/loop0"); err != nil {
		t.Fatalf("Open sender: %v", err)
	}

	m := smp.NewMessage(3)
	m.SetID(99)
	if err := m.SetU16(0, 1234); err != nil {
		t.Fatalf("SetU16: %v", err)
	}
	if err := m.SetString(1, "hi"); err != nil {
		t.Fatalf("SetString: %v", err)
	}
	if err := sender.SendMessage(m); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	framed := senderDev.Written()[0]

	receiver, receiverDev, received, errs := newTestContext(t)
	receiverDev.Feed(framed)

	if err := receiver.ProcessFD(); err != nil {
		t.Fatalf("ProcessFD: %v", err)
	}
	if len(*errs) != 0 {
		t.Fatalf("expected no decode errors, got %v", *errs)
	}
	if len(*received) != 1 {
		t.Fatalf("expected exactly one decoded message, got %d", len(*received))
	}

	got := (*received)[0]
	if got.MsgID() != 99 {
		t.Fatalf("expected msgid 99, got %d", got.MsgID())
	}
	v, err := got.GetU16(0)
	if err != nil || v != 1234 {
		t.Fatalf("expected arg0=1234, got %v err=%v", v, err)
	}
	s, err := got.GetString(1)
	if err != nil || s != "hi" {
		t.Fatalf("expected arg1=\"hi\", got %q err=%v", s, err)
	}
}

func TestProcessFDRequiresOpen(t *testing.T) {
	dev := serialdev.NewLoopback()
	ctx, err := New(dev, 4, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := ctx.ProcessFD(); !errors.Is(err, smperr.BadFD) {
		t.Fatalf("expected BadFD, got %v", err)
	}
}

func TestProcessFDReportsBadMessage(t *testing.T) {
	ctx, dev, received, errs := newTestContext(t)
	dev.Feed([]byte{frame.Start, 0x42, 0x33, 0x00, frame.End})

	if err := ctx.ProcessFD(); err != nil {
		t.Fatalf("ProcessFD: %v", err)
	}
	if len(*received) != 0 {
		t.Fatalf("expected no decoded messages, got %d", len(*received))
	}
	if len(*errs) != 1 {
		t.Fatalf("expected exactly one reported error, got %d", len(*errs))
	}
}

func TestWaitAndProcessTimesOutOnEmptyQueue(t *testing.T) {
	ctx, _, _, _ := newTestContext(t)
	if err := ctx.WaitAndProcess(0); !errors.Is(err, smperr.TimedOut) {
		t.Fatalf("expected TimedOut, got %v", err)
	}
}

func TestRecorderObservesTraffic(t *testing.T) {
	ctx, dev, _, _ := newTestContext(t)
	rec := snapshot.NewRecorder(8)
	ctx.Recorder = rec

	m := smp.NewMessage(1)
	m.SetID(5)
	if err := m.SetU8(0, 1); err != nil {
		t.Fatalf("SetU8: %v", err)
	}
	if err := ctx.SendMessage(m); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	dev.Feed(dev.Written()[0])
	dev.Feed([]byte{frame.Start, 0x42, 0x33, 0x00, frame.End})
	if err := ctx.ProcessFD(); err != nil {
		t.Fatalf("ProcessFD: %v", err)
	}

	snap := rec.Snapshot()
	if len(snap.Sent) != 1 || snap.Sent[0].MsgID != 5 {
		t.Fatalf("unexpected sent entries: %+v", snap.Sent)
	}
	if len(snap.Received) != 1 || snap.Received[0].MsgID != 5 {
		t.Fatalf("unexpected received entries: %+v", snap.Received)
	}
	if snap.Errors[int(smperr.BadMessage)] != 1 {
		t.Fatalf("unexpected error counts: %+v", snap.Errors)
	}
}

func TestNewStaticRejectsNilArgs(t *testing.T) {
	dev := serialdev.NewLoopback()
	if _, err := NewStatic(dev, nil, nil, nil, nil, nil, nil); !errors.Is(err, smperr.InvalidParam) {
		t.Fatalf("expected InvalidParam, got %v", err)
	}
}

func TestStaticSendMessageOverflow(t *testing.T) {
	dev := serialdev.NewLoopback()

	decoder := frame.NewStaticDecoder(make([]byte, 64))
	serialTx := make([]byte, 64)
	msgTx := make([]byte, 4)
	msgRx := smp.NewMessageStatic(make([]smp.Value, 4))

	ctx, err := NewStatic(dev, decoder, serialTx, msgTx, msgRx, nil, nil)
	if err != nil {
		t.Fatalf("NewStatic: %v", err)
	}
	if err := ctx.Open("/dev/loop0"); err != nil {
		t.Fatalf("Open: %v", err)
	}

	m := smp.NewMessage(2)
	m.SetID(1)
	if err := m.SetU64(0, 1); err != nil {
		t.Fatalf("SetU64: %v", err)
	}
	if err := ctx.SendMessage(m); !errors.Is(err, smperr.Overflow) {
		t.Fatalf("expected Overflow for an msgTx too small to hold the encoded message, got %v", err)
	}
}
