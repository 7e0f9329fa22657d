// Command smp-tool opens a serial device, optionally sends one message
// described on the command line, and prints every message it receives
// until interrupted.
package main

import (
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/oscillon-systems/smp/pkg/serialdev"
	"github.com/oscillon-systems/smp/pkg/session"
	"github.com/oscillon-systems/smp/pkg/smp"
	"github.com/oscillon-systems/smp/pkg/smperr"
)

var (
	devicePath = flag.String("serial", "/dev/ttyUSB0", "Serial device path")
	baudRate   = flag.Int("baud", 115200, "Serial baud rate")
	useTarm    = flag.Bool("tarm", false, "Use the tarm/serial backend instead of go.bug.st/serial")
	msgID      = flag.Uint("msgid", 0, "Message ID to send (ignored if -arg is never given)")
	capacity   = flag.Int("capacity", smp.MaxValues, "Receive message capacity")
)

func main() {
	var args argList
	flag.Var(&args, "arg", "TYPE:VALUE argument to send, may be repeated (types: u8,i8,u16,i16,u32,i32,u64,i64,f32,f64,string,raw)")
	flag.Parse()

	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
	log.Printf("Starting smp-tool")
	log.Printf("Serial device: %s", *devicePath)
	log.Printf("Baud rate: %d", *baudRate)

	var dev serialdev.Device
	if *useTarm {
		dev = serialdev.NewTarm()
	} else {
		dev = serialdev.NewBugSt()
	}

	ctx, err := session.New(dev, *capacity,
		func(_ *session.Context, m *smp.Message) {
			log.Printf("RX msgid=%d nargs=%d", m.MsgID(), m.NArgs())
		},
		func(_ *session.Context, err error) {
			log.Printf("RX error: %v", err)
		},
	)
	if err != nil {
		log.Fatalf("Failed to create session: %v", err)
	}

	if err := ctx.Open(*devicePath); err != nil {
		log.Fatalf("Failed to open %s: %v", *devicePath, err)
	}
	defer ctx.Close()
	log.Printf("Connected to %s", *devicePath)

	if err := dev.SetConfig(serialdev.Config{Baud: serialdev.Baud(*baudRate)}); err != nil {
		log.Printf("Warning: failed to set baud rate: %v", err)
	}

	if len(args) > 0 {
		m, err := buildMessage(uint32(*msgID), args)
		if err != nil {
			log.Fatalf("Failed to build message: %v", err)
		}
		if err := ctx.SendMessage(m); err != nil {
			log.Fatalf("Failed to send message: %v", err)
		}
		log.Printf("Sent msgid=%d nargs=%d", m.MsgID(), m.NArgs())
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-sigCh:
			log.Printf("Shutting down...")
			return
		default:
			if err := ctx.WaitAndProcess(200); err != nil && !errors.Is(err, smperr.TimedOut) {
				log.Printf("process error: %v", err)
			}
		}
	}
}
