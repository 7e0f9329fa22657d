// Command smp-bridge wires a session.Context to Redis via pkg/bridge:
// connect to Redis, open the serial device, republish every decoded
// message onto a Redis channel, and drain an outbound Redis list of
// messages to send.
package main

import (
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/oscillon-systems/smp/pkg/bridge"
	"github.com/oscillon-systems/smp/pkg/serialdev"
	"github.com/oscillon-systems/smp/pkg/session"
	"github.com/oscillon-systems/smp/pkg/smp"
	"github.com/oscillon-systems/smp/pkg/smperr"
	"github.com/oscillon-systems/smp/pkg/snapshot"
)

var (
	devicePath = flag.String("serial", "/dev/ttyUSB0", "Serial device path")
	baudRate   = flag.Int("baud", 115200, "Serial baud rate")
	useTarm    = flag.Bool("tarm", false, "Use the tarm/serial backend instead of go.bug.st/serial")
	redisAddr  = flag.String("redis-addr", "localhost:6379", "Redis server address")
	redisPass  = flag.String("redis-pass", "", "Redis password")
	redisDB    = flag.Int("redis-db", 0, "Redis database number")
	rxChannel  = flag.String("rx-channel", "smp:rx", "Redis channel to publish decoded messages on")
	txListKey  = flag.String("tx-list", "smp:tx", "Redis list key to pop outbound messages from")
	capacity   = flag.Int("capacity", smp.MaxValues, "Receive message capacity")
	snapPath   = flag.String("snapshot", "", "File to write a CBOR diagnostics snapshot to on shutdown (empty disables)")
	snapDepth  = flag.Int("snapshot-depth", 32, "Messages retained per direction in the diagnostics snapshot")
)

func main() {
	flag.Parse()

	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
	log.Printf("Starting smp-bridge")
	log.Printf("Serial device: %s", *devicePath)
	log.Printf("Baud rate: %d", *baudRate)
	log.Printf("Redis address: %s", *redisAddr)

	redisClient, err := bridge.NewClient(*redisAddr, *redisPass, *redisDB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Printf("Connected to Redis")

	br := bridge.New(nil, redisClient, *rxChannel, *txListKey)

	var dev serialdev.Device
	if *useTarm {
		dev = serialdev.NewTarm()
	} else {
		dev = serialdev.NewBugSt()
	}

	ctx, err := session.New(dev, *capacity, br.OnMessage, br.OnError)
	if err != nil {
		log.Fatalf("Failed to create session: %v", err)
	}
	br.SetContext(ctx)

	var recorder *snapshot.Recorder
	if *snapPath != "" {
		recorder = snapshot.NewRecorder(*snapDepth)
		ctx.Recorder = recorder
	}

	if err := ctx.Open(*devicePath); err != nil {
		log.Fatalf("Failed to open %s: %v", *devicePath, err)
	}
	defer ctx.Close()
	log.Printf("Connected to %s", *devicePath)

	if err := dev.SetConfig(serialdev.Config{Baud: serialdev.Baud(*baudRate)}); err != nil {
		log.Printf("Warning: failed to set baud rate: %v", err)
	}

	go br.WatchCommands()
	log.Printf("Watching outbound list %s, publishing to %s", *txListKey, *rxChannel)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		for {
			if err := ctx.WaitAndProcess(200); err != nil && !errors.Is(err, smperr.TimedOut) {
				log.Printf("process error: %v", err)
			}
		}
	}()

	<-sigCh
	br.Stop()
	if recorder != nil {
		buf, err := snapshot.Encode(recorder.Snapshot())
		if err != nil {
			log.Printf("Failed to encode diagnostics snapshot: %v", err)
		} else if err := os.WriteFile(*snapPath, buf, 0644); err != nil {
			log.Printf("Failed to write diagnostics snapshot to %s: %v", *snapPath, err)
		} else {
			log.Printf("Wrote diagnostics snapshot to %s", *snapPath)
		}
	}
	log.Printf("Shutting down...")
}
