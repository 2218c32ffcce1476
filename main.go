package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/atinm/loop4r-read/bridge"
	"github.com/atinm/loop4r-read/config"
	"github.com/atinm/loop4r-read/midi"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	var (
		list      = flag.Bool("list", false, "list MIDI ports and exit")
		version   = flag.Bool("version", false, "print version and exit")
		debug     = flag.Bool("debug", false, "enable debug logging")
		sendPanic = flag.Bool("panic", false, "send all note-offs and panic CCs once the output is up")
	)
	flag.StringVar(&cfg.MIDIIn, "din", cfg.MIDIIn, "MIDI input port name (substring match allowed)")
	flag.StringVar(&cfg.VirtualOut, "vout", cfg.VirtualOut, "virtual MIDI output port name")
	flag.IntVar(&cfg.Channel, "ch", cfg.Channel, "MIDI channel (1-16), 0 for all")
	flag.IntVar(&cfg.BaseNote, "base", cfg.BaseNote, "base note for pedal events")
	flag.IntVar(&cfg.OSCSendPort, "oout", cfg.OSCSendPort, "OSC send port (looper engine)")
	flag.IntVar(&cfg.OSCListenPort, "oin", cfg.OSCListenPort, "OSC listen port")
	flag.Parse()

	if *version {
		fmt.Printf("loop4r-read v%s\n", bridge.Version)
		return nil
	}
	if *list {
		ins, outs := midi.ListPorts()
		fmt.Println("MIDI input ports:")
		for _, name := range ins {
			fmt.Printf("  %s\n", name)
		}
		fmt.Println("MIDI output ports:")
		for _, name := range outs {
			fmt.Printf("  %s\n", name)
		}
		return nil
	}
	if cfg.MIDIIn == "" {
		flag.Usage()
		return errors.New("no MIDI input port configured, use -din")
	}

	logger, err := newLogger(*debug)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }() // Best effort.

	b := bridge.New(*cfg, logger)
	if *sendPanic {
		b.RequestPanic()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("loop4r-read starting",
		zap.String("version", bridge.Version),
		zap.String("midiIn", cfg.MIDIIn),
		zap.Int("oscSend", cfg.OSCSendPort),
		zap.Int("oscListen", cfg.OSCListenPort))

	if err := b.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
