// Package bridge connects a 10-button MIDI foot controller to a
// SooperLooper engine over OSC and mirrors the engine's per-loop state
// back onto the controller's LEDs and onto remote display clients.
package bridge

import (
	"context"
	"time"

	"github.com/hypebeast/go-osc/osc"
	"github.com/pkg/errors"
	gomidi "gitlab.com/gomidi/midi/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/atinm/loop4r-read/config"
	"github.com/atinm/loop4r-read/midi"
)

// Version is reported to display clients and by the -version flag.
const Version = "1.0.0"

const tickInterval = 200 * time.Millisecond

// OSCSender is the outbound half of an OSC connection.
type OSCSender interface {
	Send(packet osc.Packet) error
}

// Bridge owns all mutable state: the LED pool, the loop registry, the
// looper session and the registered display client. Inbound MIDI and OSC
// callbacks are funneled through a single queue drained by the Run loop,
// so only that goroutine ever touches the fields below.
type Bridge struct {
	cfg config.Config
	log *zap.Logger

	queue chan func()
	group *errgroup.Group

	// pedal interpreter
	mode          int // 0, or modeOffset when the Record pedal shifted banks
	downPitch     [loopPedals]uint8
	downHeld      [loopPedals]bool
	midiOut       func(gomidi.Message) error
	midiOutWarned bool
	pendingPanic  bool

	// MIDI connectivity, reconciled every tick
	inOpen          bool
	inPortName      string
	stopIn          func()
	virtOpen        bool
	virtUnsupported bool

	// looper session
	looper     OSCSender
	sendPort   int // -1 until the send client is up
	listenPort int // -1 until the listener is up
	listenerUp bool
	hostURL    string
	version    string
	engineID   int32
	loopCount  int
	selected   int
	heartbeat  int
	loops      []Loop
	leds       [numLEDs]LED

	// registered display client
	remote     OSCSender
	remoteHost string
	remotePort int

	// transport hooks, replaced in tests
	newClient      func(host string, port int) OSCSender
	openMIDIIn     func(name string) (stop func(), portName string, err error)
	inPresent      func(name string) bool
	openVirtualOut func(name string) (send func(gomidi.Message) error, err error)
}

// New creates a Bridge. Nothing is connected until Run's first tick.
func New(cfg config.Config, log *zap.Logger) *Bridge {
	b := &Bridge{
		cfg:        cfg,
		log:        log,
		queue:      make(chan func(), 64),
		sendPort:   -1,
		listenPort: -1,
		selected:   -1,
		remotePort: -1,
		heartbeat:  initialHeartbeat,
	}
	for i := range b.leds {
		b.leds[i].Index = i
	}
	b.newClient = func(host string, port int) OSCSender {
		return osc.NewClient(host, port)
	}
	b.openMIDIIn = b.openInput
	b.inPresent = midi.InPortPresent
	b.openVirtualOut = openVirtualSend
	return b
}

// RequestPanic schedules an all-notes-off flood for when the virtual
// output comes up. Call before Run.
func (b *Bridge) RequestPanic() {
	b.pendingPanic = true
}

// Run drives the bridge until ctx is cancelled. The supervisor tick and
// every inbound event execute on this goroutine.
func (b *Bridge) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	b.group = g
	g.Go(func() error {
		return b.loop(ctx)
	})
	return g.Wait()
}

func (b *Bridge) loop(ctx context.Context) error {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	b.tick()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			b.tick()
		case fn := <-b.queue:
			fn()
		}
	}
}

// enqueue hands an event to the Run loop. Transport callbacks block here
// until earlier events are fully processed, which keeps handlers atomic
// with respect to each other.
func (b *Bridge) enqueue(fn func()) {
	b.queue <- fn
}

func (b *Bridge) onMIDIMessage(msg gomidi.Message) {
	b.enqueue(func() {
		b.handleMIDI(msg)
	})
}

func (b *Bridge) openInput(name string) (func(), string, error) {
	in, portName, err := midi.OpenIn(name)
	if err != nil {
		return nil, "", err
	}
	stop, err := gomidi.ListenTo(in, func(msg gomidi.Message, _ int32) {
		b.onMIDIMessage(msg)
	})
	if err != nil {
		return nil, "", errors.Wrapf(err, "listening to MIDI input %q", portName)
	}
	return stop, portName, nil
}

func openVirtualSend(name string) (func(gomidi.Message) error, error) {
	out, err := midi.OpenVirtualOut(name)
	if err != nil {
		return nil, err
	}
	send, err := gomidi.SendTo(out)
	if err != nil {
		return nil, errors.Wrapf(err, "opening virtual MIDI output %q", name)
	}
	return send, nil
}

// channel returns the zero-based MIDI channel used for outbound messages.
func (b *Bridge) channel() uint8 {
	if b.cfg.Channel > 0 {
		return uint8(b.cfg.Channel - 1)
	}
	return 0
}

func (b *Bridge) sendMIDI(msg gomidi.Message) {
	if b.midiOut == nil {
		if !b.midiOutWarned {
			b.log.Warn("no MIDI output port available, dropping messages")
			b.midiOutWarned = true
		}
		return
	}
	if err := b.midiOut(msg); err != nil {
		b.log.Warn("MIDI send failed", zap.Error(err))
	}
}
