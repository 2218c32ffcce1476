package bridge

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/atinm/loop4r-read/midi"
)

// tick reconciles transport state once per interval: pedal input, virtual
// output, then the looper session and its heartbeat countdown.
func (b *Bridge) tick() {
	b.reconcileInput()
	b.reconcileVirtualOut()
	b.reconcileOSC()
}

func (b *Bridge) reconcileInput() {
	if b.inOpen && !b.inPresent(b.inPortName) {
		b.log.Warn("MIDI input port disconnected, waiting",
			zap.String("port", b.inPortName))
		if b.stopIn != nil {
			b.stopIn()
		}
		b.inOpen = false
		b.inPortName = ""
		b.stopIn = nil
		return
	}
	if b.inOpen || b.cfg.MIDIIn == "" {
		return
	}

	stop, portName, err := b.openMIDIIn(b.cfg.MIDIIn)
	if err != nil {
		b.log.Debug("MIDI input not available", zap.String("want", b.cfg.MIDIIn), zap.Error(err))
		return
	}
	b.inOpen = true
	b.inPortName = portName
	b.stopIn = stop
	b.log.Info("connected to MIDI input", zap.String("port", portName))
}

func (b *Bridge) reconcileVirtualOut() {
	if b.virtOpen || b.virtUnsupported {
		return
	}

	send, err := b.openVirtualOut(b.cfg.VirtualOut)
	if err != nil {
		if errors.Is(err, midi.ErrVirtualUnsupported) {
			b.log.Warn("virtual MIDI output ports are not supported on this platform")
			b.virtUnsupported = true
			return
		}
		b.log.Warn("couldn't create virtual MIDI output port",
			zap.String("name", b.cfg.VirtualOut), zap.Error(err))
		return
	}
	b.virtOpen = true
	b.midiOut = send
	b.log.Info("created virtual MIDI output", zap.String("port", b.cfg.VirtualOut))

	if b.pendingPanic {
		b.sendPanic()
		b.pendingPanic = false
	}
}

func (b *Bridge) reconcileOSC() {
	if !b.oscConnected() {
		if b.connectOSC() {
			b.heartbeat = initialHeartbeat
			b.log.Info("connected to looper OSC ports",
				zap.Int("send", b.sendPort), zap.Int("listen", b.listenPort))
		}
		return
	}

	switch {
	case b.heartbeat == 0:
		b.sendPing(replyHeartbeat)
		b.heartbeat--
	case b.heartbeat <= heartbeatLost:
		b.log.Warn("lost looper heartbeat, resetting session")
		b.sendPort, b.listenPort = -1, -1
		b.looper = nil
		if b.connectOSC() {
			b.heartbeat = initialHeartbeat
			b.log.Info("reconnected to looper OSC ports",
				zap.Int("send", b.sendPort), zap.Int("listen", b.listenPort))
		}
	default:
		b.heartbeat--
	}
}

// connectOSC brings up the send client and the listener, then opens the
// handshake. Either half may stay down; it is retried next tick.
func (b *Bridge) connectOSC() bool {
	if b.sendPort < 0 {
		b.looper = b.newClient("127.0.0.1", b.cfg.OSCSendPort)
		b.sendPort = b.cfg.OSCSendPort
	}
	if b.listenPort < 0 && b.startListener() {
		b.listenPort = b.cfg.OSCListenPort
	}
	if !b.oscConnected() {
		return false
	}
	b.sendPing(replyPingAck)
	return true
}
