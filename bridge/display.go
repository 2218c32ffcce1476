package bridge

import (
	"io"
	"os"

	"github.com/hypebeast/go-osc/osc"
	"go.uber.org/zap"
)

// The display-client protocol serves third-party LED mirrors: one-shot
// queries answered over a short-lived connection, plus one persistent
// registration that receives every LED and selected-loop broadcast.

func (b *Bridge) handleDisplayPing(m *osc.Message) {
	host, port, addr, ok := replyArgs(m, true)
	if !ok {
		b.log.Warn("malformed display ping, dropping")
		return
	}
	msg := osc.NewMessage(addr)
	msg.Append(b.replyURL())
	msg.Append(Version)
	msg.Append(int32(numLEDs))
	msg.Append(int32(os.Getpid()))
	b.sendTransient(host, port, msg)
}

func (b *Bridge) handleDisplayLeds(m *osc.Message) {
	host, port, addr, ok := replyArgs(m, true)
	if !ok {
		b.log.Warn("malformed leds request, dropping")
		return
	}
	client := b.newClient(host, port)
	for _, led := range b.leds {
		if err := client.Send(ledMessage(addr, led)); err != nil {
			b.log.Warn("sending LED state to display client",
				zap.String("host", host), zap.Int("port", port), zap.Error(err))
			return
		}
	}
}

func (b *Bridge) handleDisplayQuery(m *osc.Message) {
	host, port, _, ok := replyArgs(m, true)
	if !ok {
		b.log.Warn("malformed display request, dropping")
		return
	}
	msg := osc.NewMessage("/display")
	msg.Append(int32(b.selected))
	b.sendTransient(host, port, msg)
}

func (b *Bridge) handleDisplayRegister(m *osc.Message) {
	host, port, _, ok := replyArgs(m, false)
	if !ok {
		b.log.Warn("malformed display registration, dropping")
		return
	}
	if b.remote != nil && host == b.remoteHost && port == b.remotePort {
		// same client re-registering, nothing to rewire
		return
	}
	if b.remote != nil {
		b.disconnectRemote()
	}
	b.remote = b.newClient(host, port)
	b.remoteHost, b.remotePort = host, port
	b.log.Info("display client registered",
		zap.String("host", host), zap.Int("port", port))
}

func (b *Bridge) handleDisplayUnregister(m *osc.Message) {
	if _, _, _, ok := replyArgs(m, false); !ok {
		b.log.Warn("malformed display unregistration, dropping")
		return
	}
	if b.remote == nil {
		return
	}
	b.log.Info("display client unregistered",
		zap.String("host", b.remoteHost), zap.Int("port", b.remotePort))
	b.disconnectRemote()
}

func (b *Bridge) disconnectRemote() {
	if closer, ok := b.remote.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			b.log.Warn("closing display client connection",
				zap.String("host", b.remoteHost), zap.Error(err))
		}
	}
	b.remote = nil
	b.remoteHost = ""
	b.remotePort = -1
}

func (b *Bridge) sendTransient(host string, port int, msg *osc.Message) {
	client := b.newClient(host, port)
	if err := client.Send(msg); err != nil {
		b.log.Warn("sending to display client",
			zap.String("host", host), zap.Int("port", port),
			zap.String("address", msg.Address), zap.Error(err))
	}
}

func ledMessage(addr string, led LED) *osc.Message {
	msg := osc.NewMessage(addr)
	msg.Append(int32(led.Index))
	on := int32(0)
	if led.On {
		on = 1
	}
	msg.Append(on)
	msg.Append(int32(led.Timer))
	msg.Append(int32(led.State))
	return msg
}

// broadcastLED mirrors an LED mutation to the registered display client.
func (b *Bridge) broadcastLED(led LED) {
	if b.remote == nil {
		return
	}
	if err := b.remote.Send(ledMessage("/led", led)); err != nil {
		b.log.Warn("broadcasting LED state", zap.Error(err))
	}
}

func (b *Bridge) broadcastSelected() {
	if b.remote == nil {
		return
	}
	msg := osc.NewMessage("/display")
	msg.Append(int32(b.selected))
	if err := b.remote.Send(msg); err != nil {
		b.log.Warn("broadcasting selected loop", zap.Error(err))
	}
}
