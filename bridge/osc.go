package bridge

import (
	"fmt"
	"net"

	"github.com/hypebeast/go-osc/osc"
	"go.uber.org/zap"
)

// Inbound addresses served by the display-client protocol.
const (
	addrDisplayPing       = "/loop4r/ping"
	addrDisplayLeds       = "/loop4r/leds"
	addrDisplayQuery      = "/loop4r/display"
	addrDisplayRegister   = "/loop4r/register_auto_update"
	addrDisplayUnregister = "/loop4r/unregister_auto_update"
)

// dispatcher wires every inbound OSC address into the serialized event
// queue, so handlers never run concurrently with each other or the tick.
func (b *Bridge) dispatcher() *osc.StandardDispatcher {
	d := osc.NewStandardDispatcher()
	handlers := map[string]func(*osc.Message){
		"/pingack":            b.handlePingAck,
		"/heartbeat":          b.handleHeartbeat,
		"/ctrl":               b.handleCtrl,
		addrDisplayPing:       b.handleDisplayPing,
		addrDisplayLeds:       b.handleDisplayLeds,
		addrDisplayQuery:      b.handleDisplayQuery,
		addrDisplayRegister:   b.handleDisplayRegister,
		addrDisplayUnregister: b.handleDisplayUnregister,
	}
	for addr, handler := range handlers {
		handler := handler
		err := d.AddMsgHandler(addr, func(m *osc.Message) {
			b.enqueue(func() {
				handler(m)
			})
		})
		if err != nil {
			b.log.Error("registering OSC handler", zap.String("address", addr), zap.Error(err))
		}
	}
	return d
}

// startListener binds the OSC listen port and serves it on a background
// goroutine. Bind failures are retried on a later tick.
func (b *Bridge) startListener() bool {
	if b.listenerUp {
		return true
	}
	conn, err := net.ListenPacket("udp", fmt.Sprintf("127.0.0.1:%d", b.cfg.OSCListenPort))
	if err != nil {
		b.log.Warn("couldn't bind OSC listen port",
			zap.Int("port", b.cfg.OSCListenPort), zap.Error(err))
		return false
	}
	server := &osc.Server{
		Addr:       conn.LocalAddr().String(),
		Dispatcher: b.dispatcher(),
	}
	b.group.Go(func() error {
		if err := server.Serve(conn); err != nil {
			b.log.Warn("OSC server stopped", zap.Error(err))
		}
		return nil
	})
	b.listenerUp = true
	return true
}

func oscStr(m *osc.Message, i int) (string, bool) {
	if i >= len(m.Arguments) {
		return "", false
	}
	s, ok := m.Arguments[i].(string)
	return s, ok
}

func oscInt32(m *osc.Message, i int) (int32, bool) {
	if i >= len(m.Arguments) {
		return 0, false
	}
	n, ok := m.Arguments[i].(int32)
	return n, ok
}

func oscFloat32(m *osc.Message, i int) (float32, bool) {
	if i >= len(m.Arguments) {
		return 0, false
	}
	f, ok := m.Arguments[i].(float32)
	return f, ok
}

// sessionArgs unpacks the (hostURL, version, loopCount, engineID) shape
// shared by /pingack and /heartbeat.
func sessionArgs(m *osc.Message) (host, version string, count, id int32, ok bool) {
	host, hok := oscStr(m, 0)
	version, vok := oscStr(m, 1)
	count, cok := oscInt32(m, 2)
	id, iok := oscInt32(m, 3)
	return host, version, count, id, hok && vok && cok && iok
}

// replyArgs unpacks the (replyHost, replyPort, replyAddress) triple carried
// by display-client requests. Register and unregister requests only carry
// the host and port.
func replyArgs(m *osc.Message, wantAddr bool) (host string, port int, addr string, ok bool) {
	host, hok := oscStr(m, 0)
	p, pok := oscInt32(m, 1)
	if !hok || !pok {
		return "", 0, "", false
	}
	if wantAddr {
		addr, aok := oscStr(m, 2)
		return host, int(p), addr, aok
	}
	return host, int(p), "", true
}
