package bridge

import (
	"fmt"

	"github.com/hypebeast/go-osc/osc"
	"go.uber.org/zap"
)

// Heartbeat countdown, in ticks. The counter starts at initialHeartbeat
// after a handshake, triggers a proactive /ping at zero and declares the
// session lost at heartbeatLost.
const (
	initialHeartbeat = 5
	heartbeatLost    = -5
)

// Reply addresses embedded in outbound /ping requests.
const (
	replyPingAck   = "/pingack"
	replyHeartbeat = "/heartbeat"
)

func (b *Bridge) oscConnected() bool {
	return b.sendPort > 0 && b.listenPort > 0
}

// replyURL is the OSC URL the looper engine sends replies to.
func (b *Bridge) replyURL() string {
	return fmt.Sprintf("osc.udp://localhost:%d/", b.cfg.OSCListenPort)
}

func (b *Bridge) sendToLooper(msg *osc.Message) {
	if b.looper == nil {
		return
	}
	if err := b.looper.Send(msg); err != nil {
		b.log.Warn("OSC send failed", zap.String("address", msg.Address), zap.Error(err))
	}
}

func (b *Bridge) sendPing(replyAddr string) {
	msg := osc.NewMessage("/ping")
	msg.Append(b.replyURL())
	msg.Append(replyAddr)
	b.sendToLooper(msg)
}

// requestState asks the engine for a loop's current state, delivered to
// /ctrl like an auto update.
func (b *Bridge) requestState(index int) {
	msg := osc.NewMessage(fmt.Sprintf("/sl/%d/get", index))
	msg.Append("state")
	msg.Append(b.replyURL())
	msg.Append("/ctrl")
	b.sendToLooper(msg)
}

func (b *Bridge) registerAutoUpdate(index int, unregister bool) {
	verb := "register_auto_update"
	if unregister {
		verb = "unregister_auto_update"
	}
	msg := osc.NewMessage(fmt.Sprintf("/sl/%d/%s", index, verb))
	msg.Append("state")
	msg.Append(int32(100))
	msg.Append(b.replyURL())
	msg.Append("/ctrl")
	b.sendToLooper(msg)
}

func (b *Bridge) registerGlobalUpdates(unregister bool) {
	addr := "/register_update"
	if unregister {
		addr = "/unregister_update"
	}
	msg := osc.NewMessage(addr)
	msg.Append("selected_loop_num")
	msg.Append(b.replyURL())
	msg.Append("/ctrl")
	b.sendToLooper(msg)
}

// rebuildLoops replaces the loop registry with count fresh loops, each
// registered for auto state updates and queried once.
func (b *Bridge) rebuildLoops(count int) {
	b.loops = b.loops[:0]
	b.loopCount = count
	for i := 0; i < count; i++ {
		b.loops = append(b.loops, Loop{Index: i, State: StateOff})
		b.registerAutoUpdate(i, false)
		b.requestState(i)
	}
	b.registerGlobalUpdates(false)
}

// extendLoops grows the registry to count loops, touching only the new
// indices.
func (b *Bridge) extendLoops(count int) {
	for i := b.loopCount; i < count; i++ {
		b.registerAutoUpdate(i, false)
		b.requestState(i)
		b.loops = append(b.loops, Loop{Index: i, State: StateOff})
		b.applyLoopState(&b.loops[i], StateOff)
	}
	b.loopCount = count
}

func (b *Bridge) handlePingAck(m *osc.Message) {
	host, version, count, id, ok := sessionArgs(m)
	if !ok {
		b.log.Warn("malformed /pingack, dropping", zap.Int("args", len(m.Arguments)))
		return
	}
	b.hostURL, b.version = host, version
	restarted := id != b.engineID && len(b.loops) > 0
	b.engineID = id

	if count > 0 && (len(b.loops) == 0 || restarted) {
		b.rebuildLoops(int(count))
		if restarted {
			b.refreshLoops()
		}
		b.log.Info("looper handshake complete",
			zap.String("host", host), zap.String("version", version),
			zap.Int32("loops", count), zap.Int32("engine", id))
	}
	b.heartbeat = initialHeartbeat
}

func (b *Bridge) handleHeartbeat(m *osc.Message) {
	host, version, count, id, ok := sessionArgs(m)
	if !ok {
		b.log.Warn("malformed /heartbeat, dropping", zap.Int("args", len(m.Arguments)))
		return
	}
	b.hostURL, b.version = host, version

	switch {
	case id != b.engineID:
		// the engine restarted under us, reinitialize
		b.engineID = id
		if count > 0 {
			b.log.Info("looper engine changed, rebuilding loops",
				zap.Int32("engine", id), zap.Int32("loops", count))
			b.rebuildLoops(int(count))
			b.refreshLoops()
		}
	case int(count) > b.loopCount:
		b.log.Info("looper added loops",
			zap.Int("from", b.loopCount), zap.Int32("to", count))
		b.extendLoops(int(count))
	case int(count) < b.loopCount:
		// not observed in practice; keep what we have rather than guess
		b.log.Warn("looper reports fewer loops, keeping existing",
			zap.Int("have", b.loopCount), zap.Int32("reported", count))
	}
	b.heartbeat = initialHeartbeat
}

func (b *Bridge) handleCtrl(m *osc.Message) {
	index, ok := oscInt32(m, 0)
	if !ok {
		b.log.Warn("malformed /ctrl, dropping", zap.Int("args", len(m.Arguments)))
		return
	}

	if index == -2 {
		key, kok := oscStr(m, 1)
		val, vok := oscFloat32(m, 2)
		if !kok || !vok || key != "selected_loop_num" {
			return
		}
		b.selected = int(val)
		b.showSelected()
		b.heartbeat = initialHeartbeat
		return
	}
	if index < 0 {
		return
	}

	key, kok := oscStr(m, 1)
	val, vok := oscFloat32(m, 2)
	if !kok || !vok {
		b.log.Warn("malformed /ctrl, dropping", zap.Int32("loop", index))
		return
	}
	if key == "state" {
		if int(index) >= len(b.loops) {
			b.log.Warn("state update for unknown loop", zap.Int32("loop", index))
			return
		}
		b.applyLoopState(&b.loops[index], LoopState(int(val)))
	}
	b.heartbeat = initialHeartbeat
}
