package bridge

import (
	"testing"

	"github.com/hypebeast/go-osc/osc"
	gomidi "gitlab.com/gomidi/midi/v2"
	"go.uber.org/zap"

	"github.com/atinm/loop4r-read/config"
)

type fakeMIDI struct {
	msgs []gomidi.Message
}

func (f *fakeMIDI) send(msg gomidi.Message) error {
	f.msgs = append(f.msgs, msg)
	return nil
}

func (f *fakeMIDI) reset() {
	f.msgs = nil
}

// ccs returns the sent control-change messages as (controller, value) pairs.
func (f *fakeMIDI) ccs() [][2]uint8 {
	var out [][2]uint8
	for _, msg := range f.msgs {
		var ch, cc, val uint8
		if msg.GetControlChange(&ch, &cc, &val) {
			out = append(out, [2]uint8{cc, val})
		}
	}
	return out
}

func (f *fakeMIDI) hasCC(cc, val uint8) bool {
	for _, pair := range f.ccs() {
		if pair[0] == cc && pair[1] == val {
			return true
		}
	}
	return false
}

type fakeClient struct {
	host   string
	port   int
	sent   []*osc.Message
	closed bool
}

func (f *fakeClient) Send(p osc.Packet) error {
	if m, ok := p.(*osc.Message); ok {
		f.sent = append(f.sent, m)
	}
	return nil
}

func (f *fakeClient) Close() error {
	f.closed = true
	return nil
}

func (f *fakeClient) addresses() []string {
	out := make([]string, 0, len(f.sent))
	for _, m := range f.sent {
		out = append(out, m.Address)
	}
	return out
}

func (f *fakeClient) countAddress(addr string) int {
	n := 0
	for _, a := range f.addresses() {
		if a == addr {
			n++
		}
	}
	return n
}

// newTestBridge returns a bridge with every transport replaced by fakes
// and the looper session marked established.
func newTestBridge(t *testing.T) (*Bridge, *fakeMIDI, *fakeClient) {
	t.Helper()
	cfg := config.Config{
		VirtualOut:    config.DefaultVirtualOut,
		BaseNote:      64,
		OSCSendPort:   9951,
		OSCListenPort: 9000,
	}
	b := New(cfg, zap.NewNop())
	m := &fakeMIDI{}
	looper := &fakeClient{host: "127.0.0.1", port: cfg.OSCSendPort}

	b.midiOut = m.send
	b.virtOpen = true
	b.looper = looper
	b.sendPort = cfg.OSCSendPort
	b.listenPort = cfg.OSCListenPort
	b.listenerUp = true
	b.inPresent = func(string) bool { return true }
	b.openVirtualOut = func(string) (func(gomidi.Message) error, error) {
		return m.send, nil
	}
	b.newClient = func(host string, port int) OSCSender {
		return &fakeClient{host: host, port: port}
	}
	return b, m, looper
}

func ctrlMsg(index int32, key string, val float32) *osc.Message {
	m := osc.NewMessage("/ctrl")
	m.Append(index)
	m.Append(key)
	m.Append(val)
	return m
}

func sessionMsg(addr, host, version string, loops, engine int32) *osc.Message {
	m := osc.NewMessage(addr)
	m.Append(host)
	m.Append(version)
	m.Append(loops)
	m.Append(engine)
	return m
}

func replyMsg(addr, host string, port int32, replyAddr string) *osc.Message {
	m := osc.NewMessage(addr)
	m.Append(host)
	m.Append(port)
	m.Append(replyAddr)
	return m
}
