package bridge

import (
	"testing"

	gomidi "gitlab.com/gomidi/midi/v2"
)

func noteOns(msgs []gomidi.Message) [][2]uint8 {
	var out [][2]uint8
	for _, msg := range msgs {
		var ch, key, vel uint8
		if msg.GetNoteOn(&ch, &key, &vel) {
			out = append(out, [2]uint8{key, vel})
		}
	}
	return out
}

func noteOffs(msgs []gomidi.Message) []uint8 {
	var out []uint8
	for _, msg := range msgs {
		var ch, key, vel uint8
		if msg.GetNoteOff(&ch, &key, &vel) {
			out = append(out, key)
		}
	}
	return out
}

func TestLoopPedalDownUp(t *testing.T) {
	for pedal := 0; pedal < loopPedals; pedal++ {
		b, m, _ := newTestBridge(t)

		b.handleMIDI(gomidi.ControlChange(0, ccPedalDown, uint8(pedal+1)))
		b.handleMIDI(gomidi.ControlChange(0, ccPedalUp, uint8(pedal+1)))

		want := uint8(64 + pedal)
		ons := noteOns(m.msgs)
		offs := noteOffs(m.msgs)
		if len(ons) != 1 || ons[0][0] != want || ons[0][1] != 127 {
			t.Fatalf("pedal %d: note-ons = %v, want one at %d vel 127", pedal, ons, want)
		}
		if len(offs) != 1 || offs[0] != want {
			t.Fatalf("pedal %d: note-offs = %v, want one at %d", pedal, offs, want)
		}
	}
}

func TestPedalUpUsesPitchCapturedAtDown(t *testing.T) {
	b, m, _ := newTestBridge(t)

	// pedal 0 goes down in the unshifted bank
	b.handleMIDI(gomidi.ControlChange(0, ccPedalDown, 1))
	// the Record pedal shifts the bank while pedal 0 is still held
	b.handleMIDI(gomidi.ControlChange(0, ccPedalDown, 5))
	m.reset()
	b.handleMIDI(gomidi.ControlChange(0, ccPedalUp, 1))

	offs := noteOffs(m.msgs)
	if len(offs) != 1 || offs[0] != 64 {
		t.Fatalf("note-offs = %v, want the captured pitch 64, not %d", offs, 64+modeOffset)
	}
}

func TestLoopPedalUsesShiftedBank(t *testing.T) {
	b, m, _ := newTestBridge(t)

	b.handleMIDI(gomidi.ControlChange(0, ccPedalDown, 5)) // shift
	m.reset()
	b.handleMIDI(gomidi.ControlChange(0, ccPedalDown, 3))

	ons := noteOns(m.msgs)
	want := uint8(64 + modeOffset + 2)
	if len(ons) != 1 || ons[0][0] != want {
		t.Fatalf("note-ons = %v, want one at %d", ons, want)
	}
}

func TestRecordPedalTogglesMode(t *testing.T) {
	b, m, _ := newTestBridge(t)

	b.handleMIDI(gomidi.ControlChange(0, ccPedalDown, 5))
	if b.mode != modeOffset {
		t.Fatalf("mode after first press = %d, want %d", b.mode, modeOffset)
	}
	if !m.hasCC(ccLEDOn, ledNumber(PedalRecord)) {
		t.Fatal("Record LED was not turned on")
	}

	m.reset()
	b.handleMIDI(gomidi.ControlChange(0, ccPedalDown, 5))
	if b.mode != 0 {
		t.Fatalf("mode after second press = %d, want 0", b.mode)
	}
	if !m.hasCC(ccLEDOff, ledNumber(PedalRecord)) {
		t.Fatal("Record LED was not turned off")
	}

	// Record up is a no-op
	m.reset()
	b.handleMIDI(gomidi.ControlChange(0, ccPedalUp, 5))
	if len(m.msgs) != 0 {
		t.Fatalf("Record pedal up sent %d messages, want none", len(m.msgs))
	}
}

func TestRecordToggleRefreshesLoops(t *testing.T) {
	b, m, _ := newTestBridge(t)
	b.loops = []Loop{{Index: 0, State: StatePlaying}}

	m.reset()
	b.handleMIDI(gomidi.ControlChange(0, ccPedalDown, 5))

	// Playing renders as Blink in the shifted bank
	if b.leds[0].State != Blink || b.leds[0].Timer != TimerBlink {
		t.Fatalf("loop 0 LED = %+v, want Blink/slow after mode shift", b.leds[0])
	}
}

func TestUndoPedal(t *testing.T) {
	b, m, _ := newTestBridge(t)

	b.handleMIDI(gomidi.ControlChange(0, ccPedalDown, 0))
	if !m.hasCC(ccLEDOn, ledNumber(PedalUndo)) {
		t.Fatal("Undo LED was not turned on")
	}
	ons := noteOns(m.msgs)
	if len(ons) != 1 || ons[0][0] != 64+PedalUndo {
		t.Fatalf("note-ons = %v, want one at %d", ons, 64+PedalUndo)
	}

	m.reset()
	b.handleMIDI(gomidi.ControlChange(0, ccPedalUp, 0))
	if !m.hasCC(ccLEDOff, ledNumber(PedalUndo)) {
		t.Fatal("Undo LED was not turned off")
	}
	offs := noteOffs(m.msgs)
	if len(offs) != 1 || offs[0] != 64+PedalUndo {
		t.Fatalf("note-offs = %v, want one at %d", offs, 64+PedalUndo)
	}
}

func TestActionAndNavigationPedals(t *testing.T) {
	for _, pedal := range []int{PedalMultiply, PedalInsert, PedalReplace, PedalSubstitute, PedalUp, PedalDown} {
		b, m, _ := newTestBridge(t)

		value := uint8(pedal + 1)
		if pedal >= PedalUp {
			value = uint8(pedal)
		}
		b.handleMIDI(gomidi.ControlChange(0, ccPedalDown, value))
		b.handleMIDI(gomidi.ControlChange(0, ccPedalUp, value))

		want := uint8(64 + pedal)
		ons := noteOns(m.msgs)
		offs := noteOffs(m.msgs)
		if len(ons) != 1 || ons[0][0] != want {
			t.Fatalf("pedal %d: note-ons = %v, want one at %d", pedal, ons, want)
		}
		if len(offs) != 1 || offs[0] != want {
			t.Fatalf("pedal %d: note-offs = %v, want one at %d", pedal, offs, want)
		}
		if ccPairs := m.ccs(); len(ccPairs) != 0 {
			t.Fatalf("pedal %d: unexpected LED traffic %v", pedal, ccPairs)
		}
	}
}

func TestNonPedalControllerPassesThrough(t *testing.T) {
	b, m, _ := newTestBridge(t)

	b.handleMIDI(gomidi.ControlChange(0, 20, 99))

	if !m.hasCC(20, 99) {
		t.Fatalf("messages = %v, want CC 20/99 forwarded", m.ccs())
	}
}

func TestChannelFilter(t *testing.T) {
	b, m, _ := newTestBridge(t)
	b.cfg.Channel = 2

	b.handleMIDI(gomidi.ControlChange(0, ccPedalDown, 1)) // wrong channel
	if len(m.msgs) != 0 {
		t.Fatalf("event on filtered channel produced %d messages", len(m.msgs))
	}

	b.handleMIDI(gomidi.ControlChange(1, ccPedalDown, 1))
	if len(noteOns(m.msgs)) != 1 {
		t.Fatal("event on configured channel was not processed")
	}
}

func TestNonControllerMessagesIgnored(t *testing.T) {
	b, m, _ := newTestBridge(t)

	b.handleMIDI(gomidi.NoteOn(0, 60, 100))

	if len(m.msgs) != 0 {
		t.Fatalf("note message produced %d outbound messages", len(m.msgs))
	}
}

func TestPanicFloodsAllChannels(t *testing.T) {
	b, m, _ := newTestBridge(t)

	b.sendPanic()

	// 3 controller resets plus 128 note-offs per channel
	if want := 16 * 131; len(m.msgs) != want {
		t.Fatalf("panic sent %d messages, want %d", len(m.msgs), want)
	}
}
