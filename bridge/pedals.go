package bridge

import (
	gomidi "gitlab.com/gomidi/midi/v2"
	"go.uber.org/zap"
)

// Control-change numbers on the pedal controller wire.
const (
	ccPedalDown   = 104
	ccPedalUp     = 105
	ccLEDOn       = 106
	ccLEDOff      = 107
	ccDisplayTens = 113
	ccDisplayOnes = 114
)

// Pedal assignments. Pedals 0-3 select loops 1-4.
const (
	PedalRecord     = 4
	PedalMultiply   = 5
	PedalInsert     = 6
	PedalReplace    = 7
	PedalSubstitute = 8
	PedalUndo       = 9
	PedalUp         = 10
	PedalDown       = 11
)

const loopPedals = 4

// modeOffset shifts the loop pedals into the alternate note bank while the
// Record pedal has toggled it on.
const modeOffset = 20

// pedalIndex decodes the controller value of a CC 104/105 event into a
// logical pedal index.
func pedalIndex(value uint8) int {
	switch {
	case value >= 1 && value <= 9:
		return int(value) - 1
	case value == 0:
		return PedalUndo
	default:
		return int(value)
	}
}

func (b *Bridge) handleMIDI(msg gomidi.Message) {
	var ch, cc, val uint8
	if !msg.GetControlChange(&ch, &cc, &val) {
		b.log.Debug("ignoring MIDI message", zap.String("message", msg.String()))
		return
	}
	if b.cfg.Channel > 0 && int(ch) != b.cfg.Channel-1 {
		return
	}

	switch cc {
	case ccPedalDown:
		b.pedalDown(pedalIndex(val))
	case ccPedalUp:
		b.pedalUp(pedalIndex(val))
	default:
		// anything that isn't a pedal event passes through untouched
		b.sendMIDI(msg)
	}
}

func (b *Bridge) pedalDown(pedal int) {
	switch {
	case pedal >= 0 && pedal < loopPedals:
		pitch := uint8(b.cfg.BaseNote + b.mode + pedal)
		b.downPitch[pedal] = pitch
		b.downHeld[pedal] = true
		b.sendMIDI(gomidi.NoteOn(b.channel(), pitch, 127))
	case pedal == PedalRecord:
		if b.mode == 0 {
			b.mode = modeOffset
			b.ledOn(PedalRecord)
		} else {
			b.mode = 0
			b.ledOff(PedalRecord)
		}
		b.refreshLoops()
	case pedal == PedalUndo:
		b.ledOn(PedalUndo)
		b.sendMIDI(gomidi.NoteOn(b.channel(), uint8(b.cfg.BaseNote+pedal), 127))
	default:
		b.sendMIDI(gomidi.NoteOn(b.channel(), uint8(b.cfg.BaseNote+pedal), 127))
	}
}

func (b *Bridge) pedalUp(pedal int) {
	switch {
	case pedal >= 0 && pedal < loopPedals:
		// release the pitch captured at pedal-down so a mode toggle in
		// between cannot leave the note hanging
		pitch := uint8(b.cfg.BaseNote + b.mode + pedal)
		if b.downHeld[pedal] {
			pitch = b.downPitch[pedal]
			b.downHeld[pedal] = false
		}
		b.sendMIDI(gomidi.NoteOff(b.channel(), pitch))
	case pedal == PedalRecord:
		// bank toggle happens on the down edge only
	case pedal == PedalUndo:
		b.ledOff(PedalUndo)
		b.sendMIDI(gomidi.NoteOff(b.channel(), uint8(b.cfg.BaseNote+pedal)))
		b.refreshLoops()
	default:
		b.sendMIDI(gomidi.NoteOff(b.channel(), uint8(b.cfg.BaseNote+pedal)))
	}
}

// sendPanic floods every channel with controller resets and note-offs.
func (b *Bridge) sendPanic() {
	for ch := uint8(0); ch < 16; ch++ {
		b.sendMIDI(gomidi.ControlChange(ch, 64, 0))
		b.sendMIDI(gomidi.ControlChange(ch, 120, 0))
		b.sendMIDI(gomidi.ControlChange(ch, 123, 0))
		for note := 0; note < 128; note++ {
			b.sendMIDI(gomidi.NoteOff(ch, uint8(note)))
		}
	}
}
