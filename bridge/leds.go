package bridge

import gomidi "gitlab.com/gomidi/midi/v2"

// numLEDs is the size of the controller's LED pool. Loops with higher
// indices are tracked but have no visual representation.
const numLEDs = 10

// Blink timer values carried on the /led wire.
const (
	TimerOff       = 0
	TimerFastBlink = 1
	TimerBlink     = 3
)

// VisualState is an LED's blink pattern as carried on the /led wire.
type VisualState int

const (
	Dark VisualState = iota
	Light
	Blink
	FastBlink
)

// LED is one light in the controller's fixed pool of ten. The pool is
// created once at startup and only ever mutated.
type LED struct {
	Index int
	On    bool
	Timer int
	State VisualState
}

// ledVisual is one row of the loop-state to LED mapping.
type ledVisual struct {
	state VisualState
	timer int
	on    bool
}

var ledVisuals = map[LoopState]ledVisual{
	StateUnknown:     {Dark, TimerOff, false},
	StateOff:         {Dark, TimerOff, false},
	StateWaitStart:   {FastBlink, TimerFastBlink, true},
	StateWaitStop:    {FastBlink, TimerFastBlink, true},
	StateRecording:   {Light, TimerOff, true},
	StateOverdubbing: {Light, TimerOff, true},
	StateDelay:       {Light, TimerOff, true},
	StateScratching:  {Light, TimerOff, true},
	StateOneShot:     {Light, TimerOff, true},
	StateInserting:   {FastBlink, TimerFastBlink, true},
	StateReplacing:   {FastBlink, TimerFastBlink, true},
	StateSubstitute:  {FastBlink, TimerFastBlink, true},
	StateMultiplying: {FastBlink, TimerFastBlink, true},
	StatePlaying:     {Light, TimerOff, true}, // Blink when the mode bank is shifted
	StateMuted:       {Blink, TimerBlink, true},
	StatePaused:      {Blink, TimerBlink, true},
}

// actionLEDs maps loop states to the shared pedal LED lit while any loop
// is in that state.
var actionLEDs = map[LoopState]int{
	StateInserting:   PedalInsert,
	StateReplacing:   PedalReplace,
	StateSubstitute:  PedalSubstitute,
	StateMultiplying: PedalMultiply,
}

// applyLoopState maps newState onto the loop's LED, lights or clears the
// shared action LEDs, and records the state on the loop.
func (b *Bridge) applyLoopState(loop *Loop, newState LoopState) {
	if newState != loop.State {
		if pedal, ok := actionLEDs[loop.State]; ok {
			b.ledOff(pedal)
		}
	}

	v, ok := ledVisuals[newState]
	if !ok {
		v = ledVisual{Dark, TimerOff, false}
	}
	if newState == StatePlaying && b.mode != 0 {
		v.state, v.timer = Blink, TimerBlink
	}

	if loop.Index < numLEDs {
		led := &b.leds[loop.Index]
		led.State = v.state
		led.Timer = v.timer
		if v.on {
			b.ledOn(loop.Index)
		} else {
			b.ledOff(loop.Index)
		}
	}
	if pedal, ok := actionLEDs[newState]; ok {
		b.ledOn(pedal)
	}

	loop.State = newState
}

// refreshLoops re-derives every loop's LED from its current state. Needed
// after a mode toggle since Playing renders differently per mode.
func (b *Bridge) refreshLoops() {
	for i := range b.loops {
		b.applyLoopState(&b.loops[i], b.loops[i].State)
	}
}

// ledNumber maps an LED index to the display number the controller
// expects: LEDs 0-8 are displayed as 1-9, LED 9 as 0.
func ledNumber(index int) uint8 {
	switch {
	case index >= 0 && index <= 8:
		return uint8(index + 1)
	case index == 9:
		return 0
	default:
		return uint8(index)
	}
}

func (b *Bridge) ledOn(index int) {
	if index < 0 || index >= numLEDs {
		return
	}
	led := &b.leds[index]
	led.On = true
	b.sendMIDI(gomidi.ControlChange(b.channel(), ccLEDOn, ledNumber(index)))
	b.broadcastLED(*led)
}

func (b *Bridge) ledOff(index int) {
	if index < 0 || index >= numLEDs {
		return
	}
	led := &b.leds[index]
	led.On = false
	b.sendMIDI(gomidi.ControlChange(b.channel(), ccLEDOff, ledNumber(index)))
	b.broadcastLED(*led)
}

// showSelected puts the selected loop number on the controller's two-digit
// display and forwards it to the registered display client.
func (b *Bridge) showSelected() {
	if b.selected < 0 {
		return
	}
	tens := uint8(0)
	if b.selected >= 10 {
		tens = uint8(b.selected / 10)
	}
	b.sendMIDI(gomidi.ControlChange(b.channel(), ccDisplayTens, tens))
	b.sendMIDI(gomidi.ControlChange(b.channel(), ccDisplayOnes, uint8(b.selected%10)))
	b.broadcastSelected()
}
