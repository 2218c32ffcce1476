package bridge

// LoopState is a SooperLooper loop state as carried on the /ctrl wire.
type LoopState int

const (
	StateUnknown LoopState = iota - 1
	StateOff
	StateWaitStart
	StateRecording
	StateWaitStop
	StatePlaying
	StateOverdubbing
	StateMultiplying
	StateInserting
	StateReplacing
	StateDelay
	StateMuted
	StateScratching
	StateOneShot
	StateSubstitute
	StatePaused
)

var loopStateNames = map[LoopState]string{
	StateUnknown:     "unknown",
	StateOff:         "off",
	StateWaitStart:   "wait-start",
	StateRecording:   "recording",
	StateWaitStop:    "wait-stop",
	StatePlaying:     "playing",
	StateOverdubbing: "overdubbing",
	StateMultiplying: "multiplying",
	StateInserting:   "inserting",
	StateReplacing:   "replacing",
	StateDelay:       "delay",
	StateMuted:       "muted",
	StateScratching:  "scratching",
	StateOneShot:     "one-shot",
	StateSubstitute:  "substitute",
	StatePaused:      "paused",
}

func (s LoopState) String() string {
	if name, ok := loopStateNames[s]; ok {
		return name
	}
	return "invalid"
}

// Loop is one loop slot in the looper engine. Its LED, when it has one,
// is the LED at the same index.
type Loop struct {
	Index int
	State LoopState
}
