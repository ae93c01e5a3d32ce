package voice

// State is the arbitration state machine's single process-wide value. Only
// the arbiter mutates it.
type State int

const (
	// StateListening means the recognition stream may be open. Hardware
	// listening is active only in this state.
	StateListening State = iota
	// StateSpeaking means speech synthesis owns the audio pipeline; the
	// microphone is closed and sessions are paused.
	StateSpeaking
	// StateSettling is the post-speech window during which the microphone
	// stays closed so the platform can release exclusive access.
	StateSettling
)

func stateFromName(name string) State {
	switch name {
	case "speaking":
		return StateSpeaking
	case "settling":
		return StateSettling
	}
	return StateListening
}

func (s State) String() string {
	switch s {
	case StateListening:
		return "listening"
	case StateSpeaking:
		return "speaking"
	case StateSettling:
		return "settling"
	}
	return "unknown"
}
