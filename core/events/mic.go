package events

const (
	// KindMicListeningStarted identifies adapter confirmation that the mic stream opened.
	KindMicListeningStarted Kind = "mic.listening_started"
	// KindMicListeningStopped identifies adapter confirmation that the mic stream closed.
	KindMicListeningStopped Kind = "mic.listening_stopped"
	// KindMicCue identifies the audible/haptic "mic is live" cue.
	KindMicCue Kind = "mic.cue"
	// KindMicBusyChanged identifies lockout state changes.
	KindMicBusyChanged Kind = "mic.busy_changed"
)

// MicListeningStarted marks adapter confirmation that listening began.
type MicListeningStarted struct{ Base }

// NewMicListeningStarted creates a listening-started event.
func NewMicListeningStarted() MicListeningStarted {
	return MicListeningStarted{Base: NewBase(KindMicListeningStarted)}
}

// MicListeningStopped marks adapter confirmation that listening stopped.
// Attributed reports whether the stop reconciled against a stop the
// coordinator requested itself; an unattributed stop came from the platform.
type MicListeningStopped struct {
	Base
	Attributed bool
}

// NewMicListeningStopped creates a listening-stopped event.
func NewMicListeningStopped(attributed bool) MicListeningStopped {
	return MicListeningStopped{Base: NewBase(KindMicListeningStopped), Attributed: attributed}
}

// MicCue marks the once-per-drain "mic is live" cue.
type MicCue struct{ Base }

// NewMicCue creates a mic cue event.
func NewMicCue() MicCue {
	return MicCue{Base: NewBase(KindMicCue)}
}

// MicBusyChanged carries the sustained-failure lockout flag.
type MicBusyChanged struct {
	Base
	Busy bool
}

// NewMicBusyChanged creates a lockout state change event.
func NewMicBusyChanged(busy bool) MicBusyChanged {
	return MicBusyChanged{Base: NewBase(KindMicBusyChanged), Busy: busy}
}
