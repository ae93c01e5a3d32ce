package voice

// Well-known protected session ids. Everything else registers into the
// disposable lane.
const (
	SessionGame           = "game"
	SessionReconstruction = "reconstruction"
)

// Lane partitions sessions by teardown policy.
type Lane int

const (
	// LaneProtected sessions (live game, board reconstruction) survive
	// cross-mode cleanup; only PurgeAll removes them.
	LaneProtected Lane = iota
	// LaneDisposable sessions (training drills) are torn down aggressively
	// between drills.
	LaneDisposable
)

func (l Lane) String() string {
	if l == LaneProtected {
		return "protected"
	}
	return "disposable"
}

// LaneForID derives the lane from a session id.
func LaneForID(id string) Lane {
	switch id {
	case SessionGame, SessionReconstruction:
		return LaneProtected
	}
	return LaneDisposable
}

// Session is one logical consumer of the shared microphone. The callbacks
// reach back into the caller's higher-level engine; all of them are optional
// and must not block.
type Session struct {
	ID string

	// Pause suspends the session's engine while synthesis owns the audio
	// pipeline. The microphone itself is stopped separately.
	Pause func()
	// Resume reactivates the session's engine once listening is safe again.
	Resume func()
	// Stop tears the session's engine down for good; called on unregister
	// and on lane purges.
	Stop func()
}

func (s Session) pause() {
	if s.Pause != nil {
		s.Pause()
	}
}

func (s Session) resume() {
	if s.Resume != nil {
		s.Resume()
	}
}

func (s Session) stop() {
	if s.Stop != nil {
		s.Stop()
	}
}
