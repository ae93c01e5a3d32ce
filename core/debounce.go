package voice

import (
	"time"

	"github.com/c111spike/blindfold-voice/core/events"
	"github.com/c111spike/blindfold-voice/core/moves"
)

// debounceFilter delays ambiguous partial phrases before the caller's move
// parser commits to them. "knight" spoken before the destination square must
// not parse as a move; "knight f3" half a second later must parse exactly
// once. Runs on the runtime goroutine.
type debounceFilter struct {
	c *Coordinator

	buffered    string
	debounceGen int
	timer       *time.Timer
}

func newDebounceFilter(c *Coordinator) *debounceFilter {
	return &debounceFilter{c: c}
}

// handlePartial routes one recognition fragment.
func (f *debounceFilter) handlePartial(transcript string) {
	f.c.emitEvent(events.NewTranscriptPartial(transcript))

	if f.c.muted() {
		return
	}

	switch moves.Classify(transcript) {
	case moves.ClassFragment:
		// Piece or capture word without a completed target square: hold it
		// and wait for something fuller.
		f.buffered = transcript
		f.restartTimer()
	case moves.ClassComplete, moves.ClassPlain:
		// A completed target square supersedes whatever was buffered.
		f.cancel()
		f.c.deliverTranscript(transcript)
	default:
		f.c.deliverTranscript(transcript)
	}
}

// handleFinal short-circuits the debounce: the recognizer already committed.
func (f *debounceFilter) handleFinal(transcript string) {
	f.cancel()
	if f.c.muted() {
		return
	}
	f.c.deliverTranscript(transcript)
}

func (f *debounceFilter) restartTimer() {
	f.debounceGen++
	generation := f.debounceGen
	if f.timer != nil {
		f.timer.Stop()
	}
	f.timer = f.c.after(f.c.timings.DebounceWindow, func() {
		f.windowElapsed(generation)
	})
}

// windowElapsed delivers the buffered fragment as-is: nothing more complete
// arrived within the window.
func (f *debounceFilter) windowElapsed(generation int) {
	if generation != f.debounceGen || f.buffered == "" {
		return
	}
	transcript := f.buffered
	f.buffered = ""
	f.timer = nil
	if f.c.muted() {
		return
	}
	f.c.deliverTranscript(transcript)
}

// cancel discards the pending fragment and its timer.
func (f *debounceFilter) cancel() {
	f.debounceGen++
	f.buffered = ""
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
}
