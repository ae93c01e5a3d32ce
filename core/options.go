package voice

import (
	"github.com/c111spike/blindfold-voice/core/moves"
)

type CoordinatorOption func(*Coordinator)

// WithParser supplies the caller's move grammar. Without a parser the
// coordinator still delivers transcripts, with a nil move.
func WithParser(parser moves.Parser) CoordinatorOption {
	return func(c *Coordinator) {
		c.parser = parser
	}
}

// WithLegalMovesSupplier supplies the legal-move list handed to the parser
// alongside each transcript.
func WithLegalMovesSupplier(supplier func() []string) CoordinatorOption {
	return func(c *Coordinator) {
		c.legalMoves = supplier
	}
}

// WithTimings overrides the coordinator's scheduled delays. Zero fields keep
// their defaults.
func WithTimings(timings Timings) CoordinatorOption {
	return func(c *Coordinator) {
		c.timings = timings.withDefaults()
	}
}

// StartOptions collects the caller-facing callbacks bound at Start. All
// callbacks are invoked on the runtime goroutine and must not block.
type StartOptions struct {
	onTranscript        func(transcript string, move *moves.Move)
	onPartialTranscript func(transcript string)
	onMicUnavailable    func(unavailable bool)
	onCue               func()
	onStateChanged      func(from, to State)
	onListeningChanged  func(listening bool)
}

type StartOption func(*StartOptions)

// WithTranscriptCallback receives every delivered transcript together with
// the parsed move, if any.
func WithTranscriptCallback(callback func(transcript string, move *moves.Move)) StartOption {
	return func(o *StartOptions) {
		o.onTranscript = callback
	}
}

// WithPartialTranscriptCallback receives raw recognition fragments before
// the debounce filter.
func WithPartialTranscriptCallback(callback func(transcript string)) StartOption {
	return func(o *StartOptions) {
		o.onPartialTranscript = callback
	}
}

// WithMicUnavailableCallback receives the single user-visible failure
// signal: sustained hardware failure or permission denial.
func WithMicUnavailableCallback(callback func(unavailable bool)) StartOption {
	return func(o *StartOptions) {
		o.onMicUnavailable = callback
	}
}

// WithCueCallback fires the "mic is live" cue, once per settle drain.
func WithCueCallback(callback func()) StartOption {
	return func(o *StartOptions) {
		o.onCue = callback
	}
}

// WithStateChangedCallback observes arbitration state transitions.
func WithStateChangedCallback(callback func(from, to State)) StartOption {
	return func(o *StartOptions) {
		o.onStateChanged = callback
	}
}

// WithListeningChangedCallback observes confirmed hardware listening
// transitions.
func WithListeningChangedCallback(callback func(listening bool)) StartOption {
	return func(o *StartOptions) {
		o.onListeningChanged = callback
	}
}
