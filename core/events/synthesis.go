package events

const (
	// KindSynthesisStarted identifies the start of speech output.
	KindSynthesisStarted Kind = "synthesis.started"
	// KindSynthesisEnded identifies completion of speech output.
	KindSynthesisEnded Kind = "synthesis.ended"
)

// SynthesisStarted marks that speech output is about to begin.
type SynthesisStarted struct {
	Base
	Text string
}

// NewSynthesisStarted creates a synthesis started event.
func NewSynthesisStarted(text string) SynthesisStarted {
	return SynthesisStarted{Base: NewBase(KindSynthesisStarted), Text: text}
}

// SynthesisEnded marks that the synthesis engine signalled completion.
type SynthesisEnded struct{ Base }

// NewSynthesisEnded creates a synthesis ended event.
func NewSynthesisEnded() SynthesisEnded {
	return SynthesisEnded{Base: NewBase(KindSynthesisEnded)}
}
