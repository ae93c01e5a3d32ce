package events

import "github.com/c111spike/blindfold-voice/core/moves"

const (
	// KindTranscriptPartial identifies a pre-filter recognition fragment.
	KindTranscriptPartial Kind = "transcript.partial"
	// KindTranscriptDelivered identifies a transcript handed to the caller.
	KindTranscriptDelivered Kind = "transcript.delivered"
)

// TranscriptPartial carries a recognition fragment before filtering.
type TranscriptPartial struct {
	Base
	Transcript string
}

// NewTranscriptPartial creates a partial transcript event.
func NewTranscriptPartial(transcript string) TranscriptPartial {
	return TranscriptPartial{Base: NewBase(KindTranscriptPartial), Transcript: transcript}
}

// TranscriptDelivered carries the transcript and parse result handed to
// the caller after debouncing.
type TranscriptDelivered struct {
	Base
	Transcript string
	Move       *moves.Move
}

// NewTranscriptDelivered creates a delivered transcript event.
func NewTranscriptDelivered(transcript string, move *moves.Move) TranscriptDelivered {
	return TranscriptDelivered{Base: NewBase(KindTranscriptDelivered), Transcript: transcript, Move: move}
}
