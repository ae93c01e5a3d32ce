package moves

import "strings"

// Class is the debounce-relevant shape of a partial transcript.
type Class int

const (
	// ClassPlain is a bare pawn move ("e4"): a target square with no piece or
	// capture keyword. Delivered on receipt, never debounced.
	ClassPlain Class = iota
	// ClassComplete names a piece or capture and a completed target square
	// ("knight f3", "takes e5"). Delivered immediately, cancelling any
	// pending fragment.
	ClassComplete
	// ClassFragment names a piece or capture but no completed target square
	// ("knight", "bishop takes"). Buffered until a fuller transcript arrives
	// or the debounce window elapses.
	ClassFragment
	// ClassOther is everything else ("castle kingside", "resign", noise).
	// Delivered on receipt.
	ClassOther
)

var pieceKeywords = []string{
	"knight", "night", "bishop", "rook", "queen", "king", "pawn",
}

var captureKeywords = []string{
	"takes", "take", "captures", "capture", "x",
}

// Classify inspects a partial transcript and decides how the debounce filter
// should treat it.
func Classify(transcript string) Class {
	tokens := tokenize(transcript)
	if len(tokens) == 0 {
		return ClassOther
	}

	hasTarget := false
	for _, token := range tokens {
		if isSquare(token) {
			hasTarget = true
			break
		}
	}

	hasPieceOrCapture := containsAnyKeyword(tokens, pieceKeywords) ||
		containsAnyKeyword(tokens, captureKeywords)

	switch {
	case hasPieceOrCapture && hasTarget:
		return ClassComplete
	case hasPieceOrCapture:
		return ClassFragment
	case hasTarget:
		return ClassPlain
	default:
		return ClassOther
	}
}

// HasTargetSquare reports whether the transcript contains a completed
// <file><rank> destination token.
func HasTargetSquare(transcript string) bool {
	for _, token := range tokenize(transcript) {
		if isSquare(token) {
			return true
		}
	}
	return false
}

// IsBarePawnMove reports whether the transcript is a plain pawn move: a
// target square with no piece or capture keyword.
func IsBarePawnMove(transcript string) bool {
	return Classify(transcript) == ClassPlain
}

func tokenize(transcript string) []string {
	return strings.Fields(strings.ToLower(strings.TrimSpace(transcript)))
}

func isSquare(token string) bool {
	if len(token) != 2 {
		return false
	}
	return token[0] >= 'a' && token[0] <= 'h' && token[1] >= '1' && token[1] <= '8'
}

func containsAnyKeyword(tokens []string, keywords []string) bool {
	for _, token := range tokens {
		for _, keyword := range keywords {
			if token == keyword {
				return true
			}
		}
	}
	return false
}
