// Package moves holds the boundary between raw voice transcripts and the
// surrounding application's move grammar. The coordinator never interprets a
// move itself; it only classifies transcripts far enough to know whether a
// fragment is worth debouncing, and hands the final text to a caller-supplied
// Parser.
package moves

// Move is the parsed result produced by the caller's grammar. The coordinator
// treats it as an opaque payload and only forwards it.
type Move struct {
	// Notation is the move in whatever notation the caller's grammar emits.
	Notation string
}

// Parser maps a transcript to a move, constrained by the currently legal
// moves. A nil result means the transcript did not resolve to a move.
type Parser func(transcript string, legalMoves []string) *Move
