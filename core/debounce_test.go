package voice

import (
	"sync"
	"testing"
	"time"

	"github.com/c111spike/blindfold-voice/core/moves"
)

// transcriptRecorder collects delivered transcripts in order.
type transcriptRecorder struct {
	mu        sync.Mutex
	delivered []string
}

func (r *transcriptRecorder) callback(transcript string, _ *moves.Move) {
	r.mu.Lock()
	r.delivered = append(r.delivered, transcript)
	r.mu.Unlock()
}

func (r *transcriptRecorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.delivered...)
}

func (r *transcriptRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.delivered)
}

func newRecordingCoordinator(t *testing.T) (*Coordinator, *fakeAdapter, *transcriptRecorder) {
	t.Helper()
	adapter := newFakeAdapter()
	recorder := &transcriptRecorder{}
	c := newTestCoordinator(t, adapter, nil, WithTranscriptCallback(recorder.callback))
	c.Register(Session{ID: SessionGame})
	waitFor(t, func() bool { return adapter.startCalls.Load() >= 1 }, "session start")
	return c, adapter, recorder
}

func TestFragmentSupersededByCompletedMove(t *testing.T) {
	c, adapter, recorder := newRecordingCoordinator(t)

	adapter.sendPartial("knight")
	adapter.sendPartial("knight f3")
	flush(t, c)

	if got := recorder.all(); len(got) != 1 || got[0] != "knight f3" {
		t.Fatalf("expected a single delivery of the completed move, got %v", got)
	}

	// The superseded fragment must not surface once its window would have
	// elapsed.
	time.Sleep(2 * testTimings().DebounceWindow)
	if got := recorder.count(); got != 1 {
		t.Fatalf("expected no late fragment delivery, got %d deliveries", got)
	}
}

func TestLoneFragmentDeliversAfterWindow(t *testing.T) {
	c, adapter, recorder := newRecordingCoordinator(t)

	adapter.sendPartial("bishop takes")
	flush(t, c)
	if got := recorder.count(); got != 0 {
		t.Fatalf("expected the fragment held back, got %d deliveries", got)
	}

	waitFor(t, func() bool { return recorder.count() == 1 }, "fragment delivery after the window")
	if got := recorder.all(); got[0] != "bishop takes" {
		t.Fatalf("expected the buffered fragment verbatim, got %q", got[0])
	}
}

func TestBarePawnMoveBypassesDebounce(t *testing.T) {
	c, adapter, recorder := newRecordingCoordinator(t)

	adapter.sendPartial("e4")
	flush(t, c)

	if got := recorder.all(); len(got) != 1 || got[0] != "e4" {
		t.Fatalf("expected the pawn move delivered on receipt, got %v", got)
	}
}

func TestRenewedFragmentRestartsWindow(t *testing.T) {
	c, adapter, recorder := newRecordingCoordinator(t)

	adapter.sendPartial("knight")
	flush(t, c)
	time.Sleep(testTimings().DebounceWindow / 2)
	adapter.sendPartial("knight takes")
	flush(t, c)

	// The second fragment replaced the first and restarted the window; only
	// the newer text may surface, and only once.
	waitFor(t, func() bool { return recorder.count() >= 1 }, "fragment delivery")
	time.Sleep(2 * testTimings().DebounceWindow)
	if got := recorder.all(); len(got) != 1 || got[0] != "knight takes" {
		t.Fatalf("expected one delivery of the renewed fragment, got %v", got)
	}
}

func TestFinalResultShortCircuitsPendingFragment(t *testing.T) {
	c, adapter, recorder := newRecordingCoordinator(t)

	adapter.sendPartial("queen")
	adapter.sendFinal("queen d5")
	flush(t, c)

	if got := recorder.all(); len(got) != 1 || got[0] != "queen d5" {
		t.Fatalf("expected the final result delivered immediately, got %v", got)
	}
	time.Sleep(2 * testTimings().DebounceWindow)
	if got := recorder.count(); got != 1 {
		t.Fatalf("expected the pending fragment cancelled, got %d deliveries", got)
	}
}

func TestMuteSwallowsTranscripts(t *testing.T) {
	c, adapter, recorder := newRecordingCoordinator(t)

	c.Mute(10 * testTimings().DebounceWindow)
	flush(t, c)

	adapter.sendPartial("e4")
	adapter.sendFinal("knight f3")
	flush(t, c)

	if got := recorder.count(); got != 0 {
		t.Fatalf("expected muted transcripts swallowed, got %d deliveries", got)
	}
}

func TestParserReceivesLegalMoves(t *testing.T) {
	adapter := newFakeAdapter()
	recorder := &transcriptRecorder{}

	var parsed *moves.Move
	var seenLegal []string
	var mu sync.Mutex

	parser := func(transcript string, legalMoves []string) *moves.Move {
		mu.Lock()
		seenLegal = append([]string(nil), legalMoves...)
		parsed = &moves.Move{Notation: "Nf3"}
		mu.Unlock()
		return parsed
	}

	c := newTestCoordinator(t, adapter,
		[]CoordinatorOption{
			WithParser(parser),
			WithLegalMovesSupplier(func() []string { return []string{"Nf3", "e4"} }),
		},
		WithTranscriptCallback(func(transcript string, move *moves.Move) {
			recorder.callback(transcript, move)
			if move == nil || move.Notation != "Nf3" {
				t.Errorf("expected the parsed move forwarded, got %+v", move)
			}
		}),
	)
	c.Register(Session{ID: SessionGame})
	waitFor(t, func() bool { return adapter.startCalls.Load() >= 1 }, "session start")

	adapter.sendFinal("knight f3")
	flush(t, c)

	if got := recorder.count(); got != 1 {
		t.Fatalf("expected one delivery, got %d", got)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(seenLegal) != 2 || seenLegal[0] != "Nf3" {
		t.Fatalf("expected the legal-move list handed to the parser, got %v", seenLegal)
	}
}
