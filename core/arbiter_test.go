package voice

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestSpeechLifecycleReopensMicrophoneAfterSettle(t *testing.T) {
	adapter := newFakeAdapter()
	resumed := atomic.Int32{}

	c := newTestCoordinator(t, adapter, nil)
	c.Register(Session{ID: SessionGame, Resume: func() { resumed.Add(1) }})

	waitFor(t, func() bool { return adapter.startCalls.Load() == 1 }, "initial hardware start")

	c.PauseLoop()
	flush(t, c)
	if got := c.State(); got != StateSpeaking {
		t.Fatalf("expected speaking state after pause, got %v", got)
	}
	startsBeforeCompletion := adapter.startCalls.Load()

	adapter.endSpeech()
	flush(t, c)
	if got := c.State(); got != StateSettling {
		t.Fatalf("expected settling state after completion event, got %v", got)
	}

	waitFor(t, func() bool { return c.State() == StateListening }, "settle window to elapse")
	waitFor(t, func() bool { return adapter.startCalls.Load() == startsBeforeCompletion+1 }, "post-settle hardware start")

	// No further starts may trickle in after the drain.
	time.Sleep(3 * testTimings().RestartBuffer)
	if got := adapter.startCalls.Load(); got != startsBeforeCompletion+1 {
		t.Fatalf("expected exactly one hardware start after completion, got %d extra", got-startsBeforeCompletion)
	}
	if resumed.Load() == 0 {
		t.Fatalf("expected the session to be resumed after settle")
	}
}

func TestResumeLoopReopensMicrophoneWithoutSynthesisEvent(t *testing.T) {
	adapter := newFakeAdapter()
	c := newTestCoordinator(t, adapter, nil)
	c.Register(Session{ID: SessionGame})
	waitFor(t, func() bool { return adapter.startCalls.Load() == 1 }, "initial hardware start")

	// A simulated pause has no synthesis behind it, so no completion event
	// will ever arrive; resuming must still get back to listening.
	c.PauseLoop()
	flush(t, c)
	if got := c.State(); got != StateSpeaking {
		t.Fatalf("expected speaking state after pause, got %v", got)
	}

	c.ResumeLoop()
	waitFor(t, func() bool { return c.State() == StateListening }, "listening after resume")
	waitFor(t, func() bool { return adapter.startCalls.Load() == 2 }, "hardware restart after resume")
}

func TestResumeLoopDefersToInFlightSynthesis(t *testing.T) {
	adapter := newFakeAdapter()
	c := newTestCoordinator(t, adapter, nil)
	c.Register(Session{ID: SessionGame})
	waitFor(t, func() bool { return adapter.startCalls.Load() == 1 }, "initial hardware start")

	c.Speak("check")
	flush(t, c)

	// Synthesis still owes a completion event; resuming must not cut it off.
	c.ResumeLoop()
	flush(t, c)
	time.Sleep(2 * testTimings().SettleDelay)
	if got := c.State(); got != StateSpeaking {
		t.Fatalf("expected synthesis to keep the pipeline, got %v", got)
	}

	adapter.endSpeech()
	waitFor(t, func() bool { return c.State() == StateListening }, "listening after synthesis ends")
}

func TestSynthesisRestartDuringSettleReentersSpeaking(t *testing.T) {
	adapter := newFakeAdapter()
	c := newTestCoordinator(t, adapter, nil)
	c.Register(Session{ID: SessionGame})
	waitFor(t, func() bool { return adapter.startCalls.Load() == 1 }, "initial hardware start")

	c.PauseLoop()
	adapter.endSpeech()
	flush(t, c)
	if got := c.State(); got != StateSettling {
		t.Fatalf("expected settling state, got %v", got)
	}

	startsBefore := adapter.startCalls.Load()
	c.PauseLoop()
	flush(t, c)
	if got := c.State(); got != StateSpeaking {
		t.Fatalf("expected re-preemption to enter speaking, got %v", got)
	}

	// The preempted settle timer must not reopen the microphone.
	time.Sleep(2 * testTimings().SettleDelay)
	if got := c.State(); got != StateSpeaking {
		t.Fatalf("expected to stay speaking after stale settle fire, got %v", got)
	}
	if got := adapter.startCalls.Load(); got != startsBefore {
		t.Fatalf("expected no hardware starts while speaking, got %d extra", got-startsBefore)
	}
}

func TestSpuriousCompletionWithoutStartIsIgnored(t *testing.T) {
	adapter := newFakeAdapter()
	c := newTestCoordinator(t, adapter, nil)
	c.Register(Session{ID: SessionGame})
	waitFor(t, func() bool { return adapter.startCalls.Load() == 1 }, "initial hardware start")
	startsBefore := adapter.startCalls.Load()

	adapter.endSpeech()
	flush(t, c)

	if got := c.State(); got != StateListening {
		t.Fatalf("expected listening state after spurious completion, got %v", got)
	}
	time.Sleep(2 * testTimings().SettleDelay)
	if got := adapter.startCalls.Load(); got != startsBefore {
		t.Fatalf("expected no restart from a spurious completion, got %d extra starts", got-startsBefore)
	}
}

func TestSpeakDrivesArbiterAndAdapter(t *testing.T) {
	adapter := newFakeAdapter()
	c := newTestCoordinator(t, adapter, nil)
	c.Register(Session{ID: SessionGame})
	waitFor(t, func() bool { return adapter.startCalls.Load() == 1 }, "initial hardware start")

	c.Speak("check")
	flush(t, c)

	if got := c.State(); got != StateSpeaking {
		t.Fatalf("expected speaking state during synthesis, got %v", got)
	}
	if got := adapter.speakCalls.Load(); got != 1 {
		t.Fatalf("expected one speak call, got %d", got)
	}

	adapter.endSpeech()
	waitFor(t, func() bool { return c.State() == StateListening }, "listening to resume after speech")
}

func TestResumeOrderDrainsPendingQueueBeforeRemainingSessions(t *testing.T) {
	adapter := newFakeAdapter()
	var orderMu atomic.Pointer[[]string]
	order := []string{}
	orderMu.Store(&order)
	record := func(id string) func() {
		return func() {
			current := *orderMu.Load()
			next := append(append([]string{}, current...), id)
			orderMu.Store(&next)
		}
	}
	cueCalls := atomic.Int32{}

	c := newTestCoordinator(t, adapter, nil, WithCueCallback(func() { cueCalls.Add(1) }))
	c.Register(Session{ID: SessionGame, Resume: record(SessionGame)})
	waitFor(t, func() bool { return adapter.startCalls.Load() == 1 }, "initial hardware start")

	c.PauseLoop()
	flush(t, c)
	c.Register(Session{ID: "drill-a", Resume: record("drill-a")})
	c.Register(Session{ID: "drill-b", Resume: record("drill-b")})
	c.QueueRestart("drill-a") // duplicate queueing must not double-resume
	flush(t, c)

	adapter.endSpeech()
	waitFor(t, func() bool { return c.State() == StateListening }, "settle window to elapse")
	flush(t, c)

	got := *orderMu.Load()
	want := []string{"drill-a", "drill-b", SessionGame}
	if len(got) != len(want) {
		t.Fatalf("expected resume order %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected resume order %v, got %v", want, got)
		}
	}
	if got := cueCalls.Load(); got != 1 {
		t.Fatalf("expected exactly one cue per drain, got %d", got)
	}
}
