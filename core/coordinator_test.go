package voice

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/c111spike/blindfold-voice/core/speech"
)

func TestStopAndWaitCompletesOrderly(t *testing.T) {
	adapter := newFakeAdapter()
	c := newTestCoordinator(t, adapter, nil)

	game, _, _, gameStopped := countingSession(SessionGame)
	c.Register(game)
	waitFor(t, func() bool { return adapter.startCalls.Load() >= 1 }, "session start")

	startedAt := time.Now()
	c.StopAndWait()

	if elapsed := time.Since(startedAt); elapsed >= testTimings().TeardownCeiling {
		t.Fatalf("orderly teardown took %v, expected completion before the ceiling", elapsed)
	}
	if got := gameStopped.Load(); got != 1 {
		t.Fatalf("expected the session engine stopped during teardown, got %d", got)
	}
	if !c.runtime.isClosed() {
		t.Fatalf("expected the coordinator closed after StopAndWait")
	}
}

func TestStopAndWaitReturnsWithinCeilingWhenStopNeverAcks(t *testing.T) {
	adapter := newFakeAdapter()
	adapter.ackStops = false
	c := newTestCoordinator(t, adapter, nil)

	c.Register(Session{ID: SessionGame})
	waitFor(t, func() bool { return adapter.startCalls.Load() >= 1 }, "session start")

	startedAt := time.Now()
	c.StopAndWait()
	elapsed := time.Since(startedAt)

	// The orderly phase gets most of the ceiling before force kicks in.
	if elapsed < testTimings().TeardownCeiling*4/5 {
		t.Fatalf("expected the orderly budget to be waited out, returned after %v", elapsed)
	}
	if elapsed > 4*testTimings().TeardownCeiling {
		t.Fatalf("teardown took %v, well past the ceiling", elapsed)
	}
	if !c.runtime.isClosed() {
		t.Fatalf("expected a forced close after the ceiling")
	}
	if infos := c.Snapshot(); infos != nil {
		t.Fatalf("expected force-cleared registry state, got %+v", infos)
	}
}

func TestForcedTeardownWaitsForRuntimeWorkerBeforeClearing(t *testing.T) {
	adapter := newFakeAdapter()
	adapter.ackStops = false
	c := newTestCoordinator(t, adapter, nil)

	c.Register(Session{ID: SessionGame})
	waitFor(t, func() bool { return adapter.startCalls.Load() >= 1 }, "session start")

	// Keep the runtime busy with recognition traffic while the teardown is
	// forced; the cleanup must not touch loop state the worker still owns.
	stopFeeding := make(chan struct{})
	feederDone := make(chan struct{})
	go func() {
		defer close(feederDone)
		for {
			select {
			case <-stopFeeding:
				return
			default:
				adapter.sendPartial("knight")
				time.Sleep(time.Millisecond)
			}
		}
	}()

	startedAt := time.Now()
	c.StopAndWait()
	close(stopFeeding)
	<-feederDone

	if elapsed := time.Since(startedAt); elapsed > 4*testTimings().TeardownCeiling {
		t.Fatalf("teardown took %v under recognition load", elapsed)
	}
	if !c.runtime.isClosed() {
		t.Fatalf("expected the coordinator closed")
	}
}

func TestStopAndWaitCompletesWhenStopCommandFails(t *testing.T) {
	adapter := newFakeAdapter()
	adapter.stopErr = errors.New("simulated stop failure")
	c := newTestCoordinator(t, adapter, nil)

	startedAt := time.Now()
	c.StopAndWait()
	if elapsed := time.Since(startedAt); elapsed >= testTimings().TeardownCeiling {
		t.Fatalf("expected a failed stop command to finish teardown immediately, took %v", elapsed)
	}
}

func TestStartReportsUnavailablePlatform(t *testing.T) {
	adapter := newFakeAdapter()
	adapter.openErr = speech.ErrUnavailable

	unavailable := atomic.Bool{}
	c := New(adapter, WithTimings(testTimings()))
	t.Cleanup(c.Close)

	err := c.Start(context.Background(),
		WithMicUnavailableCallback(func(isUnavailable bool) {
			unavailable.Store(isUnavailable)
		}),
	)
	if !errors.Is(err, speech.ErrUnavailable) {
		t.Fatalf("expected the unavailable error surfaced, got %v", err)
	}
	if !c.MicBusy() {
		t.Fatalf("expected the busy flag set on an unavailable platform")
	}
	if !unavailable.Load() {
		t.Fatalf("expected the unavailable callback fired")
	}
}

func TestStartTwiceIsRejected(t *testing.T) {
	adapter := newFakeAdapter()
	c := newTestCoordinator(t, adapter, nil)

	if err := c.Start(context.Background()); err == nil {
		t.Fatalf("expected the second start rejected")
	}
}

func TestContextCancellationClosesCoordinator(t *testing.T) {
	adapter := newFakeAdapter()
	c := New(adapter, WithTimings(testTimings()))
	t.Cleanup(c.Close)

	ctx, cancel := context.WithCancel(context.Background())
	if err := c.Start(ctx); err != nil {
		t.Fatalf("failed to start coordinator: %v", err)
	}

	cancel()
	waitFor(t, func() bool { return c.runtime.isClosed() }, "coordinator close on context cancel")
}

func TestStateChangesAreObservable(t *testing.T) {
	adapter := newFakeAdapter()

	type transition struct{ from, to State }
	var transitions []transition
	var transitionCount atomic.Int32

	c := newTestCoordinator(t, adapter, nil,
		WithStateChangedCallback(func(from, to State) {
			transitions = append(transitions, transition{from, to})
			transitionCount.Add(1)
		}),
	)
	c.Register(Session{ID: SessionGame})
	waitFor(t, func() bool { return adapter.startCalls.Load() >= 1 }, "session start")

	c.Speak("check")
	waitFor(t, func() bool { return c.State() == StateSpeaking }, "speaking state")
	adapter.endSpeech()
	waitFor(t, func() bool { return c.State() == StateSettling }, "settling state")
	waitFor(t, func() bool { return c.State() == StateListening }, "listening state")

	waitFor(t, func() bool { return transitionCount.Load() >= 3 }, "three transitions")
	flush(t, c)
	want := []transition{
		{StateListening, StateSpeaking},
		{StateSpeaking, StateSettling},
		{StateSettling, StateListening},
	}
	for i, expected := range want {
		if transitions[i] != expected {
			t.Fatalf("transition %d: expected %v -> %v, got %v -> %v",
				i, expected.from, expected.to, transitions[i].from, transitions[i].to)
		}
	}
}
