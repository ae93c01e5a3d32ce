// Package voice arbitrates exclusive use of the two physically-conflicting
// audio resources — the speech-to-text microphone stream and the
// speech-synthesis output — across independent logical voice sessions.
//
// The coordinator is an explicitly constructed service object; tests
// instantiate independent instances rather than sharing process globals.
// Internally everything runs on a single serialized runtime goroutine, so
// the restart token and the purging guard are checked and set within one
// queue turn with no interleaving.
package voice

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/c111spike/blindfold-voice/core/events"
	"github.com/c111spike/blindfold-voice/core/moves"
	"github.com/c111spike/blindfold-voice/core/speech"
)

type Coordinator struct {
	adapter    speech.Adapter
	parser     moves.Parser
	legalMoves func() []string
	timings    Timings

	runtime *runtime

	arbiter  *arbiter
	restarts *restarter
	registry *registry
	filter   *debounceFilter

	// callbackEmitter fans events out to the caller; replaced at Start.
	callbackEmitter eventEmitter

	// loopPaused is the should-restart flag: while set, no restart sequence
	// may start the hardware. Cleared by ResumeLoop and by a settle window
	// completing normally.
	loopPaused bool
	// synthesisInFlight tracks whether a speech-ended event is still owed by
	// the adapter. A pause without synthesis owes none, so resuming must
	// drive the settle path itself.
	synthesisInFlight bool
	muteDeadline      time.Time

	// teardownDone, when non-nil, is closed once the orderly StopAndWait
	// stop is acknowledged.
	teardownDone chan struct{}

	stateMirror atomic.Int32
	busyMirror  atomic.Bool

	baseContext context.Context
	started     atomic.Bool
	closeOnce   sync.Once
}

// New builds a coordinator around the given hardware adapter. The
// coordinator is inert until Start.
func New(adapter speech.Adapter, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		adapter:         adapter,
		timings:         DefaultTimings(),
		runtime:         newRuntime(),
		callbackEmitter: noopEventEmitter,
		baseContext:     context.Background(),
	}
	c.arbiter = newArbiter(c)
	c.restarts = newRestarter(c)
	c.registry = newRegistry(c)
	c.filter = newDebounceFilter(c)

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Start binds the caller callbacks, opens the adapter and begins processing.
// If the platform speech service is unavailable the coordinator reports
// unavailable through the callback and takes no further action.
//
// Contract: call Start at most once per coordinator instance.
func (c *Coordinator) Start(ctx context.Context, opts ...StartOption) error {
	if c.runtime.isClosed() {
		return fmt.Errorf("coordinator already closed")
	}
	if !c.started.CompareAndSwap(false, true) {
		return fmt.Errorf("coordinator already started")
	}

	startOptions := StartOptions{}
	for _, opt := range opts {
		opt(&startOptions)
	}
	c.callbackEmitter = newCallbackEventEmitter(startOptions)
	c.baseContext = ctx

	if err := c.adapter.Open(ctx,
		speech.WithListeningStartedCallback(func() {
			c.post(c.restarts.handleListeningStarted)
		}),
		speech.WithListeningStoppedCallback(func() {
			c.post(c.restarts.handleListeningStopped)
		}),
		speech.WithPartialResultCallback(func(transcript string) {
			c.post(func() { c.filter.handlePartial(transcript) })
		}),
		speech.WithFinalResultCallback(func(transcript string) {
			c.post(func() { c.filter.handleFinal(transcript) })
		}),
		speech.WithSpeechEndedCallback(func() {
			c.post(func() {
				c.synthesisInFlight = false
				c.emitEvent(events.NewSynthesisEnded())
				c.arbiter.speechEnded()
			})
		}),
	); err != nil {
		if errors.Is(err, speech.ErrUnavailable) {
			c.busyMirror.Store(true)
			c.callbackEmitter(events.NewMicBusyChanged(true))
		}
		return fmt.Errorf("failed to open speech adapter: %w", err)
	}

	c.runtime.start()
	go func() {
		select {
		case <-ctx.Done():
			c.Close()
		case <-c.runtime.closeCh:
		}
	}()

	return nil
}

// Close shuts the runtime down without the orderly teardown dance. Prefer
// StopAndWait on screen transitions.
func (c *Coordinator) Close() {
	c.closeOnce.Do(func() {
		c.runtime.end()
	})
}

// emitEvent updates the observable mirrors and fans the event out to the
// caller callbacks. Runtime goroutine only.
func (c *Coordinator) emitEvent(event events.Event) {
	switch typedEvent := event.(type) {
	case events.StateChanged:
		c.stateMirror.Store(int32(stateFromName(typedEvent.To)))
	case events.MicBusyChanged:
		c.busyMirror.Store(typedEvent.Busy)
	}
	c.callbackEmitter(event)
}

// wantsListening is the single definition of "the system still wants the
// microphone": the arbiter allows it, the loop is not paused, and at least
// one session is active.
func (c *Coordinator) wantsListening() bool {
	return c.arbiter.state == StateListening &&
		!c.loopPaused &&
		c.registry.hasActive() &&
		!c.runtime.isClosed()
}

func (c *Coordinator) muted() bool {
	return time.Now().Before(c.muteDeadline)
}

func (c *Coordinator) playCue() {
	c.emitEvent(events.NewMicCue())
}

func (c *Coordinator) deliverTranscript(transcript string) {
	var move *moves.Move
	if c.parser != nil {
		var legal []string
		if c.legalMoves != nil {
			legal = c.legalMoves()
		}
		move = c.parser(transcript, legal)
	}
	deliveryCounter.Add(c.baseContext, 1)
	c.emitEvent(events.NewTranscriptDelivered(transcript, move))
}

// Register adds a session in the lane implied by its id and requests a
// hardware start for it: immediately when it is safe to listen, queued when
// synthesis owns the pipeline.
func (c *Coordinator) Register(session Session) {
	if session.ID == "" {
		logger.Warn("ignoring session registration with empty id")
		return
	}
	c.post(func() { c.registry.register(session) })
}

// Unregister stops the session's engine and removes it, including from the
// pending restart queue. Unknown ids are a no-op.
func (c *Coordinator) Unregister(id string) {
	c.post(func() { c.registry.unregister(id) })
}

// SetActive flips whether a registered session currently wants the
// microphone, without tearing its engine down.
func (c *Coordinator) SetActive(id string, active bool) {
	c.post(func() { c.registry.setActive(id, active) })
}

// QueueRestart asks for a hardware start on behalf of a session; queued for
// the settle drain if the system is mid-speech. Idempotent.
func (c *Coordinator) QueueRestart(id string) {
	c.post(func() { c.registry.requestStart(id) })
}

// PauseLoop halts listening as if synthesis were about to start: the
// arbiter enters Speaking and any restart sequence that checks the flag
// after its buffer delay aborts without starting hardware.
func (c *Coordinator) PauseLoop() {
	c.post(func() {
		c.loopPaused = true
		c.arbiter.speechStarting()
	})
}

// ResumeLoop clears the pause flag. If it is already safe to listen the
// hardware restarts immediately; if the pause was simulated (no synthesis is
// in flight, so no completion event will ever arrive) the settle path is
// driven from here so listening still recovers.
func (c *Coordinator) ResumeLoop() {
	c.post(func() {
		c.loopPaused = false
		switch {
		case c.arbiter.state == StateListening:
			c.restarts.triggerRestart()
		case !c.synthesisInFlight:
			c.arbiter.speechEnded()
		}
	})
}

// Mute suppresses transcript delivery for the given duration without
// touching hardware state. Used to swallow the settling artifact the
// hardware produces around restarts.
func (c *Coordinator) Mute(duration time.Duration) {
	c.post(func() {
		c.muteDeadline = time.Now().Add(duration)
	})
}

// Speak preempts listening and forwards text to the synthesis engine.
// Speaking transitions always take priority over pending microphone starts.
func (c *Coordinator) Speak(text string) {
	c.post(func() {
		ctx, span := tracer.Start(c.baseContext, "speak")
		defer span.End()

		c.synthesisInFlight = true
		c.arbiter.speechStarting()
		c.emitEvent(events.NewSynthesisStarted(text))
		if err := c.adapter.Speak(ctx, text); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			// No speech-ended will arrive for a rejected request; settle now
			// so the microphone recovers.
			c.synthesisInFlight = false
			c.arbiter.speechEnded()
		}
	})
}

// ResetMicBusy clears the sustained-failure lockout and resumes restarts.
func (c *Coordinator) ResetMicBusy() {
	c.post(func() { c.restarts.resetBusy() })
}

// State reports the arbitration state. Safe from any goroutine.
func (c *Coordinator) State() State {
	return State(c.stateMirror.Load())
}

// MicBusy reports whether the sustained-failure lockout is tripped.
func (c *Coordinator) MicBusy() bool {
	return c.busyMirror.Load()
}

// Snapshot returns a point-in-time view of the registered sessions.
func (c *Coordinator) Snapshot() []SessionInfo {
	result := make(chan []SessionInfo, 1)
	c.post(func() { result <- c.registry.snapshot() })
	select {
	case infos := <-result:
		return infos
	case <-c.runtime.closeCh:
		return nil
	}
}

// Purge tears down every disposable session's engine and, only when no
// protected session is registered, also stops the shared hardware and
// clears its permission bindings. It never returns before the silence
// window has elapsed. A purge while one is in flight is a no-op.
func (c *Coordinator) Purge(ctx context.Context) error {
	return c.purge(ctx, false)
}

// PurgeAll is Purge plus the protected lane; reserved for app teardown and
// unrecoverable errors.
func (c *Coordinator) PurgeAll(ctx context.Context) error {
	return c.purge(ctx, true)
}

func (c *Coordinator) purge(ctx context.Context, includeProtected bool) error {
	started := make(chan bool, 1)
	done := make(chan struct{})

	c.post(func() {
		if c.registry.purging {
			started <- false
			return
		}
		c.registry.purging = true
		started <- true

		_, span := tracer.Start(c.baseContext, "purge sessions",
			trace.WithAttributes(attribute.Bool("include_protected", includeProtected)))
		defer span.End()
		purgeCounter.Add(c.baseContext, 1)

		if includeProtected {
			c.registry.stopAll()
		} else {
			c.registry.stopDisposable()
		}

		if includeProtected || !c.registry.hasProtected() {
			c.restarts.stopForTeardown()
			if binder, ok := c.adapter.(speech.PermissionBinder); ok {
				binder.ClearPermissionBindings()
			}
		}
		c.emitEvent(events.NewSessionsPurged(includeProtected))

		// The silence window lets the platform audio pipeline settle before
		// any subsequent session starts. Completion is signalled directly
		// from the timer goroutine so a blocked caller cannot wedge it.
		time.AfterFunc(c.timings.PurgeSilence, func() {
			c.post(func() { c.registry.purging = false })
			close(done)
		})
	})

	select {
	case ok := <-started:
		if !ok {
			return nil
		}
	case <-ctx.Done():
		return ctx.Err()
	case <-c.runtime.closeCh:
		return nil
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// StopAndWait tears the coordinator down, returning within the teardown
// ceiling no matter how the hardware behaves. If the orderly stop has not
// been acknowledged in time, all in-memory state is force-cleared and a
// hardware stop is issued directly. The ceiling is split between the two
// phases so the total bound holds. The coordinator is closed afterwards.
func (c *Coordinator) StopAndWait() {
	orderly := make(chan struct{})
	c.post(func() { c.beginTeardown(orderly) })

	orderlyBudget := c.timings.TeardownCeiling * 4 / 5
	select {
	case <-orderly:
	case <-time.After(orderlyBudget):
		c.forceTeardown(c.timings.TeardownCeiling - orderlyBudget)
	case <-c.runtime.closeCh:
	}

	c.Close()
}

func (c *Coordinator) beginTeardown(done chan struct{}) {
	c.teardownDone = done
	c.arbiter.cancelSettleTimer()
	c.filter.cancel()
	c.registry.stopAll()

	stopID := c.restarts.expectStop(stopReasonTeardown)
	if err := c.adapter.StopListening(c.baseContext); err != nil {
		// No acknowledgement will ever arrive; the orderly path is done.
		c.restarts.forgetStop(stopID)
		c.finishTeardown()
	}
}

func (c *Coordinator) finishTeardown() {
	if c.teardownDone != nil {
		close(c.teardownDone)
		c.teardownDone = nil
	}
}

// forceTeardown runs off the runtime goroutine; it exists for the case where
// the runtime is wedged behind a misbehaving adapter. The loop-confined
// state may only be touched once the worker has actually exited, so the
// clears wait (bounded) for that; a callback wedged inside the worker
// forfeits the cleanup rather than racing it.
func (c *Coordinator) forceTeardown(drainBudget time.Duration) {
	logger.Warn("orderly teardown exceeded ceiling, forcing cleanup")
	c.runtime.end()

	select {
	case <-c.runtime.done:
		c.registry.clear()
		c.restarts.clear()
		c.filter.cancel()
	case <-time.After(drainBudget):
		logger.Warn("runtime worker did not exit, skipping state cleanup")
	}

	if err := c.adapter.StopListening(c.baseContext); err != nil {
		logger.Warn("forced hardware stop failed", "error", err)
	}
}
