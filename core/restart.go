package voice

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/c111spike/blindfold-voice/core/events"
	"github.com/c111spike/blindfold-voice/core/speech"
)

// stopReason tags every stop the coordinator requests itself, so the
// adapter's stopped events can be reconciled against their cause instead of
// being misread as unsolicited platform stops.
type stopReason string

const (
	// stopReasonRestart: first half of a stop->buffer->start sequence. The
	// sequence owns the subsequent start; the stopped event must not trigger
	// another restart.
	stopReasonRestart stopReason = "restart"
	// stopReasonArbiter: synthesis is about to speak.
	stopReasonArbiter stopReason = "arbiter"
	// stopReasonTeardown: purge or StopAndWait.
	stopReasonTeardown stopReason = "teardown"
)

type expectedStop struct {
	id     string
	reason stopReason
}

// restarter performs the stop -> buffer -> start hardware sequence and
// guarantees at most one such sequence is in flight. Without that guarantee
// two racing callers produce overlapping stop/start commands that the
// platform rejects or silently corrupts into a stuck not-listening state.
//
// All fields are confined to the runtime goroutine; inFlight is the mutex
// token, checked and set within a single queue turn.
type restarter struct {
	c *Coordinator

	inFlight bool

	// expectedStops is the ledger of self-initiated stop commands not yet
	// reconciled against their stopped event, oldest first.
	expectedStops []expectedStop

	consecutiveFailures int
	lastFailureAt       time.Time
	busy                bool
	retryScheduled      bool
}

func newRestarter(c *Coordinator) *restarter {
	return &restarter{c: c}
}

// triggerRestart runs one stop->buffer->start sequence. A call while a
// sequence is in flight is a no-op: the running sequence rechecks the
// desired state after its buffer delay and picks the latest state up.
func (r *restarter) triggerRestart() {
	if r.inFlight || r.busy {
		return
	}
	r.inFlight = true
	restartCounter.Add(r.c.baseContext, 1)

	stopID := r.expectStop(stopReasonRestart)
	if err := r.c.adapter.StopListening(r.c.baseContext); err != nil {
		// No stopped event will arrive for this command; drop the
		// expectation and proceed with the sequence regardless.
		r.forgetStop(stopID)
		logger.Warn("restart stop command failed", "error", err)
	}

	r.c.after(r.c.timings.RestartBuffer, r.completeRestart)
}

func (r *restarter) completeRestart() {
	defer func() { r.inFlight = false }()

	if !r.c.wantsListening() || r.busy {
		return
	}

	if err := r.c.adapter.StartListening(r.c.baseContext); err != nil {
		r.recordStartFailure(err)
		return
	}
	r.consecutiveFailures = 0
}

func (r *restarter) recordStartFailure(err error) {
	r.consecutiveFailures++
	r.lastFailureAt = time.Now()
	logger.Warn("hardware start failed",
		"error", err, "consecutiveFailures", r.consecutiveFailures)

	if errors.Is(err, speech.ErrPermissionDenied) {
		// Terminal without external re-authorization; retrying is pointless.
		r.tripBusy()
		return
	}
	if r.consecutiveFailures >= maxConsecutiveStartFailures {
		r.tripBusy()
		return
	}

	// Exactly one delayed retry rather than a synchronous loop; the retry
	// funnels back through the token check so attempts can never stack.
	if r.retryScheduled {
		return
	}
	r.retryScheduled = true
	r.c.after(r.c.timings.RetryDelay, func() {
		r.retryScheduled = false
		r.triggerRestart()
	})
}

func (r *restarter) tripBusy() {
	if r.busy {
		return
	}
	r.busy = true
	lockoutCounter.Add(r.c.baseContext, 1, metric.WithAttributes(attribute.Bool("busy", true)))
	r.c.emitEvent(events.NewMicBusyChanged(true))
}

// resetBusy restores normal operation after a sustained-failure lockout.
func (r *restarter) resetBusy() {
	if !r.busy {
		return
	}
	r.busy = false
	r.consecutiveFailures = 0
	r.c.emitEvent(events.NewMicBusyChanged(false))
	if r.c.wantsListening() {
		r.triggerRestart()
	}
}

// expectStop records a self-initiated stop command and returns its
// correlation id.
func (r *restarter) expectStop(reason stopReason) string {
	stop := expectedStop{id: uuid.NewString(), reason: reason}
	r.expectedStops = append(r.expectedStops, stop)
	return stop.id
}

func (r *restarter) forgetStop(id string) {
	for i, stop := range r.expectedStops {
		if stop.id == id {
			r.expectedStops = append(r.expectedStops[:i], r.expectedStops[i+1:]...)
			return
		}
	}
}

// stopForArbiter issues the hardware stop that accompanies a Speaking
// transition.
func (r *restarter) stopForArbiter() {
	r.issueStop(stopReasonArbiter)
}

// stopForTeardown issues the hardware stop for purge/StopAndWait paths.
func (r *restarter) stopForTeardown() {
	r.issueStop(stopReasonTeardown)
}

func (r *restarter) issueStop(reason stopReason) {
	stopID := r.expectStop(reason)
	if err := r.c.adapter.StopListening(r.c.baseContext); err != nil {
		r.forgetStop(stopID)
		logger.Warn("hardware stop failed", "reason", string(reason), "error", err)
	}
}

// handleListeningStopped reconciles an adapter stopped event. Stops matching
// the ledger are self-caused and consume their entry; for a restart-reason
// stop the running sequence owns the subsequent start. An unmatched stop is
// a genuine platform stop: if the loop still wants to listen, recover.
func (r *restarter) handleListeningStopped() {
	if len(r.expectedStops) > 0 {
		stop := r.expectedStops[0]
		r.expectedStops = r.expectedStops[1:]
		r.c.emitEvent(events.NewMicListeningStopped(true))
		if stop.reason == stopReasonTeardown {
			r.c.finishTeardown()
		}
		return
	}

	r.c.emitEvent(events.NewMicListeningStopped(false))
	if r.c.wantsListening() {
		r.triggerRestart()
	}
}

// handleListeningStarted records a confirmed hardware start.
func (r *restarter) handleListeningStarted() {
	r.consecutiveFailures = 0
	r.c.emitEvent(events.NewMicListeningStarted())
}

// clear drops all serializer state; forced teardown only.
func (r *restarter) clear() {
	r.inFlight = false
	r.expectedStops = nil
	r.retryScheduled = false
}
