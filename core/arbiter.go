package voice

import (
	"time"

	"github.com/c111spike/blindfold-voice/core/events"
)

// arbiter owns the single notion of "is it currently safe to listen". It is
// driven by synthesis lifecycle notifications and a one-shot settling timer,
// and runs entirely on the coordinator's runtime goroutine.
//
// Legal transitions: any state -> Speaking; Speaking -> Settling on synthesis
// completion; Settling -> Listening when the settle timer fires unpreempted.
// Everything else is a spurious platform event and is ignored.
type arbiter struct {
	c *Coordinator

	state State

	settleTimer *time.Timer
	// settleGen invalidates settle fires that were already queued when a new
	// Speaking transition preempted the window.
	settleGen int
}

func newArbiter(c *Coordinator) *arbiter {
	return &arbiter{c: c, state: StateListening}
}

// speechStarting enters Speaking. Always legal: synthesis can preempt
// listening or re-preempt itself mid-settle.
func (a *arbiter) speechStarting() {
	a.settleGen++
	a.cancelSettleTimer()

	if a.state == StateSpeaking {
		return
	}

	from := a.state
	a.state = StateSpeaking
	a.c.emitEvent(events.NewStateChanged(from.String(), a.state.String()))

	if from == StateListening {
		// Close the mic before any audio leaves the speaker, otherwise the
		// recognizer hears the synthesized speech.
		a.c.restarts.stopForArbiter()
		a.c.registry.pauseActive()
	}
}

// speechEnded enters Settling and arms the settle timer. A completion that
// arrives without a preceding start is out-of-order platform noise and is
// dropped rather than entering Settling from Listening.
func (a *arbiter) speechEnded() {
	if a.state != StateSpeaking {
		return
	}

	a.state = StateSettling
	a.c.emitEvent(events.NewStateChanged(StateSpeaking.String(), StateSettling.String()))

	generation := a.settleGen
	a.settleTimer = a.c.after(a.c.timings.SettleDelay, func() {
		a.settleElapsed(generation)
	})
}

// settleElapsed completes Settling -> Listening unless a new Speaking
// transition preempted the window in the meantime.
func (a *arbiter) settleElapsed(generation int) {
	if generation != a.settleGen || a.state != StateSettling {
		return
	}

	a.settleTimer = nil
	a.state = StateListening
	// A settle window completing normally ends the pause the synthesis
	// lifecycle imposed.
	a.c.loopPaused = false
	a.c.emitEvent(events.NewStateChanged(StateSettling.String(), StateListening.String()))

	a.c.registry.drainAndResume()
	if a.c.wantsListening() {
		a.c.restarts.triggerRestart()
	}
}

func (a *arbiter) cancelSettleTimer() {
	if a.settleTimer != nil {
		a.settleTimer.Stop()
		a.settleTimer = nil
	}
}
