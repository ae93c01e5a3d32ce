package voice

import (
	"slices"

	"github.com/jinzhu/copier"

	"github.com/c111spike/blindfold-voice/core/events"
)

// registry tracks which logical sessions want the microphone and partitions
// them into the protected and disposable lanes. All methods run on the
// coordinator's runtime goroutine; the purging guard therefore never races.
type registry struct {
	c *Coordinator

	order    []string
	sessions map[string]*registeredSession

	// pending is the restart queue: session ids awaiting a hardware start
	// once the arbiter leaves Speaking/Settling. Insertion-ordered, no
	// duplicates.
	pending []string

	purging bool
}

type registeredSession struct {
	Session
	Lane   Lane
	Active bool
}

func newRegistry(c *Coordinator) *registry {
	return &registry{c: c, sessions: map[string]*registeredSession{}}
}

// register adds a session in the lane implied by its id. Re-registering a
// live protected id is a handover: the callbacks swap in place and the
// microphone stays open across the transition. Re-registering a disposable
// id replaces the entry; the displaced engine is stopped so it cannot leak.
func (r *registry) register(session Session) {
	lane := LaneForID(session.ID)

	if existing, ok := r.sessions[session.ID]; ok {
		if lane == LaneProtected {
			existing.Session = session
			r.c.emitEvent(events.NewSessionRegistered(session.ID, true))
			return
		}
		existing.stop()
	}

	if _, ok := r.sessions[session.ID]; !ok {
		r.order = append(r.order, session.ID)
	}
	r.sessions[session.ID] = &registeredSession{Session: session, Lane: lane, Active: true}
	r.c.emitEvent(events.NewSessionRegistered(session.ID, false))

	r.requestStart(session.ID)
}

// requestStart asks the arbiter whether it is safe to listen; if not, the
// session is queued for the settle drain.
func (r *registry) requestStart(id string) {
	if r.c.arbiter.state == StateListening {
		r.c.restarts.triggerRestart()
		return
	}
	r.queuePending(id)
}

func (r *registry) unregister(id string) {
	session, ok := r.sessions[id]
	if !ok {
		return
	}
	session.stop()
	r.remove(id)
	r.c.emitEvent(events.NewSessionUnregistered(id))
}

func (r *registry) remove(id string) {
	delete(r.sessions, id)
	r.order = slices.DeleteFunc(r.order, func(other string) bool { return other == id })
	r.removePending(id)
}

func (r *registry) setActive(id string, active bool) {
	session, ok := r.sessions[id]
	if !ok || session.Active == active {
		return
	}
	session.Active = active
	if active {
		r.requestStart(id)
		return
	}
	r.removePending(id)
}

// queuePending inserts idempotently: a session id appears at most once.
func (r *registry) queuePending(id string) {
	if _, ok := r.sessions[id]; !ok {
		return
	}
	if slices.Contains(r.pending, id) {
		return
	}
	r.pending = append(r.pending, id)
}

func (r *registry) removePending(id string) {
	r.pending = slices.DeleteFunc(r.pending, func(other string) bool { return other == id })
}

func (r *registry) hasActive() bool {
	for _, session := range r.sessions {
		if session.Active {
			return true
		}
	}
	return false
}

func (r *registry) hasProtected() bool {
	for _, session := range r.sessions {
		if session.Lane == LaneProtected {
			return true
		}
	}
	return false
}

// pauseActive suspends every session that wants the microphone. The hardware
// stop is issued separately by the restart serializer.
func (r *registry) pauseActive() {
	for _, id := range r.order {
		if session := r.sessions[id]; session.Active {
			session.pause()
		}
	}
}

// drainAndResume runs the Settling -> Listening effect: pending sessions
// resume in registration order behind a single cue, then every remaining
// active session resumes. Resuming nothing is a no-op, not an error.
func (r *registry) drainAndResume() {
	resumed := map[string]bool{}

	if len(r.pending) > 0 {
		r.c.playCue()
		for _, id := range r.pending {
			if session, ok := r.sessions[id]; ok && session.Active {
				session.resume()
				resumed[id] = true
			}
		}
		r.pending = nil
	}

	for _, id := range r.order {
		if session := r.sessions[id]; session.Active && !resumed[id] {
			session.resume()
		}
	}
}

// stopDisposable tears down every disposable session's engine and drops it
// from the registry. Protected sessions are untouched.
func (r *registry) stopDisposable() {
	for _, id := range slices.Clone(r.order) {
		if session := r.sessions[id]; session.Lane == LaneDisposable {
			session.stop()
			r.remove(id)
		}
	}
}

func (r *registry) stopAll() {
	for _, id := range slices.Clone(r.order) {
		r.sessions[id].stop()
		r.remove(id)
	}
}

// clear drops all in-memory registry state without running session
// callbacks. Used only by the forced teardown path.
func (r *registry) clear() {
	r.order = nil
	r.pending = nil
	r.sessions = map[string]*registeredSession{}
}

// SessionInfo is a point-in-time view of one registered session.
type SessionInfo struct {
	ID      string
	Lane    Lane
	Active  bool
	Pending bool
}

func (r *registry) snapshot() []SessionInfo {
	infos := make([]SessionInfo, 0, len(r.order))
	for _, id := range r.order {
		session := r.sessions[id]
		info := SessionInfo{}
		if err := copier.Copy(&info, session); err != nil {
			logger.Warn("failed to snapshot session", "id", id, "error", err)
			continue
		}
		info.Pending = slices.Contains(r.pending, id)
		infos = append(infos, info)
	}
	return infos
}
