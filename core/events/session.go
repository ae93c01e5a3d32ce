package events

const (
	// KindSessionRegistered identifies registry additions and handovers.
	KindSessionRegistered Kind = "session.registered"
	// KindSessionUnregistered identifies registry removals.
	KindSessionUnregistered Kind = "session.unregistered"
	// KindSessionsPurged identifies completion of a lane purge.
	KindSessionsPurged Kind = "session.purged"
)

// SessionRegistered marks a session joining the registry. Handover reports
// whether an already-registered protected session was replaced in place.
type SessionRegistered struct {
	Base
	ID       string
	Handover bool
}

// NewSessionRegistered creates a session registered event.
func NewSessionRegistered(id string, handover bool) SessionRegistered {
	return SessionRegistered{Base: NewBase(KindSessionRegistered), ID: id, Handover: handover}
}

// SessionUnregistered marks a session leaving the registry.
type SessionUnregistered struct {
	Base
	ID string
}

// NewSessionUnregistered creates a session unregistered event.
func NewSessionUnregistered(id string) SessionUnregistered {
	return SessionUnregistered{Base: NewBase(KindSessionUnregistered), ID: id}
}

// SessionsPurged marks completion of a purge pass.
type SessionsPurged struct {
	Base
	ProtectedCleared bool
}

// NewSessionsPurged creates a sessions purged event.
func NewSessionsPurged(protectedCleared bool) SessionsPurged {
	return SessionsPurged{Base: NewBase(KindSessionsPurged), ProtectedCleared: protectedCleared}
}
