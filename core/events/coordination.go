package events

// KindStateChanged identifies arbitration state machine transitions.
const KindStateChanged Kind = "coordination.state_changed"

// StateChanged carries an arbitration state machine transition. States are
// carried as their string names so this package stays free of coordinator
// types.
type StateChanged struct {
	Base
	From string
	To   string
}

// NewStateChanged creates a state transition event.
func NewStateChanged(from, to string) StateChanged {
	return StateChanged{Base: NewBase(KindStateChanged), From: from, To: to}
}
