package entities

// Actor is the authenticated identity acting on a negotiation, passed
// explicitly into every command. The authentication layer upstream resolves
// it; nothing here reads ambient request state.
type Actor struct {
	ID    string
	Admin bool
}
