package sessionstate

import "github.com/bafcc/camp-admin/users"

// Phase is the authentication phase of the session.
type Phase int

const (
	Unauthenticated Phase = iota
	// AuthenticatedProvisional is published right after login with a
	// placeholder profile, before the real profile arrives.
	AuthenticatedProvisional
	// AuthenticatedConfirmed carries the profile returned by the backend.
	AuthenticatedConfirmed
)

func (p Phase) String() string {
	switch p {
	case AuthenticatedProvisional:
		return "provisional"
	case AuthenticatedConfirmed:
		return "confirmed"
	default:
		return "unauthenticated"
	}
}

// State is what views observe about the session.
type State struct {
	Phase        Phase
	User         *users.Profile
	Initializing bool
}

// Authenticated reports whether a session is held.
func (s State) Authenticated() bool {
	return s.Phase != Unauthenticated
}

// LoggedOut returns the logged-out state.
func LoggedOut() State {
	return State{Phase: Unauthenticated}
}

// Provisional returns the state published right after a successful login.
func Provisional(user *users.Profile) State {
	return State{Phase: AuthenticatedProvisional, User: user}
}

// Confirmed returns the state carrying the backend profile.
func Confirmed(user *users.Profile) State {
	return State{Phase: AuthenticatedConfirmed, User: user}
}
