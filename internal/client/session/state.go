package session

import "github.com/dayon-app/dayon-go/internal/core/domain"

// State is the authentication state.
type State int

const (
	Restoring State = iota
	Unauthenticated
	Authenticated
)

// States lists every state, in declaration order.
var States = []State{Restoring, Unauthenticated, Authenticated}

func (s State) String() string {
	switch s {
	case Restoring:
		return "restoring"
	case Unauthenticated:
		return "unauthenticated"
	case Authenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Session is an immutable view of the current authentication state. User
// is set only when State is Authenticated.
type Session struct {
	User  *domain.User
	State State
}

// Ready reports whether restore has finished.
func (s Session) Ready() bool {
	return s.State != Restoring
}

// Authenticated reports whether a user is logged in.
func (s Session) Authenticated() bool {
	return s.State == Authenticated
}
