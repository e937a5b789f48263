package domain

// SessionGate decides whether the catalog may be loaded and mutated.
// Implementations must be safe for concurrent use.
type SessionGate interface {
	// IsAuthenticated reports whether a usable session exists
	IsAuthenticated() bool

	// CurrentUser returns the logged in user, if any
	CurrentUser() (User, bool)

	// Subscribe delivers the current user (nil when logged out) immediately
	// and again on every change. The returned func stops delivery.
	Subscribe() (<-chan *User, func())
}

// TokenSource supplies the bearer token attached to API requests
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a func to TokenSource
type TokenFunc func() string

// Token returns f()
func (f TokenFunc) Token() string { return f() }
