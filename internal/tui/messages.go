package tui

import (
	"github.com/mmcdole/shelf/internal/catalog"
	"github.com/mmcdole/shelf/internal/domain"
)

// Message types for the TUI

// CatalogEventMsg carries one catalog.Event into the update loop
type CatalogEventMsg struct {
	Event catalog.Event
}

// catalogClosedMsg signals the event subscription ended
type catalogClosedMsg struct{}

// SessionChangedMsg carries the current user after a session change.
// User is nil after logout.
type SessionChangedMsg struct {
	User *domain.User
}

// sessionClosedMsg signals the session subscription ended
type sessionClosedMsg struct{}

// LoginResultMsg reports a finished login attempt
type LoginResultMsg struct {
	User domain.User
	Err  error
}

// RegisterResultMsg reports a finished registration
type RegisterResultMsg struct {
	Email   string
	Message string
	Err     error
}

// MutationDoneMsg reports a finished create, update or delete
type MutationDoneMsg struct {
	Op  string
	ID  string
	Err error
}

// PendingRetriedMsg reports a finished retry of pending deletes
type PendingRetriedMsg struct {
	Cleared int
	Err     error
}

// LoggedOutMsg signals the session was cleared
type LoggedOutMsg struct {
	Err error
}

// TickMsg drives spinner animation
type TickMsg struct{}

// ClearStatusMsg clears the status bar message if it is still the one
// with the given sequence number
type ClearStatusMsg struct {
	Seq int
}
