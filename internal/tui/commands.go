package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/shelf/internal/catalog"
	"github.com/mmcdole/shelf/internal/cli"
	"github.com/mmcdole/shelf/internal/domain"
	"github.com/mmcdole/shelf/internal/session"
)

// Command factories for async operations

const requestTimeout = 30 * time.Second

// LoadCatalogCmd loads the catalog. Progress arrives as catalog events.
func LoadCatalogCmd(svc *catalog.Service) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		if err := svc.Load(ctx); err != nil {
			return MutationDoneMsg{Op: "load", Err: err}
		}
		return nil
	}
}

// LoginCmd logs in with the given credentials
func LoginCmd(sess *session.Session, email, password string, remember bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		user, err := sess.Login(ctx, email, password, remember)
		return LoginResultMsg{User: user, Err: err}
	}
}

// RegisterCmd creates an account
func RegisterCmd(sess *session.Session, reg domain.Registration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		msg, err := sess.Register(ctx, reg)
		return RegisterResultMsg{Email: reg.Email, Message: msg, Err: err}
	}
}

// CreateBookCmd adds a book, uploading cover when set
func CreateBookCmd(svc *catalog.Service, fields domain.BookFields, cover *domain.CoverUpload) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		return MutationDoneMsg{Op: "create", Err: svc.Create(ctx, fields, cover)}
	}
}

// UpdateBookCmd changes a book record
func UpdateBookCmd(svc *catalog.Service, id string, fields domain.BookFields) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		return MutationDoneMsg{Op: "update", ID: id, Err: svc.Update(ctx, id, fields)}
	}
}

// DeleteBookCmd deletes a book record
func DeleteBookCmd(svc *catalog.Service, id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		return MutationDoneMsg{Op: "delete", ID: id, Err: svc.Delete(ctx, id)}
	}
}

// RetryPendingCmd sends rejected deletes again
func RetryPendingCmd(svc *catalog.Service) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		cleared, err := svc.RetryPending(ctx)
		return PendingRetriedMsg{Cleared: cleared, Err: err}
	}
}

// LogoutCmd clears the session and the catalog
func LogoutCmd(app *cli.App) tea.Cmd {
	return func() tea.Msg {
		return LoggedOutMsg{Err: app.Logout()}
	}
}

// TickCmd returns a command that sends a tick after the given duration
func TickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return TickMsg{}
	})
}

// ClearStatusCmd clears status message seq after the given duration
func ClearStatusCmd(d time.Duration, seq int) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return ClearStatusMsg{Seq: seq}
	})
}
