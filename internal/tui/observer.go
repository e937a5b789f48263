package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/shelf/internal/catalog"
	"github.com/mmcdole/shelf/internal/domain"
)

// listenCatalogCmd reads the next catalog event. The update loop re-issues
// it after every CatalogEventMsg, so exactly one read is outstanding.
func listenCatalogCmd(ch <-chan catalog.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return catalogClosedMsg{}
		}
		return CatalogEventMsg{Event: ev}
	}
}

// listenSessionCmd reads the next session change
func listenSessionCmd(ch <-chan *domain.User) tea.Cmd {
	return func() tea.Msg {
		user, ok := <-ch
		if !ok {
			return sessionClosedMsg{}
		}
		return SessionChangedMsg{User: user}
	}
}
