package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// handleFilterKey edits the active view's query as the user types.
// Enter keeps the query and returns to the list, esc clears it.
func (m Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.clearFilter()
		return m, nil
	case "enter", "down":
		m.filter.Blur()
		m.updateLayout()
		return m, nil
	case "ctrl+c":
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.view().SetQuery(m.filter.Value())
	m.refresh()
	return m, cmd
}

func (m *Model) clearFilter() {
	m.filter.SetValue("")
	m.filter.Blur()
	m.view().SetQuery("")
	m.updateLayout()
	m.refresh()
}

// showFilterBar reports whether the search line is drawn
func (m Model) showFilterBar() bool {
	return m.filter.Focused() || m.view().Query() != ""
}
