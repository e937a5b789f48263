package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/shelf/internal/catalog"
	"github.com/mmcdole/shelf/internal/domain"
	"github.com/mmcdole/shelf/internal/prefs"
	"github.com/mmcdole/shelf/internal/tui/components"
	"github.com/mmcdole/shelf/internal/tui/styles"
)

// View renders the current screen
func (m Model) View() string {
	if !m.Ready {
		return "Loading..."
	}
	if m.Screen == ScreenLogin {
		return m.Login.View(m.Width, m.Height, m.SpinnerFrame)
	}

	l := m.calculateLayout()
	var body string
	switch m.Screen {
	case ScreenForm:
		body = lipgloss.Place(m.Width, l.height, lipgloss.Center, lipgloss.Center, m.renderForm())
	case ScreenConfirmDelete:
		body = lipgloss.Place(m.Width, l.height, lipgloss.Center, lipgloss.Center, m.renderConfirm())
	case ScreenHelp:
		body = lipgloss.Place(m.Width, l.height, lipgloss.Center, lipgloss.Center, renderHelp())
	default:
		body = m.List.View()
		if l.inspectorWidth > 0 {
			body = lipgloss.JoinHorizontal(lipgloss.Top, body, m.Inspector.View())
		}
	}

	rows := []string{m.renderHeader(), body}
	if m.showFilterBar() && m.Screen == ScreenBrowse {
		rows = append(rows, m.renderFilterBar())
	}
	rows = append(rows, m.renderStatusBar())
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m Model) renderHeader() string {
	tab := func(name, label string) string {
		if m.active == name {
			return styles.ActiveTabStyle.Render(label)
		}
		return styles.InactiveTabStyle.Render(label)
	}
	left := styles.TitleStyle.Render("shelf ")
	if m.version != "" {
		left += styles.DimStyle.Render(m.version + " ")
	}
	left += tab(prefs.ViewDashboard, "Dashboard") + " " + tab(prefs.ViewList, "List")

	var right []string
	if m.active == prefs.ViewDashboard && m.view().Status() == domain.StatusOnShelf {
		right = append(right, styles.BadgeStyle.Render("on shelf"))
	}
	if u, ok := m.app.Session.CurrentUser(); ok {
		right = append(right, styles.SubtitleStyle.Render(displayName(u))+styles.DimStyle.Render(" ("+m.app.Session.Role()+")"))
	}
	r := strings.Join(right, " ")

	gap := m.Width - lipgloss.Width(left) - lipgloss.Width(r)
	if gap < 1 {
		return left
	}
	return left + strings.Repeat(" ", gap) + r
}

func (m Model) renderFilterBar() string {
	input := m.filter.View()
	if !m.filter.Focused() {
		input = styles.FilterPromptStyle.Render("/ ") + styles.FilterStyle.Render(m.view().Query())
	}
	scope := "titles"
	if m.view().Match() == domain.MatchTitleOrAuthor {
		scope = "titles and authors"
	}
	return input + styles.DimStyle.Render(fmt.Sprintf("  [%d/%d %s]", m.List.Len(), len(m.snap.Books), scope))
}

func (m Model) renderStatusBar() string {
	var left string
	switch {
	case m.snap.Uploading:
		left = styles.SpinnerStyle.Render(components.SpinnerFrames[m.SpinnerFrame%len(components.SpinnerFrames)]) +
			styles.DimStyle.Render(" Uploading cover...")
	case m.snap.State == catalog.StateMutating || m.formBusy:
		left = styles.SpinnerStyle.Render(components.SpinnerFrames[m.SpinnerFrame%len(components.SpinnerFrames)]) +
			styles.DimStyle.Render(" Saving...")
	case m.StatusMsg != "" && m.StatusIsErr:
		left = styles.ErrorStyle.Render(m.StatusMsg)
	case m.StatusMsg != "":
		left = styles.SuccessStyle.Render(m.StatusMsg)
	default:
		left = styles.DimStyle.Render("? help · / search · tab switch view · a add · q quit")
	}

	var right string
	if n := len(m.snap.Pending); n > 0 {
		right = styles.ErrorBadgeStyle.Render(fmt.Sprintf("%d pending", n))
	}

	gap := m.Width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return styles.Truncate(left, m.Width)
	}
	return left + strings.Repeat(" ", gap) + right
}

func (m Model) renderForm() string {
	return m.BookForm.View() + "\n" +
		styles.DimStyle.Render("tab/enter next · ctrl+s save · esc cancel")
}

func (m Model) renderConfirm() string {
	title := styles.Truncate(strings.TrimSpace(m.confirmTitle), 40)
	content := lipgloss.JoinVertical(lipgloss.Left,
		styles.ModalTitleStyle.Render("Delete book?"),
		styles.SubtitleStyle.Render(fmt.Sprintf("#%s %s", m.confirmID, title)),
		"",
		styles.HelpKeyStyle.Render("y")+styles.HelpDescStyle.Render(" delete   ")+
			styles.HelpKeyStyle.Render("n")+styles.HelpDescStyle.Render(" cancel"),
	)
	return styles.ModalStyle.Render(content)
}

func renderHelp() string {
	var cols []string
	for _, group := range helpGroups() {
		var lines []string
		for _, b := range group {
			h := b.Help()
			lines = append(lines, styles.HelpKeyStyle.Render(styles.Pad(h.Key, 6))+" "+styles.HelpDescStyle.Render(h.Desc))
		}
		cols = append(cols, lipgloss.NewStyle().MarginRight(3).Render(strings.Join(lines, "\n")))
	}
	content := lipgloss.JoinVertical(lipgloss.Left,
		styles.ModalTitleStyle.Render("Keys"),
		lipgloss.JoinHorizontal(lipgloss.Top, cols...),
	)
	return styles.ModalStyle.Render(content)
}
