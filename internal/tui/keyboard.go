package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/shelf/internal/catalog"
	"github.com/mmcdole/shelf/internal/domain"
	"github.com/mmcdole/shelf/internal/prefs"
	"github.com/mmcdole/shelf/internal/tui/components"
)

// handleKeyMsg routes keyboard input by screen
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.Screen {
	case ScreenLogin:
		return m.handleLoginKey(msg)

	case ScreenHelp:
		if key.Matches(msg, Keys.Escape, Keys.Help, Keys.Quit) {
			m.Screen = ScreenBrowse
		}
		return m, nil

	case ScreenConfirmDelete:
		switch {
		case key.Matches(msg, Keys.Confirm):
			id := m.confirmID
			m.Screen = ScreenBrowse
			m.confirmID, m.confirmTitle = "", ""
			return m, DeleteBookCmd(m.app.Catalog, id)
		case key.Matches(msg, Keys.Deny):
			m.Screen = ScreenBrowse
			m.confirmID, m.confirmTitle = "", ""
		}
		return m, nil

	case ScreenForm:
		return m.handleFormKey(msg)
	}

	if m.filter.Focused() {
		return m.handleFilterKey(msg)
	}

	switch {
	case key.Matches(msg, Keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, Keys.Help):
		m.Screen = ScreenHelp
		return m, nil

	case key.Matches(msg, Keys.Escape):
		if m.view().Query() != "" {
			m.clearFilter()
		}
		return m, nil

	case key.Matches(msg, Keys.Filter):
		m.filter.SetValue(m.view().Query())
		m.filter.CursorEnd()
		m.updateLayout()
		return m, m.filter.Focus()

	case key.Matches(msg, Keys.SwitchView):
		m.switchView()
		return m, nil

	case key.Matches(msg, Keys.ToggleStatus):
		return m, m.toggleStatus()

	case key.Matches(msg, Keys.Refresh):
		m.List.SetLoading(true)
		return m, LoadCatalogCmd(m.app.Catalog)

	case key.Matches(msg, Keys.Add, Keys.Edit, Keys.Delete) && !m.loaded():
		return m, m.setStatus(domain.Message(domain.ErrCatalogNotLoaded), true)

	case key.Matches(msg, Keys.Add):
		return m, m.openForm(nil)

	case key.Matches(msg, Keys.Edit):
		if b, ok := m.List.Selected(); ok {
			return m, m.openForm(&b)
		}
		return m, nil

	case key.Matches(msg, Keys.Delete):
		if b, ok := m.List.Selected(); ok {
			m.confirmID = b.ID
			m.confirmTitle = b.Title
			m.Screen = ScreenConfirmDelete
		}
		return m, nil

	case key.Matches(msg, Keys.RetryPending):
		if len(m.snap.Pending) == 0 {
			return m, m.setStatus("No pending deletes", false)
		}
		return m, RetryPendingCmd(m.app.Catalog)

	case key.Matches(msg, Keys.Logout):
		return m, LogoutCmd(m.app)
	}

	var cmd tea.Cmd
	m.List, cmd = m.List.Update(msg)
	m.syncInspector()
	return m, cmd
}

func (m Model) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var action components.AuthAction
	m.Login, cmd, action = m.Login.Update(msg)

	switch action {
	case components.AuthQuit:
		return m, tea.Quit
	case components.AuthLogin:
		email, password := m.Login.Credentials()
		m.Login.SetBusy(true)
		m.Login.SetMessage("", false)
		return m, LoginCmd(m.app.Session, email, password, m.Login.Remember())
	case components.AuthRegister:
		m.Login.SetBusy(true)
		m.Login.SetMessage("", false)
		return m, RegisterCmd(m.app.Session, m.Login.Registration())
	}
	return m, cmd
}

func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.formBusy {
		return m, nil
	}

	var cmd tea.Cmd
	var res components.FormResult
	m.BookForm, cmd, res = m.BookForm.Update(msg)

	switch res {
	case components.FormCancelled:
		m.Screen = ScreenBrowse
		m.editingID = ""
		return m, nil
	case components.FormSubmitted:
		return m.submitForm()
	}
	return m, cmd
}

func (m Model) submitForm() (tea.Model, tea.Cmd) {
	fields, cover, errs := readBookForm(m.BookForm, m.editingID == "")
	if len(errs) > 0 {
		return m, m.BookForm.SetErrors(errs)
	}

	m.formBusy = true
	if m.editingID == "" {
		return m, CreateBookCmd(m.app.Catalog, fields, cover)
	}
	return m, UpdateBookCmd(m.app.Catalog, m.editingID, fields)
}

// openForm shows the book form, prefilled from b when editing
func (m *Model) openForm(b *domain.Book) tea.Cmd {
	m.Screen = ScreenForm
	m.formBusy = false
	if b == nil {
		m.editingID = ""
		return m.BookForm.Show("Add book", bookFormValues(nil))
	}

	// Edit the per-record row so group sums are not written back
	record := *b
	for _, r := range m.snap.Raw {
		if r.ID == b.ID {
			record = r
			break
		}
	}
	m.editingID = record.ID
	return m.BookForm.Show("Edit book #"+record.ID, bookFormValues(&record))
}

func (m *Model) switchView() {
	if m.active == prefs.ViewDashboard {
		m.active = prefs.ViewList
	} else {
		m.active = prefs.ViewDashboard
	}
	m.prefs.View = m.active
	m.savePrefs()
	m.filter.SetValue(m.view().Query())
	m.refresh()
}

func (m *Model) toggleStatus() tea.Cmd {
	if m.active != prefs.ViewDashboard {
		return m.setStatus("The on-shelf filter is part of the dashboard (tab)", false)
	}
	view := m.view()
	next := domain.StatusOnShelf
	if view.Status() == domain.StatusOnShelf {
		next = domain.StatusAny
	}
	view.SetStatus(next)
	m.prefs.StatusFilter = next.String()
	m.savePrefs()
	m.refresh()

	if next == domain.StatusOnShelf {
		return m.setStatus("Showing books on shelf", false)
	}
	return m.setStatus("Showing all books", false)
}

// loaded reports whether writes can be attempted
func (m Model) loaded() bool {
	return m.snap.Loaded() || m.snap.State == catalog.StateMutating
}
