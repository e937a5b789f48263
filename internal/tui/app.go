package tui

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/shelf/internal/catalog"
	"github.com/mmcdole/shelf/internal/cli"
	"github.com/mmcdole/shelf/internal/domain"
	"github.com/mmcdole/shelf/internal/prefs"
	"github.com/mmcdole/shelf/internal/tui/components"
	"github.com/mmcdole/shelf/internal/tui/styles"
)

// Screen is what currently owns the keyboard
type Screen int

const (
	ScreenLogin Screen = iota
	ScreenBrowse
	ScreenForm
	ScreenConfirmDelete
	ScreenHelp
)

const (
	tickInterval   = 100 * time.Millisecond
	statusDuration = 4 * time.Second
)

// Options configures a Model
type Options struct {
	Prefs     prefs.Prefs
	PrefsPath string
	Version   string
}

// Model is the main Bubble Tea model for the application
type Model struct {
	Screen Screen
	Ready  bool

	app    *cli.App
	logger *slog.Logger

	prefs     prefs.Prefs
	prefsPath string
	version   string

	// One catalog.View per surface, keyed by prefs.View* names
	views  map[string]*catalog.View
	active string

	// UI components
	List      *components.BookList
	Inspector components.Inspector
	Login     components.LoginScreen
	BookForm  components.Form
	filter    textinput.Model

	// editingID is the record under edit; empty while adding
	editingID string
	formBusy  bool

	confirmID    string
	confirmTitle string

	// Latest catalog state
	snap catalog.Snapshot

	// Dimensions
	Width  int
	Height int

	// Status bar
	StatusMsg    string
	StatusIsErr  bool
	statusSeq    int
	SpinnerFrame int

	initCmd tea.Cmd

	events      <-chan catalog.Event
	stopEvents  func()
	sessionCh   <-chan *domain.User
	stopSession func()
}

// NewModel creates the application model and subscribes it to catalog
// and session changes. Call Close when the program exits.
func NewModel(app *cli.App, opts Options) Model {
	dashboard := app.Catalog.NewView(domain.MatchTitleOrAuthor)
	dashboard.SetStatus(opts.Prefs.Filter())
	list := app.Catalog.NewView(domain.MatchTitle)

	active := opts.Prefs.View
	if active != prefs.ViewList {
		active = prefs.ViewDashboard
	}

	fi := textinput.New()
	fi.Placeholder = "type to search..."
	fi.Prompt = "/ "
	fi.PromptStyle = styles.FilterPromptStyle
	fi.TextStyle = styles.FilterStyle

	events, stopEvents := app.Catalog.Subscribe()
	sessionCh, stopSession := app.Session.Subscribe()

	m := Model{
		Screen:      ScreenLogin,
		app:         app,
		logger:      app.Logger,
		prefs:       opts.Prefs,
		prefsPath:   opts.PrefsPath,
		version:     opts.Version,
		views:       map[string]*catalog.View{prefs.ViewDashboard: dashboard, prefs.ViewList: list},
		active:      active,
		List:        components.NewBookList(""),
		Inspector:   components.NewInspector(),
		Login:       components.NewLoginScreen(app.Client.Host()),
		BookForm:    newBookForm(),
		filter:      fi,
		events:      events,
		stopEvents:  stopEvents,
		sessionCh:   sessionCh,
		stopSession: stopSession,
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	if app.Session.AutoLogin() {
		m.Screen = ScreenBrowse
		m.List.SetLoading(true)
	} else {
		m.initCmd = m.Login.Show(opts.Prefs.Email)
	}
	m.refresh()
	return m
}

// Close stops the subscriptions
func (m Model) Close() {
	m.stopEvents()
	m.stopSession()
}

// Init starts listeners and either loads the catalog or shows the login form
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		listenCatalogCmd(m.events),
		listenSessionCmd(m.sessionCh),
		TickCmd(tickInterval),
	}
	if m.Screen == ScreenBrowse {
		cmds = append(cmds, LoadCatalogCmd(m.app.Catalog))
	} else {
		cmds = append(cmds, m.initCmd)
	}
	return tea.Batch(cmds...)
}

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Ready = true
		m.updateLayout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case TickMsg:
		m.SpinnerFrame++
		m.List.SetSpinnerFrame(m.SpinnerFrame)
		return m, TickCmd(tickInterval)

	case CatalogEventMsg:
		cmd := m.handleCatalogEvent(msg.Event)
		return m, tea.Batch(cmd, listenCatalogCmd(m.events))

	case catalogClosedMsg, sessionClosedMsg:
		return m, nil

	case SessionChangedMsg:
		var cmd tea.Cmd
		if msg.User == nil && m.Screen != ScreenLogin {
			cmd = m.showLogin("")
		}
		return m, tea.Batch(cmd, listenSessionCmd(m.sessionCh))

	case LoginResultMsg:
		return m.handleLoginResult(msg)

	case RegisterResultMsg:
		m.Login.SetBusy(false)
		if msg.Err != nil {
			return m, m.authError(msg.Err)
		}
		cmd := m.Login.SwitchToLogin(msg.Email)
		m.Login.SetMessage(msg.Message, false)
		return m, cmd

	case MutationDoneMsg:
		return m.handleMutationDone(msg)

	case PendingRetriedMsg:
		m.refresh()
		if msg.Err != nil {
			return m, m.setStatus(fmt.Sprintf("%d cleared, still rejected: %s", msg.Cleared, cli.ErrorMessage(msg.Err)), true)
		}
		return m, m.setStatus(fmt.Sprintf("%d pending delete(s) cleared", msg.Cleared), false)

	case LoggedOutMsg:
		if msg.Err != nil {
			m.logger.Error("logout failed", "error", msg.Err)
		}
		return m, m.showLogin("Logged out.")

	case ClearStatusMsg:
		if msg.Seq == m.statusSeq {
			m.StatusMsg = ""
			m.StatusIsErr = false
		}
		return m, nil
	}

	return m, nil
}

func (m *Model) handleCatalogEvent(ev catalog.Event) tea.Cmd {
	m.logger.Debug("catalog event", "kind", ev.Kind, "id", ev.ID, "version", ev.Version)
	m.refresh()

	switch ev.Kind {
	case catalog.EventLoadFailed, catalog.EventMutateFailed:
		return m.setStatus(ev.Message, true)
	case catalog.EventDiverged:
		return m.setStatus(ev.Message+" (removed here, kept as pending)", true)
	case catalog.EventDeleted:
		return m.setStatus(ev.Message, false)
	case catalog.EventLoaded:
		if n := len(m.snap.Divergent); n > 0 {
			return m.setStatus(fmt.Sprintf("%d deleted book(s) are still on the server, press p to retry", n), true)
		}
	case catalog.EventChanged:
		if ev.Message != "" && m.snap.State != catalog.StateLoadFailed {
			return m.setStatus(ev.Message, false)
		}
	}
	return nil
}

func (m Model) handleLoginResult(msg LoginResultMsg) (tea.Model, tea.Cmd) {
	m.Login.SetBusy(false)
	if msg.Err != nil {
		return m, m.authError(msg.Err)
	}

	m.prefs.Email = msg.User.Email
	m.savePrefs()

	m.Screen = ScreenBrowse
	m.Login.SetMessage("", false)
	m.List.SetLoading(true)
	m.updateLayout()
	return m, tea.Batch(
		LoadCatalogCmd(m.app.Catalog),
		m.setStatus("Welcome, "+displayName(msg.User), false),
	)
}

func (m *Model) authError(err error) tea.Cmd {
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		m.Login.SetMessage(cli.ErrorMessage(err), true)
		return m.Login.ShowFieldErrors(vErr.Fields)
	}
	m.Login.SetMessage(cli.ErrorMessage(err), true)
	return nil
}

func (m Model) handleMutationDone(msg MutationDoneMsg) (tea.Model, tea.Cmd) {
	m.refresh()

	if errors.Is(msg.Err, domain.ErrAuthRequired) {
		return m, m.showLogin("Please log in to continue.")
	}

	switch msg.Op {
	case "create", "update":
		m.formBusy = false
		var vErr *domain.ValidationError
		if errors.As(msg.Err, &vErr) {
			return m, m.BookForm.SetErrors(fieldErrors(vErr.Fields))
		}
		if msg.Err != nil {
			// keep the form so the user can resubmit
			return m, m.setStatus(cli.ErrorMessage(msg.Err), true)
		}
		m.BookForm.Hide()
		m.Screen = ScreenBrowse
		if m.snap.State == catalog.StateLoadFailed {
			return m, m.setStatus("Saved, but reloading failed: "+m.snap.Message, true)
		}
		return m, m.setStatus(m.snap.Message, false)

	case "delete":
		if msg.Err != nil && domain.IsNotFound(msg.Err) {
			return m, m.setStatus(cli.ErrorMessage(msg.Err), true)
		}
		return m, nil
	}

	if msg.Err != nil {
		return m, m.setStatus(cli.ErrorMessage(msg.Err), true)
	}
	return m, nil
}

// refresh pulls the active view's books from the latest snapshot
func (m *Model) refresh() {
	view := m.view()
	books, snap := view.BooksAt()
	m.snap = snap

	if m.List.IsLoading() && snap.State != catalog.StateLoading && snap.State != catalog.StateIdle {
		m.List.SetLoading(false)
	}
	m.List.SetTitle(m.listTitle(len(books), len(snap.Books)))
	m.List.SetHighlight(view.Query(), view.Match() == domain.MatchTitleOrAuthor)
	m.List.SetDivergent(snap.Divergent)
	if snap.State == catalog.StateLoadFailed {
		m.List.SetEmptyText("Could not load the catalog, press r to retry")
	} else if view.Query() != "" {
		m.List.SetEmptyText("No matches for " + fmt.Sprintf("%q", view.Query()))
	} else {
		m.List.SetEmptyText("No books found")
	}
	m.List.SetBooks(books)
	m.syncInspector()
}

func (m *Model) syncInspector() {
	b, ok := m.List.Selected()
	if !ok {
		m.Inspector.SetBook(nil, nil, "")
		m.Inspector.SetDivergent(false)
		return
	}
	m.Inspector.SetBook(&b, catalog.CopiesOf(m.snap.Raw, b), m.app.Images.Resolve(b.CoverImage))
	divergent := false
	for _, id := range m.snap.Divergent {
		if id == b.ID {
			divergent = true
		}
	}
	m.Inspector.SetDivergent(divergent)
}

func (m *Model) view() *catalog.View {
	return m.views[m.active]
}

func (m *Model) listTitle(shown, total int) string {
	name := "Dashboard"
	if m.active == prefs.ViewList {
		name = "All books"
	}
	if shown != total {
		return fmt.Sprintf("%s (%d of %d)", name, shown, total)
	}
	return fmt.Sprintf("%s (%d)", name, total)
}

// setStatus shows msg in the status bar and schedules its removal
func (m *Model) setStatus(msg string, isErr bool) tea.Cmd {
	if msg == "" {
		return nil
	}
	m.statusSeq++
	m.StatusMsg = msg
	m.StatusIsErr = isErr
	return ClearStatusCmd(statusDuration, m.statusSeq)
}

func (m *Model) showLogin(message string) tea.Cmd {
	m.Screen = ScreenLogin
	m.BookForm.Hide()
	m.filter.Blur()
	cmd := m.Login.Show(m.prefs.Email)
	m.Login.SetMessage(message, false)
	return cmd
}

func (m *Model) savePrefs() {
	if err := prefs.Save(m.prefsPath, m.prefs); err != nil {
		m.logger.Warn("failed to save preferences", "error", err)
	}
}

func displayName(u domain.User) string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
