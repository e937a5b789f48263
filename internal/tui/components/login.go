package components

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/shelf/internal/domain"
	"github.com/mmcdole/shelf/internal/tui/styles"
)

// AuthMode selects which form the login screen shows
type AuthMode int

const (
	ModeLogin AuthMode = iota
	ModeRegister
)

// AuthAction is what the login screen asks the app to do
type AuthAction int

const (
	AuthNone AuthAction = iota
	AuthLogin
	AuthRegister
	AuthQuit
)

// LoginScreen holds the login and registration forms
type LoginScreen struct {
	mode     AuthMode
	login    Form
	register Form
	remember bool
	busy     bool
	message  string
	isError  bool
	server   string
}

// NewLoginScreen creates the screen for server
func NewLoginScreen(server string) LoginScreen {
	login := NewForm("Log in", []FieldSpec{
		{Key: "email", Label: "Email", Placeholder: "you@example.com"},
		{Key: "password", Label: "Password", Secret: true},
	})
	register := NewForm("Create account", []FieldSpec{
		{Key: "firstName", Label: "First name"},
		{Key: "lastName", Label: "Last name"},
		{Key: "email", Label: "Email", Placeholder: "you@example.com"},
		{Key: "password", Label: "Password", Secret: true},
		{Key: "confirmPassword", Label: "Confirm password", Secret: true},
	})
	return LoginScreen{login: login, register: register, server: server}
}

// Show opens the login form with email prefilled
func (s *LoginScreen) Show(email string) tea.Cmd {
	s.mode = ModeLogin
	s.busy = false
	return s.login.Show("", map[string]string{"email": email})
}

// Mode returns the visible form
func (s LoginScreen) Mode() AuthMode { return s.mode }

// Remember reports whether "remember me" is ticked
func (s LoginScreen) Remember() bool { return s.remember }

// SetBusy marks a request in flight
func (s *LoginScreen) SetBusy(busy bool) { s.busy = busy }

// SetMessage shows a line under the form
func (s *LoginScreen) SetMessage(msg string, isError bool) {
	s.message = msg
	s.isError = isError
}

// Credentials returns the login form contents
func (s LoginScreen) Credentials() (email, password string) {
	return s.login.Value("email"), s.login.Value("password")
}

// Registration returns the registration form contents
func (s LoginScreen) Registration() domain.Registration {
	return domain.Registration{
		FirstName:       s.register.Value("firstName"),
		LastName:        s.register.Value("lastName"),
		Email:           s.register.Value("email"),
		Password:        s.register.Value("password"),
		ConfirmPassword: s.register.Value("confirmPassword"),
	}
}

// ShowFieldErrors marks failed fields on the visible form
func (s *LoginScreen) ShowFieldErrors(fields []domain.FieldError) tea.Cmd {
	errs := make(map[string]string, len(fields))
	for _, f := range fields {
		if _, seen := errs[f.Field]; !seen {
			errs[f.Field] = f.Message
		}
	}
	if s.mode == ModeRegister {
		return s.register.SetErrors(errs)
	}
	return s.login.SetErrors(errs)
}

// SwitchToLogin returns to the login form, keeping email
func (s *LoginScreen) SwitchToLogin(email string) tea.Cmd {
	s.register.Hide()
	s.mode = ModeLogin
	return s.login.Show("", map[string]string{"email": email})
}

// Update handles keys and reports the requested action
func (s LoginScreen) Update(msg tea.Msg) (LoginScreen, tea.Cmd, AuthAction) {
	if s.busy {
		return s, nil, AuthNone
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "ctrl+c":
			return s, nil, AuthQuit
		case "ctrl+r":
			if s.mode == ModeLogin {
				s.remember = !s.remember
			}
			return s, nil, AuthNone
		case "ctrl+n":
			s.message = ""
			if s.mode == ModeLogin {
				s.mode = ModeRegister
				email, _ := s.Credentials()
				s.login.Hide()
				return s, s.register.Show("", map[string]string{"email": email}), AuthNone
			}
			return s, s.SwitchToLogin(s.register.Value("email")), AuthNone
		}
	}

	var cmd tea.Cmd
	var res FormResult
	if s.mode == ModeRegister {
		s.register, cmd, res = s.register.Update(msg)
		switch res {
		case FormSubmitted:
			return s, cmd, AuthRegister
		case FormCancelled:
			return s, s.SwitchToLogin(s.register.Value("email")), AuthNone
		}
		return s, cmd, AuthNone
	}

	s.login, cmd, res = s.login.Update(msg)
	switch res {
	case FormSubmitted:
		return s, cmd, AuthLogin
	case FormCancelled:
		return s, nil, AuthQuit
	}
	return s, cmd, AuthNone
}

// View renders the screen centered in width x height
func (s LoginScreen) View(width, height, spinnerFrame int) string {
	header := styles.TitleStyle.Render("shelf") + styles.DimStyle.Render("  "+s.server)

	var form, hint string
	if s.mode == ModeRegister {
		form = s.register.View()
		hint = "enter next field · ctrl+s create · ctrl+n back to login · esc cancel"
	} else {
		box := "[ ]"
		if s.remember {
			box = "[x]"
		}
		s.login.SetFooter(styles.SubtitleStyle.Render(box + " Remember me (ctrl+r)"))
		form = s.login.View()
		hint = "enter log in · ctrl+n create account · esc quit"
	}

	status := " "
	switch {
	case s.busy:
		status = styles.SpinnerStyle.Render(SpinnerFrames[spinnerFrame%len(SpinnerFrames)]) + styles.DimStyle.Render(" Contacting server...")
	case s.message != "" && s.isError:
		status = styles.ErrorStyle.Render(s.message)
	case s.message != "":
		status = styles.SuccessStyle.Render(s.message)
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		header, "", form, "", status, styles.DimStyle.Render(hint))
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}
