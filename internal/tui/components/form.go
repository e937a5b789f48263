package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/shelf/internal/tui/styles"
)

// FieldSpec describes one input of a Form
type FieldSpec struct {
	Key         string // matches domain.FieldError.Field
	Label       string
	Placeholder string
	Secret      bool
	CharLimit   int
}

// FormResult is what a Form reports after handling a key
type FormResult int

const (
	FormEditing FormResult = iota
	FormSubmitted
	FormCancelled
)

// Form is a modal with a column of labeled text inputs.
// Tab, arrow keys and enter move between fields. Enter on the last field
// or ctrl+s submits, esc cancels.
type Form struct {
	visible bool
	title   string
	specs   []FieldSpec
	inputs  []textinput.Model
	focus   int
	errors  map[string]string
	footer  string
	width   int
}

// NewForm creates a hidden form with the given fields
func NewForm(title string, specs []FieldSpec) Form {
	inputs := make([]textinput.Model, len(specs))
	for i, spec := range specs {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = spec.Placeholder
		ti.CharLimit = spec.CharLimit
		if ti.CharLimit == 0 {
			ti.CharLimit = 200
		}
		ti.Width = 36
		ti.TextStyle = lipgloss.NewStyle().Foreground(styles.White)
		ti.PlaceholderStyle = styles.DimStyle
		if spec.Secret {
			ti.EchoMode = textinput.EchoPassword
			ti.EchoCharacter = '•'
		}
		inputs[i] = ti
	}
	return Form{title: title, specs: specs, inputs: inputs, errors: map[string]string{}, width: 60}
}

// Show displays the form with values keyed by field, focusing the first
// empty field.
func (f *Form) Show(title string, values map[string]string) tea.Cmd {
	f.visible = true
	if title != "" {
		f.title = title
	}
	f.errors = map[string]string{}
	f.focus = -1
	for i, spec := range f.specs {
		f.inputs[i].SetValue(values[spec.Key])
		f.inputs[i].Blur()
		if f.focus < 0 && values[spec.Key] == "" {
			f.focus = i
		}
	}
	if f.focus < 0 {
		f.focus = 0
	}
	return f.inputs[f.focus].Focus()
}

// Hide dismisses the form
func (f *Form) Hide() {
	f.visible = false
	for i := range f.inputs {
		f.inputs[i].Blur()
	}
}

// IsVisible returns whether the form is shown
func (f Form) IsVisible() bool { return f.visible }

// Title returns the form title
func (f Form) Title() string { return f.title }

// SetFooter sets a line rendered under the fields
func (f *Form) SetFooter(s string) { f.footer = s }

// Value returns the trimmed value of a field
func (f Form) Value(key string) string {
	for i, spec := range f.specs {
		if spec.Key == key {
			v := f.inputs[i].Value()
			if spec.Secret {
				return v
			}
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// SetValue replaces the value of a field
func (f *Form) SetValue(key, value string) {
	for i, spec := range f.specs {
		if spec.Key == key {
			f.inputs[i].SetValue(value)
		}
	}
}

// Focused returns the key of the focused field
func (f Form) Focused() string {
	if f.focus < 0 || f.focus >= len(f.specs) {
		return ""
	}
	return f.specs[f.focus].Key
}

// SetErrors shows messages next to fields. Unknown keys are ignored.
func (f *Form) SetErrors(errs map[string]string) tea.Cmd {
	f.errors = errs
	for i, spec := range f.specs {
		if _, ok := errs[spec.Key]; ok {
			return f.focusField(i)
		}
	}
	return nil
}

// Update handles key events
func (f Form) Update(msg tea.Msg) (Form, tea.Cmd, FormResult) {
	if !f.visible {
		return f, nil, FormEditing
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			f.Hide()
			return f, nil, FormCancelled
		case "enter":
			if f.focus < len(f.inputs)-1 {
				return f, f.focusField(f.focus + 1), FormEditing
			}
			return f, nil, FormSubmitted
		case "ctrl+s":
			return f, nil, FormSubmitted
		case "tab", "down":
			return f, f.focusField((f.focus + 1) % len(f.inputs)), FormEditing
		case "shift+tab", "up":
			return f, f.focusField((f.focus - 1 + len(f.inputs)) % len(f.inputs)), FormEditing
		}
	}

	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	delete(f.errors, f.specs[f.focus].Key)
	return f, cmd, FormEditing
}

func (f *Form) focusField(i int) tea.Cmd {
	f.inputs[f.focus].Blur()
	f.focus = i
	return f.inputs[i].Focus()
}

// View renders the form
func (f Form) View() string {
	if !f.visible {
		return ""
	}

	rows := []string{styles.ModalTitleStyle.Render(f.title)}
	for i, spec := range f.specs {
		label := styles.LabelStyle.Render(spec.Label)
		if i == f.focus {
			label = styles.FocusedLabelStyle.Render(spec.Label)
		}
		rows = append(rows, label+f.inputs[i].View())
		if msg, ok := f.errors[spec.Key]; ok {
			rows = append(rows, styles.LabelStyle.Render("")+styles.ErrorStyle.Render(msg))
		}
	}
	if f.footer != "" {
		rows = append(rows, "", f.footer)
	}

	return styles.ModalStyle.Width(f.width).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
