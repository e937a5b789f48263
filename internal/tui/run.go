// Package tui implements the interactive terminal interface.
package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/shelf/internal/cli"
	"github.com/mmcdole/shelf/internal/prefs"
)

// Run starts the TUI and blocks until the user quits
func Run(app *cli.App, opts *cli.RootOptions) error {
	path := prefs.DefaultPath()
	model := NewModel(app, Options{
		Prefs:     prefs.Load(path, app.Config.UI.DefaultView),
		PrefsPath: path,
		Version:   opts.Version,
	})
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen())

	app.Logger.Info("starting TUI", "autologin", app.Session.AutoLogin())
	if _, err := p.Run(); err != nil {
		app.Logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}
	app.Logger.Info("shutting down")
	return nil
}
