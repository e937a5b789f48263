// Package prefs persists UI preferences in ~/.config/shelf/prefs.toml.
package prefs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/mmcdole/shelf/internal/domain"
)

// Views the TUI can open on
const (
	ViewDashboard = "dashboard"
	ViewList      = "list"
)

// Prefs holds user preferences
type Prefs struct {
	View         string `toml:"view"`
	StatusFilter string `toml:"status_filter"`
	Email        string `toml:"email,omitempty"` // last login email, prefilled on the login screen
}

const defaultPrefsPath = "~/.config/shelf/prefs.toml"

// Defaults returns the preferences used when nothing is stored
func Defaults(view string) Prefs {
	if view != ViewList {
		view = ViewDashboard
	}
	return Prefs{View: view, StatusFilter: domain.StatusAny.String()}
}

// DefaultPath returns the default preferences file path
func DefaultPath() string {
	return defaultPrefsPath
}

// Filter returns the stored status filter
func (p Prefs) Filter() domain.StatusFilter {
	f, _ := domain.ParseStatusFilter(p.StatusFilter)
	return f
}

// Load reads preferences from path. Any problem reading or parsing the
// file yields defaults built from defaultView.
func Load(path, defaultView string) Prefs {
	def := Defaults(defaultView)

	resolved, err := resolvePath(path)
	if err != nil {
		return def
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return def
	}

	p := def
	if err := toml.Unmarshal(data, &p); err != nil {
		return def
	}

	switch strings.TrimSpace(p.View) {
	case ViewDashboard, ViewList:
	default:
		p.View = def.View
	}
	if _, ok := domain.ParseStatusFilter(p.StatusFilter); !ok {
		p.StatusFilter = def.StatusFilter
	}
	return p
}

// Save writes preferences to path, creating directories as needed
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	data, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}
	if err := os.WriteFile(resolved, data, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultPrefsPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
