package tui

// Layout proportions
const (
	ListPercent      = 60
	MinInspectorSide = 90 // below this width the inspector is hidden
	MinListWidth     = 30

	// header + status bar
	ChromeHeight = 2
)

type panelLayout struct {
	listWidth      int
	inspectorWidth int
	height         int
}

func (m Model) calculateLayout() panelLayout {
	height := m.Height - ChromeHeight
	if m.showFilterBar() {
		height--
	}
	height = max(height, 5)

	if m.Width < MinInspectorSide {
		return panelLayout{listWidth: max(m.Width, MinListWidth), height: height}
	}
	list := m.Width * ListPercent / 100
	return panelLayout{listWidth: list, inspectorWidth: m.Width - list, height: height}
}

// updateLayout resizes components to the terminal
func (m *Model) updateLayout() {
	if !m.Ready {
		return
	}
	l := m.calculateLayout()
	m.List.SetSize(l.listWidth, l.height)
	m.Inspector.SetSize(l.inspectorWidth, l.height)
	m.filter.Width = max(m.Width-20, 10)
}
