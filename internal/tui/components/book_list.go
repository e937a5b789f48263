package components

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/shelf/internal/domain"
	"github.com/mmcdole/shelf/internal/search"
	"github.com/mmcdole/shelf/internal/tui/styles"
)

// SpinnerFrames is the braille animation used while loading
var SpinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Layout constants for the list panel
const (
	// Border adds 1 char on each side
	BorderWidth  = 2
	BorderHeight = 2

	// "↑ more" and "↓ more" each take 1 line
	ScrollIndicatorLines = 2
)

// BookList is a scrollable list of catalog entries
type BookList struct {
	books []domain.Book

	// Selection
	cursor     int
	offset     int
	maxVisible int

	// Dimensions
	width   int
	height  int
	focused bool

	title string

	loading      bool
	spinnerFrame int
	emptyText    string

	// Query hits are highlighted in titles, and in authors when
	// highlightAuthor is set
	query           string
	highlightAuthor bool

	divergent map[string]bool
}

// NewBookList creates an empty list with the given header
func NewBookList(title string) *BookList {
	return &BookList{title: title, emptyText: "No books found", focused: true}
}

// Update handles cursor movement keys
func (l *BookList) Update(msg tea.Msg) (*BookList, tea.Cmd) {
	count := len(l.books)
	if count == 0 {
		return l, nil
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return l, nil
	}
	switch keyMsg.String() {
	case "j", "down":
		if l.cursor < count-1 {
			l.cursor++
			l.ensureVisible()
		}
	case "k", "up":
		if l.cursor > 0 {
			l.cursor--
			l.ensureVisible()
		}
	case "g", "home":
		l.cursor = 0
		l.offset = 0
	case "G", "end":
		l.cursor = count - 1
		l.ensureVisible()
	case "ctrl+d", "pgdown":
		l.cursor += max(l.maxVisible/2, 1)
		if l.cursor >= count {
			l.cursor = count - 1
		}
		l.ensureVisible()
	case "ctrl+u", "pgup":
		l.cursor -= max(l.maxVisible/2, 1)
		if l.cursor < 0 {
			l.cursor = 0
		}
		l.ensureVisible()
	}
	return l, nil
}

// View renders the bordered list
func (l *BookList) View() string {
	style := styles.InactiveBorder
	if l.focused {
		style = styles.ActiveBorder
	}
	frameW, frameH := style.GetFrameSize()
	return style.
		Width(max(l.width-frameW, 0)).
		Height(max(l.height-frameH, 0)).
		Render(l.renderContent())
}

// SetSize sets the outer size including the border
func (l *BookList) SetSize(width, height int) {
	l.width = width
	l.height = height
	l.recalcMaxVisible()
	l.ensureVisible()
}

// SetFocused sets whether the list draws as focused
func (l *BookList) SetFocused(focused bool) { l.focused = focused }

// SetTitle sets the header line
func (l *BookList) SetTitle(title string) { l.title = title }

// SetEmptyText sets what is shown when there are no books
func (l *BookList) SetEmptyText(text string) { l.emptyText = text }

// SetLoading toggles the loading placeholder
func (l *BookList) SetLoading(loading bool) { l.loading = loading }

// IsLoading reports whether the loading placeholder is shown
func (l *BookList) IsLoading() bool { return l.loading }

// SetSpinnerFrame advances the loading animation
func (l *BookList) SetSpinnerFrame(frame int) { l.spinnerFrame = frame }

// SetHighlight sets the query whose matches are emphasized
func (l *BookList) SetHighlight(query string, authors bool) {
	l.query = query
	l.highlightAuthor = authors
}

// SetDivergent marks ids the server still reports after a local delete
func (l *BookList) SetDivergent(ids []string) {
	l.divergent = make(map[string]bool, len(ids))
	for _, id := range ids {
		l.divergent[id] = true
	}
}

// SetBooks replaces the list contents. The cursor stays on the same book
// when it is still present, otherwise it is clamped.
func (l *BookList) SetBooks(books []domain.Book) {
	selectedID := ""
	if b, ok := l.Selected(); ok {
		selectedID = b.ID
	}

	l.books = books
	l.cursor = min(l.cursor, max(len(books)-1, 0))
	if selectedID != "" {
		for i, b := range books {
			if b.ID == selectedID {
				l.cursor = i
				break
			}
		}
	}
	l.ensureVisible()
}

// Books returns the current contents
func (l *BookList) Books() []domain.Book { return l.books }

// Len returns the number of books shown
func (l *BookList) Len() int { return len(l.books) }

// Selected returns the book under the cursor
func (l *BookList) Selected() (domain.Book, bool) {
	if l.cursor < 0 || l.cursor >= len(l.books) {
		return domain.Book{}, false
	}
	return l.books[l.cursor], true
}

// SelectedIndex returns the cursor position
func (l *BookList) SelectedIndex() int { return l.cursor }

func (l *BookList) recalcMaxVisible() {
	// interior minus title line and scroll indicators
	l.maxVisible = l.height - BorderHeight - ScrollIndicatorLines - 1
	if l.maxVisible < 1 {
		l.maxVisible = 1
	}
}

func (l *BookList) ensureVisible() {
	if l.maxVisible <= 0 {
		return
	}
	if l.cursor < l.offset {
		l.offset = l.cursor
	}
	if l.cursor >= l.offset+l.maxVisible {
		l.offset = l.cursor - l.maxVisible + 1
	}
	if l.offset > 0 && l.offset > len(l.books)-l.maxVisible {
		l.offset = max(len(l.books)-l.maxVisible, 0)
	}
}

func (l *BookList) renderContent() string {
	itemWidth := max(l.width-BorderWidth, 10)

	titleLine := styles.AccentStyle.Render(styles.Truncate(l.title, itemWidth))

	if l.loading {
		spinner := SpinnerFrames[l.spinnerFrame%len(SpinnerFrames)]
		return titleLine + "\n \n" + styles.DimStyle.Render(spinner+" Loading catalog...") + "\n "
	}

	count := len(l.books)
	if count == 0 {
		return titleLine + "\n \n" + styles.DimStyle.Render(l.emptyText) + "\n "
	}

	end := min(l.offset+l.maxVisible, count)
	lines := make([]string, 0, end-l.offset)
	for i := l.offset; i < end; i++ {
		lines = append(lines, l.renderBook(l.books[i], i == l.cursor, itemWidth))
	}

	// Header and footer lines are always reserved to keep the layout still
	header := " "
	if l.offset > 0 {
		header = styles.DimStyle.Render("↑ more")
	}
	footer := " "
	if end < count {
		footer = styles.DimStyle.Render(fmt.Sprintf("↓ %d more", count-end))
	}

	return titleLine + "\n" + header + "\n" + strings.Join(lines, "\n") + "\n" + footer
}

func (l *BookList) renderBook(b domain.Book, selected bool, width int) string {
	marker, markerFg := styles.AvailableChar, styles.Green
	if b.Status != domain.StatusAvailable {
		marker, markerFg = styles.UnavailableChar, styles.Red
	}
	if l.divergent[b.ID] {
		marker, markerFg = styles.DivergentChar, styles.Amber
	}

	copies := fmt.Sprintf(" %d/%d", b.AvailableCopies, b.TotalCopies)
	dim := styles.DimGray

	// marker + space + title + " · " + author + copies, within width-2 margins
	room := width - 2 - lipgloss.Width(marker) - 1 - lipgloss.Width(copies)
	titleRoom := room
	author := ""
	if room > 24 && b.Author != "" {
		titleRoom = room * 3 / 5
		author = styles.Truncate(b.Author, room-titleRoom-3)
	}
	title := styles.Truncate(strings.TrimSpace(b.Title), titleRoom)

	parts := []styles.RowPart{
		{Text: marker, Foreground: &markerFg},
		{Text: " "},
	}
	parts = append(parts, highlightParts(title, l.query, nil)...)
	if author != "" {
		var authorQuery string
		if l.highlightAuthor {
			authorQuery = l.query
		}
		parts = append(parts, styles.RowPart{Text: " · ", Foreground: &dim})
		parts = append(parts, highlightParts(author, authorQuery, &dim)...)
	}

	used := 0
	for _, p := range parts {
		used += lipgloss.Width(p.Text)
	}
	if gap := width - 2 - used - lipgloss.Width(copies); gap > 0 {
		parts = append(parts, styles.RowPart{Text: strings.Repeat(" ", gap)})
	}
	parts = append(parts, styles.RowPart{Text: copies, Foreground: &dim})

	return styles.RenderListRow(parts, selected, width)
}

// highlightParts splits text into runs, emphasizing the query match
func highlightParts(text, query string, fg *lipgloss.Color) []styles.RowPart {
	hits := search.Highlight(text, query)
	if len(hits) == 0 {
		return []styles.RowPart{{Text: text, Foreground: fg}}
	}

	accent := styles.Amber
	hit := make(map[int]bool, len(hits))
	for _, h := range hits {
		hit[h] = true
	}

	var parts []styles.RowPart
	var run []rune
	inHit := false
	flush := func() {
		if len(run) == 0 {
			return
		}
		if inHit {
			parts = append(parts, styles.RowPart{Text: string(run), Foreground: &accent, Bold: true})
		} else {
			parts = append(parts, styles.RowPart{Text: string(run), Foreground: fg})
		}
		run = run[:0]
	}
	for i, r := range []rune(text) {
		if hit[i] != inHit {
			flush()
			inHit = hit[i]
		}
		run = append(run, r)
	}
	flush()
	return parts
}
