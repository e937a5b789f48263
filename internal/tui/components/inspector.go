package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/shelf/internal/domain"
	"github.com/mmcdole/shelf/internal/tui/styles"
)

// Inspector shows the details of the selected book
type Inspector struct {
	book     *domain.Book
	copies   []domain.Book
	coverURL string
	pending  bool
	width    int
	height   int
}

// NewInspector creates an empty inspector
func NewInspector() Inspector {
	return Inspector{}
}

// SetBook sets the book to display along with its per-record copies.
// A nil book clears the panel.
func (i *Inspector) SetBook(book *domain.Book, copies []domain.Book, coverURL string) {
	i.book = book
	i.copies = copies
	i.coverURL = coverURL
}

// SetDivergent marks the book as deleted locally but still on the server
func (i *Inspector) SetDivergent(divergent bool) { i.pending = divergent }

// SetSize updates the outer dimensions
func (i *Inspector) SetSize(width, height int) {
	i.width = width
	i.height = height
}

// View renders the bordered panel
func (i Inspector) View() string {
	style := styles.InactiveBorder
	frameW, frameH := style.GetFrameSize()
	inner := max(i.width-frameW-2, 10)

	return style.
		Width(max(i.width-frameW, 0)).
		Height(max(i.height-frameH, 0)).
		Padding(0, 1).
		Render(i.render(inner))
}

func (i Inspector) render(width int) string {
	if i.book == nil {
		return styles.DimStyle.Render("Nothing selected")
	}
	b := *i.book

	var lines []string
	lines = append(lines, styles.TitleStyle.Render(styles.Truncate(strings.TrimSpace(b.Title), width)))
	lines = append(lines, styles.SubtitleStyle.Render(styles.Truncate(b.Author, width)))

	meta := []string{fmt.Sprint(b.PublishYear)}
	if b.Pages > 0 {
		meta = append(meta, fmt.Sprintf("%d pages", b.Pages))
	}
	lines = append(lines, styles.DimStyle.Render(strings.Join(meta, " · ")), "")

	status := styles.SuccessStyle.Render(styles.AvailableChar + " On shelf")
	if b.Status != domain.StatusAvailable {
		status = styles.ErrorStyle.Render(styles.UnavailableChar + " Unavailable")
	}
	lines = append(lines, status+styles.DimStyle.Render(fmt.Sprintf("  %d of %d copies", b.AvailableCopies, b.TotalCopies)))
	if i.pending {
		lines = append(lines, styles.AccentStyle.Render(styles.DivergentChar+" Deleted here, still on the server"))
	}

	lines = append(lines, "", field("ISBN", b.ISBN, width), field("ID", b.ID, width))
	if b.CreatedAt != "" {
		lines = append(lines, field("Added", b.CreatedAt, width))
	}
	lines = append(lines, field("Cover", i.coverURL, width))

	if len(i.copies) > 1 {
		lines = append(lines, "", styles.AccentStyle.Render(fmt.Sprintf("%d records for this title", len(i.copies))))
		for _, c := range i.copies {
			lines = append(lines, styles.DimStyle.Render(fmt.Sprintf("  #%s  %d/%d", c.ID, c.AvailableCopies, c.TotalCopies)))
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func field(label, value string, width int) string {
	const labelWidth = 7
	return styles.DimStyle.Render(styles.Pad(label, labelWidth)) +
		styles.SubtitleStyle.Render(styles.Truncate(value, width-labelWidth))
}
