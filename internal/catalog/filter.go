package catalog

import (
	"strings"

	"github.com/mmcdole/shelf/internal/domain"
)

// Filter returns the books matching query and status, in their original
// relative order. An empty or blank query matches everything. The input
// slice is never modified.
func Filter(books []domain.Book, query string, match domain.MatchMode, status domain.StatusFilter) []domain.Book {
	q := strings.ToLower(strings.TrimSpace(query))

	out := make([]domain.Book, 0, len(books))
	for _, b := range books {
		if q != "" && !matchesText(b, q, match) {
			continue
		}
		if status == domain.StatusOnShelf && !OnShelf(b) {
			continue
		}
		out = append(out, b)
	}
	return out
}

func matchesText(b domain.Book, q string, match domain.MatchMode) bool {
	if strings.Contains(strings.ToLower(b.Title), q) {
		return true
	}
	return match == domain.MatchTitleOrAuthor && strings.Contains(strings.ToLower(b.Author), q)
}

// OnShelf is the permissive "on shelf" predicate. A book passes when it has
// copies available, when its backend status reads as available or on shelf,
// or when the backend told us nothing about availability at all.
func OnShelf(b domain.Book) bool {
	if b.AvailableCopies > 0 {
		return true
	}
	s := strings.ToLower(strings.TrimSpace(b.RawStatus))
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	switch {
	case strings.Contains(s, "on_shelf"):
		return true
	case strings.Contains(s, "available") && !strings.Contains(s, "unavailable"):
		return true
	}
	return !b.HasAvailability && s == ""
}

// Without returns books minus every entry with the given id
func Without(books []domain.Book, id string) []domain.Book {
	out := make([]domain.Book, 0, len(books))
	for _, b := range books {
		if b.ID != id {
			out = append(out, b)
		}
	}
	return out
}
