package catalog

import (
	"strings"

	"github.com/mmcdole/shelf/internal/domain"
)

// Aggregate collapses books sharing a title key into one entry per title.
//
// Books with a blank title are dropped. Each member contributes its
// TotalCopies, or 1 when it reports none. The surviving entry is a copy of
// the first member seen, with TotalCopies and AvailableCopies both set to
// the group sum. Output keeps first-seen order.
//
// Authors are not part of the key, so two different books with the same
// title are merged.
func Aggregate(books []domain.Book) []domain.Book {
	type group struct {
		first  domain.Book
		copies int
	}

	var order []string
	groups := make(map[string]*group)

	for _, b := range books {
		if strings.TrimSpace(b.Title) == "" {
			continue
		}
		key := b.TitleKey()
		n := b.TotalCopies
		if n <= 0 {
			n = 1
		}
		if g, ok := groups[key]; ok {
			g.copies += n
			continue
		}
		groups[key] = &group{first: b, copies: n}
		order = append(order, key)
	}

	out := make([]domain.Book, 0, len(order))
	for _, key := range order {
		g := groups[key]
		b := g.first
		b.TotalCopies = g.copies
		b.AvailableCopies = g.copies
		b.HasAvailability = true
		b.Status = domain.DeriveStatus(b.AvailableCopies)
		out = append(out, b)
	}
	return out
}

// CopiesOf returns the raw (pre-aggregation) records belonging to an
// aggregated entry's title group.
func CopiesOf(raw []domain.Book, entry domain.Book) []domain.Book {
	key := entry.TitleKey()
	var out []domain.Book
	for _, b := range raw {
		if b.TitleKey() == key && key != "" {
			out = append(out, b)
		}
	}
	return out
}
