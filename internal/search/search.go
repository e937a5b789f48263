// Package search provides fuzzy helpers on top of the catalog's plain
// substring filter: ranked title matching, "did you mean" suggestions and
// match positions for highlighting.
package search

import (
	"sort"
	"strings"
	"unicode"

	lfuzzy "github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/sahilm/fuzzy"

	"github.com/mmcdole/shelf/internal/domain"
)

// Result is a ranked book
type Result struct {
	Book           domain.Book
	Score          int   // higher is better
	MatchedIndexes []int // rune positions in Book.Title
}

// Index implements sahilm/fuzzy.Source over book titles
type Index struct {
	books       []domain.Book
	lowerTitles []string
}

// NewIndex builds an index over books
func NewIndex(books []domain.Book) *Index {
	idx := &Index{
		books:       books,
		lowerTitles: make([]string, len(books)),
	}
	for i, b := range books {
		idx.lowerTitles[i] = strings.ToLower(b.Title)
	}
	return idx
}

// String returns the lowercase title at index i (implements fuzzy.Source)
func (idx *Index) String(i int) string { return idx.lowerTitles[i] }

// Len returns the number of books (implements fuzzy.Source)
func (idx *Index) Len() int { return len(idx.books) }

// Rank returns books whose title contains the query characters in order,
// best match first.
func (idx *Index) Rank(query string) []Result {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" || idx.Len() == 0 {
		return nil
	}

	matches := fuzzy.FindFrom(query, idx)
	results := make([]Result, len(matches))
	for i, m := range matches {
		results[i] = Result{
			Book:           idx.books[m.Index],
			Score:          m.Score,
			MatchedIndexes: runePositions(idx.lowerTitles[m.Index], m.MatchedIndexes),
		}
	}
	return results
}

// Suggest returns up to limit distinct titles close to query. Titles that
// contain the query's characters in order come first, then titles with a
// word within typo distance of each query word.
func Suggest(query string, books []domain.Book, limit int) []string {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" || limit <= 0 {
		return nil
	}

	seen := make(map[string]bool)
	var out []string
	add := func(b domain.Book) bool {
		key := b.TitleKey()
		if key == "" || seen[key] {
			return len(out) < limit
		}
		seen[key] = true
		out = append(out, strings.TrimSpace(b.Title))
		return len(out) < limit
	}

	for _, r := range NewIndex(books).Rank(query) {
		if !add(r.Book) {
			return out
		}
	}

	type candidate struct {
		book  domain.Book
		typos int
	}
	var near []candidate
	queryWords := words(query)
	for _, b := range books {
		if typos, ok := withinTypos(queryWords, words(strings.ToLower(b.Title))); ok {
			near = append(near, candidate{book: b, typos: typos})
		}
	}
	sort.SliceStable(near, func(i, j int) bool { return near[i].typos < near[j].typos })
	for _, c := range near {
		if !add(c.book) {
			break
		}
	}
	return out
}

// withinTypos reports whether every query word is within the allowed edit
// distance of some title word, and the total distance.
func withinTypos(query, title []string) (int, bool) {
	if len(query) == 0 || len(title) == 0 {
		return 0, false
	}
	total := 0
	for _, q := range query {
		best := -1
		for _, t := range title {
			d := lfuzzy.LevenshteinDistance(q, t)
			if best < 0 || d < best {
				best = d
			}
		}
		if best > allowedTypos(len([]rune(q))) {
			return 0, false
		}
		total += best
	}
	return total, true
}

// allowedTypos returns the number of typos allowed for a word:
// 1-3 chars = 0, 4-6 chars = 1, 7+ chars = 2
func allowedTypos(length int) int {
	switch {
	case length <= 3:
		return 0
	case length <= 6:
		return 1
	default:
		return 2
	}
}

func words(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Highlight returns the rune positions of query inside title, matched case
// insensitively as a substring. It returns nil when there is no match.
func Highlight(title, query string) []int {
	q := []rune(strings.ToLower(strings.TrimSpace(query)))
	t := []rune(strings.ToLower(title))
	if len(q) == 0 || len(q) > len(t) {
		return nil
	}

	for start := 0; start+len(q) <= len(t); start++ {
		if string(t[start:start+len(q)]) == string(q) {
			positions := make([]int, len(q))
			for i := range positions {
				positions[i] = start + i
			}
			return positions
		}
	}
	return nil
}

// runePositions converts byte offsets in s to rune positions
func runePositions(s string, byteOffsets []int) []int {
	if len(byteOffsets) == 0 {
		return nil
	}
	want := make(map[int]bool, len(byteOffsets))
	for _, off := range byteOffsets {
		want[off] = true
	}
	var out []int
	pos := 0
	for off := range s {
		if want[off] {
			out = append(out, pos)
		}
		pos++
	}
	return out
}
