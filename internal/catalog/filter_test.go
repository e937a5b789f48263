package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/shelf/internal/domain"
)

func sampleCatalog() []domain.Book {
	return []domain.Book{
		{ID: "1", Title: "The Road to React", Author: "Robin Wieruch", AvailableCopies: 2, HasAvailability: true},
		{ID: "2", Title: "Lean UX", Author: "Jeff Gothelf", AvailableCopies: 0, HasAvailability: true},
		{ID: "3", Title: "Sprint", Author: "Jake Knapp", AvailableCopies: 0, HasAvailability: true, RawStatus: "Available"},
		{ID: "4", Title: "Rich Dad Poor Dad", Author: "Robert Kiyosaki"},
	}
}

func ids(books []domain.Book) []string {
	out := make([]string, len(books))
	for i, b := range books {
		out[i] = b.ID
	}
	return out
}

func TestFilterEmptyQueryIsIdentity(t *testing.T) {
	c := sampleCatalog()
	for _, q := range []string{"", "   ", "\t"} {
		got := Filter(c, q, domain.MatchTitle, domain.StatusAny)
		assert.Len(t, got, len(c))
	}
}

func TestFilterTitleMode(t *testing.T) {
	got := Filter(sampleCatalog(), "  ROAD ", domain.MatchTitle, domain.StatusAny)
	assert.Equal(t, []string{"1"}, ids(got))

	for _, b := range Filter(sampleCatalog(), "d", domain.MatchTitle, domain.StatusAny) {
		assert.True(t, strings.Contains(strings.ToLower(b.Title), "d"))
	}
}

func TestFilterTitleModeIgnoresAuthor(t *testing.T) {
	assert.Empty(t, Filter(sampleCatalog(), "gothelf", domain.MatchTitle, domain.StatusAny))

	got := Filter(sampleCatalog(), "gothelf", domain.MatchTitleOrAuthor, domain.StatusAny)
	assert.Equal(t, []string{"2"}, ids(got))
}

func TestFilterOnShelfPredicate(t *testing.T) {
	books := []domain.Book{
		{ID: "a", Title: "A", AvailableCopies: 0, HasAvailability: true},
		{ID: "b", Title: "B", AvailableCopies: 0, HasAvailability: true, RawStatus: "on_shelf"},
		{ID: "c", Title: "C", AvailableCopies: 3, HasAvailability: true},
		{ID: "d", Title: "D"},
		{ID: "e", Title: "E", RawStatus: "unavailable"},
		{ID: "f", Title: "F", RawStatus: "Borrowed"},
		{ID: "g", Title: "G", HasAvailability: true, RawStatus: "On Shelf"},
	}

	got := Filter(books, "", domain.MatchTitle, domain.StatusOnShelf)
	assert.Equal(t, []string{"b", "c", "d", "g"}, ids(got))
}

func TestFilterAvailabilityCounts(t *testing.T) {
	books := []domain.Book{
		{ID: "1", Title: "One", AvailableCopies: 0, HasAvailability: true},
		{ID: "2", Title: "Two", AvailableCopies: 0, HasAvailability: true},
		{ID: "3", Title: "Three", AvailableCopies: 3, HasAvailability: true},
	}
	got := Filter(books, "", domain.MatchTitle, domain.StatusOnShelf)
	assert.Equal(t, []string{"3"}, ids(got))
}

func TestFilterCombinesQueryAndStatus(t *testing.T) {
	got := Filter(sampleCatalog(), "r", domain.MatchTitleOrAuthor, domain.StatusOnShelf)
	assert.Equal(t, []string{"1", "3", "4"}, ids(got))
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	c := sampleCatalog()
	before := ids(c)
	got := Filter(c, "lean", domain.MatchTitle, domain.StatusAny)
	require.Len(t, got, 1)
	got[0].Title = "changed"
	assert.Equal(t, before, ids(c))
	assert.Equal(t, "Lean UX", c[1].Title)
}

func TestWithout(t *testing.T) {
	got := Without(sampleCatalog(), "2")
	assert.Equal(t, []string{"1", "3", "4"}, ids(got))
}
