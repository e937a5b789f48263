package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveStatus(t *testing.T) {
	assert.Equal(t, StatusAvailable, DeriveStatus(1))
	assert.Equal(t, StatusUnavailable, DeriveStatus(0))
	assert.Equal(t, StatusUnavailable, DeriveStatus(-3))
}

func TestTitleKey(t *testing.T) {
	assert.Equal(t, "foo", Book{Title: "  Foo "}.TitleKey())
	assert.Equal(t, "", Book{Title: "   "}.TitleKey())
}

func TestParseStatusFilter(t *testing.T) {
	tests := []struct {
		in   string
		want StatusFilter
		ok   bool
	}{
		{"", StatusAny, true},
		{"all", StatusAny, true},
		{"Default", StatusAny, true},
		{"on_shelf", StatusOnShelf, true},
		{"On-Shelf", StatusOnShelf, true},
		{"onshelf", StatusOnShelf, true},
		{"borrowed", StatusAny, false},
	}
	for _, tt := range tests {
		got, ok := ParseStatusFilter(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
	}
	assert.Equal(t, "on_shelf", StatusOnShelf.String())
	assert.Equal(t, "all", StatusAny.String())
}

func TestParseMatchMode(t *testing.T) {
	m, ok := ParseMatchMode("all")
	assert.True(t, ok)
	assert.Equal(t, MatchTitleOrAuthor, m)

	m, ok = ParseMatchMode("")
	assert.True(t, ok)
	assert.Equal(t, MatchTitle, m)

	_, ok = ParseMatchMode("isbn")
	assert.False(t, ok)
}

func TestFieldsOfDropsPlaceholderISBN(t *testing.T) {
	f := FieldsOf(Book{Title: "Dune", Author: "Herbert", ISBN: PlaceholderISBN, PublishYear: 1965, TotalCopies: 2, AvailableCopies: 1})
	assert.Equal(t, "", f.ISBN)
	assert.Equal(t, "Dune", f.Title)
	assert.Equal(t, 1965, f.PublishYear)
	assert.Equal(t, 1, f.AvailableCopies)
}

func TestRegistrationFullName(t *testing.T) {
	r := Registration{FirstName: "Ada", LastName: "Lovelace"}
	assert.Equal(t, "Ada Lovelace", r.FullName())
}
