package domain

import (
	"strings"
)

// Book availability as derived from the available copy count
const (
	StatusAvailable   = "available"
	StatusUnavailable = "unavailable"
)

// PlaceholderISBN is used when the backend omits the ISBN
const PlaceholderISBN = "N/A"

// RawBook is an untyped book record as decoded from the API.
// Numbers arrive as json.Number, strings or nil depending on the backend.
type RawBook map[string]any

// Book is the canonical, normalized book record held in catalog state.
// After aggregation a Book represents every copy sharing its title key and
// TotalCopies/AvailableCopies hold the group sum.
type Book struct {
	ID              string `json:"id" yaml:"id"`
	Title           string `json:"title" yaml:"title"`
	Author          string `json:"author" yaml:"author"`
	ISBN            string `json:"isbn" yaml:"isbn"`
	PublishYear     int    `json:"publish_year" yaml:"publish_year"`
	Pages           int    `json:"pages" yaml:"pages"`
	TotalCopies     int    `json:"total_copies" yaml:"total_copies"`
	AvailableCopies int    `json:"available_copies" yaml:"available_copies"`
	Status          string `json:"status" yaml:"status"`
	CoverImage      string `json:"cover_image,omitempty" yaml:"cover_image,omitempty"`
	CreatedAt       string `json:"created_at,omitempty" yaml:"created_at,omitempty"`

	// RawStatus is the status text the backend sent, if any.
	RawStatus string `json:"-" yaml:"-"`
	// HasAvailability reports whether the backend sent an available copy count.
	HasAvailability bool `json:"-" yaml:"-"`
}

// DeriveStatus returns the availability status for a copy count
func DeriveStatus(available int) string {
	if available > 0 {
		return StatusAvailable
	}
	return StatusUnavailable
}

// TitleKey returns the grouping key used for de-duplication
func (b Book) TitleKey() string {
	return strings.ToLower(strings.TrimSpace(b.Title))
}

// StatusFilter selects which books a view shows
type StatusFilter int

const (
	StatusAny StatusFilter = iota
	StatusOnShelf
)

// String returns the wire/flag form of the filter
func (f StatusFilter) String() string {
	if f == StatusOnShelf {
		return "on_shelf"
	}
	return "all"
}

// ParseStatusFilter maps user input to a StatusFilter.
// Unknown values fall back to StatusAny with ok=false.
func ParseStatusFilter(s string) (StatusFilter, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all", "default", "any":
		return StatusAny, true
	case "on_shelf", "onshelf", "on-shelf", "on shelf", "available":
		return StatusOnShelf, true
	default:
		return StatusAny, false
	}
}

// MatchMode selects which fields a text query matches against
type MatchMode int

const (
	MatchTitle MatchMode = iota
	MatchTitleOrAuthor
)

// String returns the flag form of the mode
func (m MatchMode) String() string {
	if m == MatchTitleOrAuthor {
		return "all"
	}
	return "title"
}

// ParseMatchMode maps user input to a MatchMode
func ParseMatchMode(s string) (MatchMode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "title":
		return MatchTitle, true
	case "all", "author", "title+author", "title_or_author":
		return MatchTitleOrAuthor, true
	default:
		return MatchTitle, false
	}
}

// BookFields is the user-editable part of a book submitted on create/update
type BookFields struct {
	Title           string `json:"title" validate:"notblank"`
	Author          string `json:"author" validate:"notblank,min=2"`
	ISBN            string `json:"ISBN,omitempty" validate:"omitempty,isbn"`
	PublishYear     int    `json:"publishYear" validate:"min=1000,maxyear"`
	Pages           int    `json:"pages,omitempty" validate:"omitempty,min=1"`
	TotalCopies     int    `json:"total_copies" validate:"min=0"`
	AvailableCopies int    `json:"available_copies" validate:"min=0,ltefield=TotalCopies"`
	CoverImage      string `json:"img,omitempty"`
}

// FieldsOf returns the editable fields of an existing book
func FieldsOf(b Book) BookFields {
	isbn := b.ISBN
	if isbn == PlaceholderISBN {
		isbn = ""
	}
	return BookFields{
		Title:           b.Title,
		Author:          b.Author,
		ISBN:            isbn,
		PublishYear:     b.PublishYear,
		Pages:           b.Pages,
		TotalCopies:     b.TotalCopies,
		AvailableCopies: b.AvailableCopies,
		CoverImage:      b.CoverImage,
	}
}

// CoverUpload is an image attached to a create request
type CoverUpload struct {
	Filename string
	Data     []byte
}
