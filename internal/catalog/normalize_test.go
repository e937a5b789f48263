package catalog

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mmcdole/shelf/internal/domain"
)

var testNow = time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

func TestNormalizeAtTypedRecord(t *testing.T) {
	raw := domain.RawBook{
		"id":               json.Number("12"),
		"title":            "Clean Code",
		"author":           "Robert Martin",
		"ISBN":             "9780132350884",
		"publishYear":      json.Number("2008"),
		"pages":            json.Number("464"),
		"total_copies":     json.Number("3"),
		"available_copies": json.Number("2"),
		"status":           "available",
		"img":              "clean.jpg",
		"created_at":       "2024-01-02",
	}

	b := NormalizeAt(raw, testNow)

	assert.Equal(t, domain.Book{
		ID:              "12",
		Title:           "Clean Code",
		Author:          "Robert Martin",
		ISBN:            "9780132350884",
		PublishYear:     2008,
		Pages:           464,
		TotalCopies:     3,
		AvailableCopies: 2,
		Status:          domain.StatusAvailable,
		RawStatus:       "available",
		HasAvailability: true,
		CoverImage:      "clean.jpg",
		CreatedAt:       "2024-01-02",
	}, b)
}

func TestNormalizeAtStringlyTyped(t *testing.T) {
	raw := domain.RawBook{
		"id":               "7",
		"title":            "Dune",
		"total_copies":     " 4 ",
		"available_copies": "0",
		"publish_year":     "1965",
		"pages":            "412.9",
	}

	b := NormalizeAt(raw, testNow)

	assert.Equal(t, 4, b.TotalCopies)
	assert.Equal(t, 0, b.AvailableCopies)
	assert.Equal(t, domain.StatusUnavailable, b.Status)
	assert.Equal(t, 1965, b.PublishYear)
	assert.Equal(t, 412, b.Pages)
	assert.True(t, b.HasAvailability)
}

func TestNormalizeAtDefaults(t *testing.T) {
	b := NormalizeAt(domain.RawBook{"title": "Untitled"}, testNow)

	assert.Equal(t, "", b.ID)
	assert.Equal(t, "", b.Author)
	assert.Equal(t, domain.PlaceholderISBN, b.ISBN)
	assert.Equal(t, 2025, b.PublishYear)
	assert.Equal(t, 0, b.Pages)
	assert.Equal(t, 0, b.TotalCopies)
	assert.Equal(t, 0, b.AvailableCopies)
	assert.Equal(t, domain.StatusUnavailable, b.Status)
	assert.False(t, b.HasAvailability)
}

func TestNormalizeAtRejectsGarbageNumbers(t *testing.T) {
	tests := []struct {
		name string
		val  any
		want int
	}{
		{"nan", math.NaN(), 0},
		{"inf", math.Inf(1), 0},
		{"negative", json.Number("-3"), 0},
		{"word", "many", 0},
		{"empty", "", 0},
		{"true", true, 1},
		{"false", false, 0},
		{"float", 2.0, 2},
		{"int", 5, 5},
		{"object", map[string]any{"n": 1}, 0},
		{"huge", json.Number("1e20"), math.MaxInt32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NormalizeAt(domain.RawBook{"title": "x", "total_copies": tt.val, "available_copies": tt.val}, testNow)
			assert.Equal(t, tt.want, b.TotalCopies)
			assert.Equal(t, tt.want, b.AvailableCopies)
		})
	}
}

func TestNormalizeAtBadPublishYearFallsBack(t *testing.T) {
	for _, v := range []any{"unknown", json.Number("-1990"), json.Number("0"), nil} {
		b := NormalizeAt(domain.RawBook{"title": "x", "publishYear": v}, testNow)
		assert.Equal(t, 2025, b.PublishYear, "%v", v)
	}
}

func TestNormalizeAtKeyAliases(t *testing.T) {
	raw := domain.RawBook{
		"id":              float64(3),
		"title":           "Refactoring",
		"isbn":            "0201485672",
		"totalCopies":     json.Number("2"),
		"availableCopies": json.Number("1"),
		"coverImage":      "/uploads/r.png",
	}

	b := NormalizeAt(raw, testNow)

	assert.Equal(t, "3", b.ID)
	assert.Equal(t, "0201485672", b.ISBN)
	assert.Equal(t, 2, b.TotalCopies)
	assert.Equal(t, 1, b.AvailableCopies)
	assert.Equal(t, "/uploads/r.png", b.CoverImage)
}

func TestNormalizeNeverPanics(t *testing.T) {
	weird := []domain.RawBook{
		nil,
		{},
		{"title": nil, "author": []any{"a"}, "ISBN": map[string]any{}},
		{"id": struct{}{}, "pages": []int{1}},
		{"title": 12, "publishYear": "2e3"},
	}
	for _, raw := range weird {
		assert.NotPanics(t, func() { Normalize(raw) })
	}
}

func TestNormalizeAllKeepsOrder(t *testing.T) {
	books := NormalizeAll([]domain.RawBook{{"title": "b"}, {"title": "a"}}, testNow)
	assert.Equal(t, "b", books[0].Title)
	assert.Equal(t, "a", books[1].Title)
}
