package catalog

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/mmcdole/shelf/internal/domain"
)

// Accepted spellings for each record field, in lookup order
var (
	keysID          = []string{"id", "ID", "book_id", "bookId"}
	keysTitle       = []string{"title"}
	keysAuthor      = []string{"author"}
	keysISBN        = []string{"ISBN", "isbn"}
	keysPublishYear = []string{"publishYear", "publish_year", "year"}
	keysPages       = []string{"pages"}
	keysTotal       = []string{"total_copies", "totalCopies"}
	keysAvailable   = []string{"available_copies", "availableCopies"}
	keysStatus      = []string{"status"}
	keysCover       = []string{"img", "coverImage", "cover_image"}
	keysCreatedAt   = []string{"created_at", "createdAt"}
)

// Normalize converts a raw API record into a canonical Book using the
// current calendar year as the publish year fallback.
func Normalize(raw domain.RawBook) domain.Book {
	return NormalizeAt(raw, time.Now())
}

// NormalizeAt is Normalize with an explicit clock.
// It never fails: missing or malformed fields get their defaults.
func NormalizeAt(raw domain.RawBook, now time.Time) domain.Book {
	availRaw, hasAvail := lookup(raw, keysAvailable)
	available := count(availRaw)

	isbn := text(raw, keysISBN)
	if strings.TrimSpace(isbn) == "" {
		isbn = domain.PlaceholderISBN
	}

	year := now.Year()
	if v, ok := lookup(raw, keysPublishYear); ok {
		if f, ok := number(v); ok && f >= 1 {
			year = toInt(f)
		}
	}

	total, _ := lookup(raw, keysTotal)
	pages, _ := lookup(raw, keysPages)

	return domain.Book{
		ID:              text(raw, keysID),
		Title:           text(raw, keysTitle),
		Author:          text(raw, keysAuthor),
		ISBN:            isbn,
		PublishYear:     year,
		Pages:           count(pages),
		TotalCopies:     count(total),
		AvailableCopies: available,
		Status:          domain.DeriveStatus(available),
		RawStatus:       text(raw, keysStatus),
		HasAvailability: hasAvail,
		CoverImage:      text(raw, keysCover),
		CreatedAt:       text(raw, keysCreatedAt),
	}
}

// NormalizeAll normalizes every record, preserving order
func NormalizeAll(raws []domain.RawBook, now time.Time) []domain.Book {
	books := make([]domain.Book, len(raws))
	for i, raw := range raws {
		books[i] = NormalizeAt(raw, now)
	}
	return books
}

// lookup returns the first non-nil value stored under any of keys
func lookup(raw domain.RawBook, keys []string) (any, bool) {
	for _, k := range keys {
		if v, ok := raw[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func text(raw domain.RawBook, keys []string) string {
	v, ok := lookup(raw, keys)
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		if t == math.Trunc(t) && !math.IsInf(t, 0) {
			return strconv.FormatInt(int64(t), 10)
		}
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return ""
	}
	return s
}

// number coerces a JSON value to a finite float
func number(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case nil:
		return 0, false
	case json.Number:
		parsed, err := strconv.ParseFloat(t.String(), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	default:
		parsed, err := cast.ToFloat64E(v)
		if err != nil {
			return 0, false
		}
		f = parsed
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// count coerces v to a non-negative integer, 0 on failure
func count(v any) int {
	f, ok := number(v)
	if !ok || f < 0 {
		return 0
	}
	return toInt(f)
}

func toInt(f float64) int {
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(math.Trunc(f))
}
