package validate

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/shelf/internal/domain"
)

func fixedClock() time.Time {
	return time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
}

func validBook() domain.BookFields {
	return domain.BookFields{
		Title:           "Clean Code",
		Author:          "Robert Martin",
		ISBN:            "978-0132350884",
		PublishYear:     2008,
		Pages:           464,
		TotalCopies:     3,
		AvailableCopies: 2,
	}
}

func fieldErrors(t *testing.T, err error) []domain.FieldError {
	t.Helper()
	var vErr *domain.ValidationError
	require.True(t, errors.As(err, &vErr), "expected ValidationError, got %v", err)
	return vErr.Fields
}

func TestBookValid(t *testing.T) {
	v := NewAt(fixedClock)
	assert.NoError(t, v.Struct(validBook()))

	f := validBook()
	f.ISBN = ""
	f.Pages = 0
	assert.NoError(t, v.Struct(f), "ISBN and pages are optional")
}

func TestBookRules(t *testing.T) {
	v := NewAt(fixedClock)

	tests := []struct {
		name    string
		mutate  func(*domain.BookFields)
		field   string
		message string
	}{
		{"blank title", func(f *domain.BookFields) { f.Title = "   " }, "title", "Title is required"},
		{"short author", func(f *domain.BookFields) { f.Author = "R" }, "author", "Author must be at least 2 characters"},
		{"year too old", func(f *domain.BookFields) { f.PublishYear = 999 }, "publishYear", "Publish year must be between 1000 and 2025"},
		{"year in future", func(f *domain.BookFields) { f.PublishYear = 2026 }, "publishYear", "Publish year must be between 1000 and 2025"},
		{"negative pages", func(f *domain.BookFields) { f.Pages = -4 }, "pages", "Pages must be at least 1"},
		{"bad isbn", func(f *domain.BookFields) { f.ISBN = "12345" }, "isbn", "ISBN must be 10 or 13 digits"},
		{"available exceeds total", func(f *domain.BookFields) { f.AvailableCopies = 9 }, "availableCopies", "Available copies cannot exceed total copies"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validBook()
			tt.mutate(&f)
			fields := fieldErrors(t, v.Struct(f))
			require.Len(t, fields, 1)
			assert.Equal(t, tt.field, fields[0].Field)
			assert.Equal(t, tt.message, fields[0].Message)
		})
	}
}

func TestISBNFormats(t *testing.T) {
	v := NewAt(fixedClock)
	for _, isbn := range []string{"0132350882", "013235088X", "9780132350884", "978 0 13 235088 4"} {
		f := validBook()
		f.ISBN = isbn
		assert.NoError(t, v.Struct(f), isbn)
	}
}

func TestRegistration(t *testing.T) {
	ok := domain.Registration{
		FirstName:       "Ada",
		LastName:        "Lovelace",
		Email:           "ada@example.com",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	}
	assert.NoError(t, Registration(ok))

	bad := ok
	bad.ConfirmPassword = "secret2"
	bad.Password = "secret1"
	fields := fieldErrors(t, Registration(bad))
	require.Len(t, fields, 1)
	assert.Equal(t, "confirmPassword", fields[0].Field)
	assert.Equal(t, "Passwords do not match", fields[0].Message)

	bad = ok
	bad.FirstName = "A"
	bad.Email = "not-an-email"
	bad.Password = "12345"
	bad.ConfirmPassword = "12345"
	fields = fieldErrors(t, Registration(bad))
	assert.Len(t, fields, 3)
}

func TestLogin(t *testing.T) {
	assert.NoError(t, Login(domain.Credentials{Email: "a@b.co", Password: "x"}))

	fields := fieldErrors(t, Login(domain.Credentials{}))
	assert.Len(t, fields, 2)
	assert.Equal(t, "Email is required", fields[0].Message)
}
