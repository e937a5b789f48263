// Package validate runs the client-side form checks that must pass before
// any request reaches the backend.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/mmcdole/shelf/internal/domain"
)

// MinPublishYear is the earliest accepted publication year
const MinPublishYear = 1000

var (
	isbn10 = regexp.MustCompile(`^\d{9}[\dX]$`)
	isbn13 = regexp.MustCompile(`^\d{13}$`)
)

// Validator wraps a configured validator.Validate
type Validator struct {
	v   *validator.Validate
	now func() time.Time
}

// New creates a Validator using the wall clock for year checks
func New() *Validator {
	return NewAt(time.Now)
}

// NewAt creates a Validator with an explicit clock
func NewAt(now func() time.Time) *Validator {
	val := &Validator{v: validator.New(), now: now}
	val.v.RegisterValidation("isbn", validateISBN)
	val.v.RegisterValidation("notblank", validateNotBlank)
	val.v.RegisterValidation("maxyear", val.validateMaxYear)
	return val
}

var std = New()

// Book checks the editable fields of a book
func Book(f domain.BookFields) error { return std.Struct(f) }

// Login checks a login form
func Login(c domain.Credentials) error { return std.Struct(c) }

// Registration checks a sign-up form
func Registration(r domain.Registration) error { return std.Struct(r) }

// Struct validates s and converts failures into a *domain.ValidationError
func (val *Validator) Struct(s any) error {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := &domain.ValidationError{}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, domain.FieldError{
			Field:   fieldName(fe.Field()),
			Message: val.message(fe),
		})
	}
	return out
}

func (val *Validator) message(fe validator.FieldError) string {
	label := humanize(fe.Field())
	param := fe.Param()

	switch fe.Tag() {
	case "required", "notblank":
		return label + " is required"
	case "email":
		return label + " must be a valid email address"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", label, param)
		}
		if fe.Field() == "PublishYear" {
			return fmt.Sprintf("%s must be between %d and %d", label, MinPublishYear, val.now().Year())
		}
		return fmt.Sprintf("%s must be at least %s", label, param)
	case "maxyear":
		return fmt.Sprintf("%s must be between %d and %d", label, MinPublishYear, val.now().Year())
	case "isbn":
		return label + " must be 10 or 13 digits"
	case "eqfield":
		return "Passwords do not match"
	case "ltefield":
		return fmt.Sprintf("%s cannot exceed %s", label, strings.ToLower(humanize(param)))
	default:
		return label + " is invalid"
	}
}

func validateISBN(fl validator.FieldLevel) bool {
	isbn := strings.NewReplacer("-", "", " ", "").Replace(fl.Field().String())
	return isbn10.MatchString(isbn) || isbn13.MatchString(isbn)
}

func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func (val *Validator) validateMaxYear(fl validator.FieldLevel) bool {
	return fl.Field().Int() <= int64(val.now().Year())
}

// fieldName lower-cases the first letter, or the whole name for acronyms
func fieldName(f string) string {
	if f == "" {
		return f
	}
	if strings.ToUpper(f) == f {
		return strings.ToLower(f)
	}
	return strings.ToLower(f[:1]) + f[1:]
}

// humanize turns a Go field name into a label: PublishYear -> "Publish year"
func humanize(f string) string {
	if strings.ToUpper(f) == f {
		return f
	}
	var b strings.Builder
	for i, r := range f {
		if i > 0 && unicode.IsUpper(r) {
			b.WriteByte(' ')
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
