package tui

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/mmcdole/shelf/internal/domain"
	"github.com/mmcdole/shelf/internal/tui/components"
)

// Book form field keys, matching validation field names
const (
	fieldTitle     = "title"
	fieldAuthor    = "author"
	fieldISBN      = "isbn"
	fieldYear      = "publishYear"
	fieldPages     = "pages"
	fieldTotal     = "totalCopies"
	fieldAvailable = "availableCopies"
	fieldCover     = "cover"
)

func newBookForm() components.Form {
	return components.NewForm("Book", []components.FieldSpec{
		{Key: fieldTitle, Label: "Title"},
		{Key: fieldAuthor, Label: "Author"},
		{Key: fieldISBN, Label: "ISBN", Placeholder: "10 or 13 digits", CharLimit: 17},
		{Key: fieldYear, Label: "Publish year", CharLimit: 4},
		{Key: fieldPages, Label: "Pages", CharLimit: 6},
		{Key: fieldTotal, Label: "Total copies", CharLimit: 4},
		{Key: fieldAvailable, Label: "Available", Placeholder: "same as total", CharLimit: 4},
		{Key: fieldCover, Label: "Cover", Placeholder: "image file to upload, or URL", CharLimit: 500},
	})
}

// bookFormValues returns initial form values; nil gives a blank form
func bookFormValues(b *domain.Book) map[string]string {
	if b == nil {
		return map[string]string{fieldTotal: "1"}
	}
	f := domain.FieldsOf(*b)
	values := map[string]string{
		fieldTitle:     f.Title,
		fieldAuthor:    f.Author,
		fieldISBN:      f.ISBN,
		fieldYear:      strconv.Itoa(f.PublishYear),
		fieldTotal:     strconv.Itoa(f.TotalCopies),
		fieldAvailable: strconv.Itoa(f.AvailableCopies),
		fieldCover:     f.CoverImage,
	}
	if f.Pages > 0 {
		values[fieldPages] = strconv.Itoa(f.Pages)
	}
	return values
}

// readBookForm converts form input into BookFields. Numbers that do not
// parse are reported per field; everything else is left to validation.
// When creating, a cover naming an existing file is read for upload.
func readBookForm(form components.Form, creating bool) (domain.BookFields, *domain.CoverUpload, map[string]string) {
	errs := map[string]string{}
	number := func(key, label string, fallback int) int {
		s := form.Value(key)
		if s == "" {
			return fallback
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			errs[key] = label + " must be a whole number"
		}
		return n
	}

	fields := domain.BookFields{
		Title:       form.Value(fieldTitle),
		Author:      form.Value(fieldAuthor),
		ISBN:        form.Value(fieldISBN),
		PublishYear: number(fieldYear, "Publish year", 0),
		Pages:       number(fieldPages, "Pages", 0),
		TotalCopies: number(fieldTotal, "Total copies", 0),
	}
	fields.AvailableCopies = number(fieldAvailable, "Available", fields.TotalCopies)

	var cover *domain.CoverUpload
	ref := form.Value(fieldCover)
	if info, err := os.Stat(ref); creating && ref != "" && err == nil && info.Mode().IsRegular() {
		data, err := os.ReadFile(ref)
		if err != nil {
			errs[fieldCover] = "Cannot read cover image: " + err.Error()
		} else {
			cover = &domain.CoverUpload{Filename: filepath.Base(ref), Data: data}
		}
	} else {
		fields.CoverImage = ref
	}

	return fields, cover, errs
}

// fieldErrors keeps the first message per field
func fieldErrors(fields []domain.FieldError) map[string]string {
	errs := make(map[string]string, len(fields))
	for _, f := range fields {
		if _, ok := errs[f.Field]; !ok {
			errs[f.Field] = f.Message
		}
	}
	return errs
}
