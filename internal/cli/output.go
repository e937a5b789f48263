package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/mmcdole/shelf/internal/domain"
)

// OutputFormatter handles text, JSON and YAML output for CLI commands.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

func (o *RootOptions) formatter(w io.Writer) *OutputFormatter {
	return &OutputFormatter{Format: o.Format, Writer: w}
}

// Structured reports whether output is machine readable
func (f *OutputFormatter) Structured() bool {
	return f.Format == "json" || f.Format == "yaml"
}

// Value writes v as JSON or YAML. In text mode text is called instead.
func (f *OutputFormatter) Value(v any, text func(w io.Writer) error) error {
	switch f.Format {
	case "json":
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(f.Writer)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return text(f.Writer)
	}
}

// Books writes a book table
func (f *OutputFormatter) Books(books []domain.Book) error {
	if books == nil {
		books = []domain.Book{}
	}
	return f.Value(books, func(w io.Writer) error {
		if len(books) == 0 {
			_, err := fmt.Fprintln(w, "No books found.")
			return err
		}
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tTITLE\tAUTHOR\tYEAR\tCOPIES\tSTATUS")
		for _, b := range books {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d/%d\t%s\n",
				b.ID, truncate(b.Title, 40), truncate(b.Author, 24), b.PublishYear,
				b.AvailableCopies, b.TotalCopies, b.Status)
		}
		return tw.Flush()
	})
}

// Message writes a one-line result. Structured formats get {"message": ...}.
func (f *OutputFormatter) Message(msg string) error {
	return f.Value(map[string]string{"message": msg}, func(w io.Writer) error {
		_, err := fmt.Fprintln(w, msg)
		return err
	})
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
