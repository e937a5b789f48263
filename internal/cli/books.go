package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mmcdole/shelf/internal/catalog"
	"github.com/mmcdole/shelf/internal/domain"
	"github.com/mmcdole/shelf/internal/search"
)

const suggestionLimit = 3

// loadCatalog builds the App and loads the catalog. A failed load is
// reported as an error here even though the Service absorbs it.
func loadCatalog(cmd *cobra.Command, opts *RootOptions) (*App, catalog.Snapshot, error) {
	app, err := opts.App(cmd)
	if err != nil {
		return nil, catalog.Snapshot{}, err
	}
	if err := app.Catalog.Load(cmd.Context()); err != nil {
		return nil, catalog.Snapshot{}, err
	}
	snap := app.Catalog.Snapshot()
	if snap.State == catalog.StateLoadFailed {
		return nil, snap, fmt.Errorf("%s", snap.Message)
	}
	return app, snap, nil
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	var query, status, match string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the catalog, one entry per title",
		Long: `List the catalog with copies of the same title merged.

--match title searches titles only (the list view); --match all also
searches authors (the dashboard). --status on_shelf keeps books that can be
borrowed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, ok := domain.ParseMatchMode(match)
			if !ok {
				return fmt.Errorf("invalid --match %q: must be title or all", match)
			}
			filter, ok := domain.ParseStatusFilter(status)
			if !ok {
				return fmt.Errorf("invalid --status %q: must be all or on_shelf", status)
			}

			app, _, err := loadCatalog(cmd, rootOpts)
			if err != nil {
				return err
			}

			view := app.Catalog.NewView(mode)
			view.SetQuery(query)
			view.SetStatus(filter)
			books := view.Books()

			out := rootOpts.formatter(cmd.OutOrStdout())
			if err := out.Books(books); err != nil {
				return err
			}
			if len(books) == 0 && query != "" && !out.Structured() {
				printSuggestions(cmd.OutOrStdout(), query, app.Catalog.Snapshot().Books)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "text to match")
	cmd.Flags().StringVar(&status, "status", "all", "status filter (all|on_shelf)")
	cmd.Flags().StringVar(&match, "match", "title", "fields the query matches (title|all)")
	return cmd
}

// NewSearchCommand creates the search command.
func NewSearchCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "search <title>",
		Short: "Search titles on the server",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.Join(args, " ")

			app, snap, err := loadCatalog(cmd, rootOpts)
			if err != nil {
				return err
			}
			books, err := app.Catalog.Search(cmd.Context(), title)
			if err != nil {
				return err
			}

			out := rootOpts.formatter(cmd.OutOrStdout())
			if err := out.Books(books); err != nil {
				return err
			}
			if len(books) == 0 && !out.Structured() {
				printSuggestions(cmd.OutOrStdout(), title, snap.Books)
			}
			return nil
		},
	}
}

func printSuggestions(w io.Writer, query string, books []domain.Book) {
	if s := search.Suggest(query, books, suggestionLimit); len(s) > 0 {
		fmt.Fprintf(w, "Did you mean: %s?\n", strings.Join(s, ", "))
	}
}

type bookDetail struct {
	domain.Book `yaml:",inline"`
	CoverURL    string        `json:"cover_url" yaml:"cover_url"`
	Copies      []domain.Book `json:"copies,omitempty" yaml:"copies,omitempty"`
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one book with its copies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, snap, err := loadCatalog(cmd, rootOpts)
			if err != nil {
				return err
			}
			book, err := app.Catalog.Book(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			detail := bookDetail{
				Book:     book,
				CoverURL: app.Images.Resolve(book.CoverImage),
				Copies:   catalog.CopiesOf(snap.Raw, book),
			}
			return rootOpts.formatter(cmd.OutOrStdout()).Value(detail, func(w io.Writer) error {
				return writeDetail(w, detail)
			})
		},
	}
}

func writeDetail(w io.Writer, d bookDetail) error {
	rows := []struct{ k, v string }{
		{"ID", d.ID},
		{"Title", d.Title},
		{"Author", d.Author},
		{"ISBN", d.ISBN},
		{"Published", fmt.Sprint(d.PublishYear)},
		{"Pages", fmt.Sprint(d.Pages)},
		{"Copies", fmt.Sprintf("%d of %d available", d.AvailableCopies, d.TotalCopies)},
		{"Status", d.Status},
		{"Cover", d.CoverURL},
	}
	for _, r := range rows {
		if _, err := fmt.Fprintf(w, "%-10s %s\n", r.k+":", r.v); err != nil {
			return err
		}
	}
	if len(d.Copies) > 1 {
		fmt.Fprintf(w, "\nRecords for this title:\n")
		for _, c := range d.Copies {
			fmt.Fprintf(w, "  #%s  %d/%d  %s\n", c.ID, c.AvailableCopies, c.TotalCopies, c.Status)
		}
	}
	return nil
}

type bookFlags struct {
	title, author, isbn, image string
	year, pages, copies        int
	available                  int
}

func (f *bookFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "title")
	cmd.Flags().StringVar(&f.author, "author", "", "author")
	cmd.Flags().StringVar(&f.isbn, "isbn", "", "ISBN-10 or ISBN-13")
	cmd.Flags().IntVar(&f.year, "year", 0, "publish year")
	cmd.Flags().IntVar(&f.pages, "pages", 0, "page count")
	cmd.Flags().IntVar(&f.copies, "copies", 1, "total copies")
	cmd.Flags().IntVar(&f.available, "available", -1, "available copies (defaults to --copies)")
}

// apply overwrites the fields whose flags were set
func (f *bookFlags) apply(cmd *cobra.Command, fields *domain.BookFields) {
	changed := cmd.Flags().Changed
	if changed("title") {
		fields.Title = f.title
	}
	if changed("author") {
		fields.Author = f.author
	}
	if changed("isbn") {
		fields.ISBN = f.isbn
	}
	if changed("year") {
		fields.PublishYear = f.year
	}
	if changed("pages") {
		fields.Pages = f.pages
	}
	if changed("copies") {
		fields.TotalCopies = f.copies
	}
	if changed("available") {
		fields.AvailableCopies = f.available
	}
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	var f bookFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a book",
		Long: `Add a book to the catalog.

With --image the cover file is uploaded together with the book.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fields := domain.BookFields{
				Title:           f.title,
				Author:          f.author,
				ISBN:            f.isbn,
				PublishYear:     f.year,
				Pages:           f.pages,
				TotalCopies:     f.copies,
				AvailableCopies: f.copies,
			}
			if f.available >= 0 {
				fields.AvailableCopies = f.available
			}

			var cover *domain.CoverUpload
			if f.image != "" {
				data, err := os.ReadFile(f.image)
				if err != nil {
					return fmt.Errorf("failed to read cover image: %w", err)
				}
				cover = &domain.CoverUpload{Filename: filepath.Base(f.image), Data: data}
			}

			app, _, err := loadCatalog(cmd, rootOpts)
			if err != nil {
				return err
			}
			if err := app.Catalog.Create(cmd.Context(), fields, cover); err != nil {
				return err
			}
			return reportMutation(cmd, rootOpts, app)
		},
	}

	f.register(cmd)
	cmd.Flags().StringVar(&f.image, "image", "", "cover image file to upload")
	return cmd
}

// NewUpdateCommand creates the update command.
func NewUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	var f bookFlags

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a book",
		Long:  `Change a book record. Only the flags given are changed.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			app, snap, err := loadCatalog(cmd, rootOpts)
			if err != nil {
				return err
			}

			current, ok := findRecord(snap, id)
			if !ok {
				return &domain.NotFoundError{ID: id}
			}
			fields := domain.FieldsOf(current)
			f.apply(cmd, &fields)

			if err := app.Catalog.Update(cmd.Context(), id, fields); err != nil {
				return err
			}
			return reportMutation(cmd, rootOpts, app)
		},
	}

	f.register(cmd)
	return cmd
}

// findRecord prefers the per-record row so edits do not carry group sums
func findRecord(snap catalog.Snapshot, id string) (domain.Book, bool) {
	for _, b := range snap.Raw {
		if b.ID == id {
			return b, true
		}
	}
	return snap.Find(id)
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a book",
		Long: `Delete a book record.

If the server rejects the delete, the book is remembered as pending and
reported by "shelf pending" until the server agrees.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, _, err := loadCatalog(cmd, rootOpts)
			if err != nil {
				return err
			}
			if err := app.Catalog.Delete(cmd.Context(), args[0]); err != nil {
				if domain.IsNotFound(err) {
					return err
				}
				return fmt.Errorf("%s; removed locally and recorded as pending, see 'shelf pending'", domain.Message(err))
			}
			return reportMutation(cmd, rootOpts, app)
		},
	}
}

func reportMutation(cmd *cobra.Command, opts *RootOptions, app *App) error {
	snap := app.Catalog.Snapshot()
	if snap.State == catalog.StateLoadFailed {
		return fmt.Errorf("saved, but reloading the catalog failed: %s", snap.Message)
	}
	return opts.formatter(cmd.OutOrStdout()).Message(snap.Message)
}

// NewPendingCommand creates the pending command.
func NewPendingCommand(rootOpts *RootOptions) *cobra.Command {
	var retry bool
	var dismiss string

	cmd := &cobra.Command{
		Use:   "pending",
		Short: "Show deletes the server rejected",
		Long: `Show books that were removed locally after the server rejected the delete.

--retry sends those deletes again; --dismiss forgets one without contacting
the server.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, snap, err := loadCatalog(cmd, rootOpts)
			if err != nil {
				return err
			}
			out := rootOpts.formatter(cmd.OutOrStdout())

			switch {
			case dismiss != "":
				if err := app.Catalog.DismissPending(dismiss); err != nil {
					return err
				}
				return out.Message(fmt.Sprintf("Dismissed pending delete %s.", dismiss))
			case retry:
				cleared, err := app.Catalog.RetryPending(cmd.Context())
				if err != nil {
					return fmt.Errorf("%d cleared, some deletes still rejected: %w", cleared, err)
				}
				return out.Message(fmt.Sprintf("%d pending delete(s) cleared.", cleared))
			}

			pending := snap.Pending
			if pending == nil {
				pending = []domain.PendingDelete{}
			}
			return out.Value(pending, func(w io.Writer) error {
				if len(pending) == 0 {
					_, err := fmt.Fprintln(w, "No pending deletes.")
					return err
				}
				fmt.Fprintln(w, "Removed locally but still on the server:")
				for _, p := range pending {
					fmt.Fprintf(w, "  #%s  %s  (%s: %s)\n", p.ID, p.Title,
						p.FailedAt.Format("2006-01-02 15:04"), p.Message)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&retry, "retry", false, "send pending deletes again")
	cmd.Flags().StringVar(&dismiss, "dismiss", "", "forget the pending delete with this id")
	return cmd
}
