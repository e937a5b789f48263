package domain

import (
	"context"
)

// CatalogRepository provides access to the remote book catalog.
// Read methods return raw records; normalization happens in the catalog.
type CatalogRepository interface {
	// ListBooks returns every book record
	ListBooks(ctx context.Context) ([]RawBook, error)

	// SearchBooks performs a server-side title search
	SearchBooks(ctx context.Context, title string) ([]RawBook, error)

	// FilterBooks performs a server-side status filter
	FilterBooks(ctx context.Context, status string) ([]RawBook, error)

	// GetBook returns a single record or a NotFoundError
	GetBook(ctx context.Context, id string) (RawBook, error)

	// CreateBook creates a book, uploading a cover when one is given.
	// Returns the server's message.
	CreateBook(ctx context.Context, fields BookFields, cover *CoverUpload) (string, error)

	// UpdateBook replaces the editable fields of a book
	UpdateBook(ctx context.Context, id string, fields BookFields) (string, error)

	// DeleteBook deletes a book
	DeleteBook(ctx context.Context, id string) (string, error)
}

// AuthRepository performs login and registration against the backend
type AuthRepository interface {
	Login(ctx context.Context, creds Credentials) (*AuthResult, error)
	Register(ctx context.Context, reg Registration) (string, error)
}
