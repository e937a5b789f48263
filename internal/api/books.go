package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"

	"github.com/mmcdole/shelf/internal/domain"
)

// ListBooks returns every book record
func (c *Client) ListBooks(ctx context.Context) ([]domain.RawBook, error) {
	env, err := c.do(ctx, request{op: "list books", method: http.MethodGet, path: "/books"})
	if err != nil {
		return nil, err
	}
	return env.list("list books")
}

// SearchBooks performs a server-side title search
func (c *Client) SearchBooks(ctx context.Context, title string) ([]domain.RawBook, error) {
	env, err := c.do(ctx, request{
		op:     "search books",
		method: http.MethodGet,
		path:   "/books/search",
		query:  url.Values{"title": {title}},
	})
	if err != nil {
		return nil, err
	}
	return env.list("search books")
}

// FilterBooks performs a server-side status filter
func (c *Client) FilterBooks(ctx context.Context, status string) ([]domain.RawBook, error) {
	env, err := c.do(ctx, request{
		op:     "filter books",
		method: http.MethodGet,
		path:   "/books/filter",
		query:  url.Values{"status": {status}},
	})
	if err != nil {
		return nil, err
	}
	return env.list("filter books")
}

// GetBook returns a single record. A 404 or a missing data object is a
// NotFoundError.
func (c *Client) GetBook(ctx context.Context, id string) (domain.RawBook, error) {
	env, err := c.do(ctx, request{
		op:     "get book",
		method: http.MethodGet,
		path:   "/books/" + url.PathEscape(id),
		id:     id,
	})
	if err != nil {
		return nil, err
	}
	book, ok := object(env.Data)
	if !ok {
		return nil, &domain.NotFoundError{ID: id}
	}
	return book, nil
}

// CreateBook posts a new book as JSON, or as multipart form data to the
// upload route when a cover is attached.
func (c *Client) CreateBook(ctx context.Context, fields domain.BookFields, cover *domain.CoverUpload) (string, error) {
	if cover != nil {
		return c.createWithCover(ctx, fields, cover)
	}

	payload, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("failed to marshal book: %w", err)
	}
	env, err := c.do(ctx, request{
		op:          "create book",
		method:      http.MethodPost,
		path:        "/books",
		body:        func() io.Reader { return bytes.NewReader(payload) },
		contentType: "application/json",
	})
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

func (c *Client) createWithCover(ctx context.Context, fields domain.BookFields, cover *domain.CoverUpload) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	formFields := []struct{ key, value string }{
		{"title", fields.Title},
		{"author", fields.Author},
		{"ISBN", fields.ISBN},
		{"publishYear", strconv.Itoa(fields.PublishYear)},
		{"pages", strconv.Itoa(fields.Pages)},
		{"total_copies", strconv.Itoa(fields.TotalCopies)},
		{"available_copies", strconv.Itoa(fields.AvailableCopies)},
	}
	for _, f := range formFields {
		if err := w.WriteField(f.key, f.value); err != nil {
			return "", fmt.Errorf("failed to write form field %s: %w", f.key, err)
		}
	}

	part, err := w.CreateFormFile("image", filepath.Base(cover.Filename))
	if err != nil {
		return "", fmt.Errorf("failed to create image part: %w", err)
	}
	if _, err := part.Write(cover.Data); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finish form: %w", err)
	}

	payload := buf.Bytes()
	env, err := c.do(ctx, request{
		op:          "upload book",
		method:      http.MethodPost,
		path:        "/books/upload",
		body:        func() io.Reader { return bytes.NewReader(payload) },
		contentType: w.FormDataContentType(),
	})
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

// UpdateBook replaces the editable fields of a book
func (c *Client) UpdateBook(ctx context.Context, id string, fields domain.BookFields) (string, error) {
	payload, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("failed to marshal book: %w", err)
	}
	env, err := c.do(ctx, request{
		op:          "update book",
		method:      http.MethodPut,
		path:        "/books/" + url.PathEscape(id),
		body:        func() io.Reader { return bytes.NewReader(payload) },
		contentType: "application/json",
		id:          id,
	})
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

// DeleteBook deletes a book
func (c *Client) DeleteBook(ctx context.Context, id string) (string, error) {
	env, err := c.do(ctx, request{
		op:     "delete book",
		method: http.MethodDelete,
		path:   "/books/" + url.PathEscape(id),
		id:     id,
	})
	if err != nil {
		return "", err
	}
	return env.Message, nil
}
