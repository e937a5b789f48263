package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotFoundErrorIs(t *testing.T) {
	err := fmt.Errorf("delete: %w", &NotFoundError{ID: "7"})

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, IsNotFound(err))
	assert.False(t, IsNotFound(errors.New("boom")))
	assert.Equal(t, "delete: book 7 not found", err.Error())
}

func TestTransportErrorUnwrap(t *testing.T) {
	err := &TransportError{Op: "list books", Err: ErrServerOffline}

	assert.True(t, errors.Is(err, ErrServerOffline))
	assert.Equal(t, "list books: library server is unreachable", err.Error())

	withStatus := &TransportError{Op: "get book", StatusCode: 500, Message: "db down"}
	assert.Equal(t, "get book: status 500: db down", withStatus.Error())
}

func TestMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"server message wins", &TransportError{Op: "create", StatusCode: 400, Message: "Duplicate ISBN"}, "Duplicate ISBN"},
		{"offline", &TransportError{Op: "list", Err: ErrServerOffline}, "Cannot connect to server. Please check if the backend is running."},
		{"auth", &TransportError{Op: "list", StatusCode: 401, Err: ErrAuthFailed}, "Your session is no longer valid. Please log in again."},
		{"5xx", &TransportError{Op: "list", StatusCode: 503}, "Server error. Please try again later."},
		{"other status", &TransportError{Op: "list", StatusCode: 418}, "Request failed. Please try again."},
		{"shape", &ShapeError{Op: "list", Detail: "data is not an array"}, "Unexpected response format from server."},
		{"not found", &NotFoundError{ID: "1"}, "Book not found."},
		{"validation", &ValidationError{Fields: []FieldError{{Field: "title", Message: "Title is required"}}}, "Title is required"},
		{"auth required", fmt.Errorf("load: %w", ErrAuthRequired), "Please log in to continue."},
		{"plain", errors.New("boom"), "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Message(tt.err))
		})
	}
}

func TestValidationErrorString(t *testing.T) {
	err := &ValidationError{Fields: []FieldError{
		{Field: "title", Message: "Title is required"},
		{Field: "author", Message: "Author must be at least 2 characters"},
	}}
	assert.Equal(t, "validation failed: Title is required; Author must be at least 2 characters", err.Error())
	assert.Equal(t, "validation failed", (&ValidationError{}).Error())
}
