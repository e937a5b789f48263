package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for domain operations
var (
	// ErrNotFound indicates the requested book does not exist
	ErrNotFound = errors.New("book not found")

	// ErrServerOffline indicates the library API is unreachable
	ErrServerOffline = errors.New("library server is unreachable")

	// ErrAuthFailed indicates the backend rejected the credentials or token
	ErrAuthFailed = errors.New("authentication failed")

	// ErrAuthRequired signals that the caller must log in first
	ErrAuthRequired = errors.New("login required")

	// ErrCatalogNotLoaded is returned for writes attempted before the first load
	ErrCatalogNotLoaded = errors.New("catalog has not been loaded")
)

// TransportError covers network failures, non-2xx responses and
// envelopes with success=false.
type TransportError struct {
	Op         string
	StatusCode int    // 0 when no response was received
	Message    string // server supplied message, if any
	Err        error
}

func (e *TransportError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": status %d", e.StatusCode)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *TransportError) Unwrap() error { return e.Err }

// ShapeError indicates a response that did not have the expected structure
type ShapeError struct {
	Op     string
	Detail string
}

func (e *ShapeError) Error() string {
	return e.Op + ": unexpected response format: " + e.Detail
}

// FieldError is a single failed form rule
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError blocks a submission before any request is sent
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NotFoundError is returned when a get/update/delete target is missing
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("book %s not found", e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// IsNotFound reports whether err is a NotFoundError
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Message renders err as the single user-facing message for a failed operation
func Message(err error) string {
	if err == nil {
		return ""
	}

	var vErr *ValidationError
	if errors.As(err, &vErr) {
		if len(vErr.Fields) > 0 {
			return vErr.Fields[0].Message
		}
		return "Please correct the highlighted fields."
	}

	var nfErr *NotFoundError
	if errors.As(err, &nfErr) {
		return "Book not found."
	}

	switch {
	case errors.Is(err, ErrAuthRequired):
		return "Please log in to continue."
	case errors.Is(err, ErrCatalogNotLoaded):
		return "The catalog has not been loaded yet."
	}

	var tErr *TransportError
	if errors.As(err, &tErr) {
		if tErr.Message != "" {
			return tErr.Message
		}
		switch {
		case errors.Is(err, ErrServerOffline):
			return "Cannot connect to server. Please check if the backend is running."
		case errors.Is(err, ErrAuthFailed):
			return "Your session is no longer valid. Please log in again."
		case tErr.StatusCode >= 500:
			return "Server error. Please try again later."
		}
		return "Request failed. Please try again."
	}

	var sErr *ShapeError
	if errors.As(err, &sErr) {
		return "Unexpected response format from server."
	}

	return err.Error()
}
