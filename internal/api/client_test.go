package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/shelf/internal/domain"
	"github.com/mmcdole/shelf/internal/sandbox"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type tokenBox struct{ token string }

func (b *tokenBox) Token() string { return b.token }

func newSandboxClient(t *testing.T, opts ...sandbox.Option) (*Client, *sandbox.Server, *tokenBox) {
	t.Helper()
	opts = append([]sandbox.Option{sandbox.WithAccount("Ada Lovelace", "ada@example.com", "secret1", "admin")}, opts...)
	sb := sandbox.New(quietLogger(), opts...)
	ts := httptest.NewServer(sb.Handler())
	t.Cleanup(ts.Close)

	tokens := &tokenBox{}
	c, err := NewClient(Options{
		BaseURL:    ts.URL,
		BasePath:   sandbox.DefaultAPIPath,
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
	}, tokens, quietLogger())
	require.NoError(t, err)
	return c, sb, tokens
}

func loginAs(t *testing.T, c *Client, tokens *tokenBox) {
	t.Helper()
	res, err := c.Login(context.Background(), domain.Credentials{Email: "ada@example.com", Password: "secret1"})
	require.NoError(t, err)
	tokens.token = res.Token
}

func newStubClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	c, err := NewClient(Options{BaseURL: ts.URL, BasePath: "/api", MaxRetries: 2, RetryDelay: time.Millisecond}, nil, quietLogger())
	require.NoError(t, err)
	return c
}

func TestParseBaseURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"full url", "http://localhost:8080", "http://localhost:8080", false},
		{"host and port", "library.local:8080", "http://library.local:8080", false},
		{"path is dropped", "https://example.com/some/path?x=1", "https://example.com", false},
		{"empty", "   ", "", true},
		{"no host", "http://", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := parseBaseURL(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, u.String())
		})
	}
}

func TestLoginReturnsUserAndToken(t *testing.T) {
	c, _, _ := newSandboxClient(t)

	res, err := c.Login(context.Background(), domain.Credentials{Email: "ada@example.com", Password: "secret1"})
	require.NoError(t, err)

	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "1", res.User.ID)
	assert.Equal(t, "Ada Lovelace", res.User.Name)
	assert.Equal(t, "admin", res.User.Role)
	assert.Equal(t, "Login successful", res.Message)
}

func TestLoginWrongPasswordIsAuthFailure(t *testing.T) {
	c, _, _ := newSandboxClient(t)

	_, err := c.Login(context.Background(), domain.Credentials{Email: "ada@example.com", Password: "wrong"})
	require.Error(t, err)

	var tErr *domain.TransportError
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, http.StatusUnauthorized, tErr.StatusCode)
	assert.ErrorIs(t, err, domain.ErrAuthFailed)
	assert.Equal(t, "Invalid email or password", domain.Message(err))
}

func TestLoginWithTopLevelToken(t *testing.T) {
	c := newStubClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"token":"abc","user":{"id":"u-7","name":"Bob","email":"bob@example.com"}}`))
	})

	res, err := c.Login(context.Background(), domain.Credentials{Email: "bob@example.com", Password: "x"})
	require.NoError(t, err)
	assert.Equal(t, "abc", res.Token)
	assert.Equal(t, "u-7", res.User.ID)
	assert.Empty(t, res.User.Role)
}

func TestLoginWithoutTokenIsShapeError(t *testing.T) {
	c := newStubClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"data":{"id":1,"name":"Bob"}}`))
	})

	_, err := c.Login(context.Background(), domain.Credentials{Email: "bob@example.com", Password: "x"})
	var sErr *domain.ShapeError
	assert.ErrorAs(t, err, &sErr)
}

func TestRegister(t *testing.T) {
	c, _, _ := newSandboxClient(t)

	msg, err := c.Register(context.Background(), domain.Registration{
		FirstName: "Grace", LastName: "Hopper",
		Email: "grace@example.com", Password: "cobol!", ConfirmPassword: "cobol!",
	})
	require.NoError(t, err)
	assert.Equal(t, "Registration successful", msg)

	res, err := c.Login(context.Background(), domain.Credentials{Email: "grace@example.com", Password: "cobol!"})
	require.NoError(t, err)
	assert.Equal(t, "Grace Hopper", res.User.Name)
}

func TestListBooksKeepsRawValues(t *testing.T) {
	c, _, tokens := newSandboxClient(t)
	loginAs(t, c, tokens)

	books, err := c.ListBooks(context.Background())
	require.NoError(t, err)
	require.Len(t, books, len(sandbox.SeedBooks()))

	assert.Equal(t, json.Number("1"), books[0]["id"])
	assert.Equal(t, "1", books[1]["total_copies"])
}

func TestListBooksWithoutTokenFails(t *testing.T) {
	c, _, _ := newSandboxClient(t)

	_, err := c.ListBooks(context.Background())
	assert.ErrorIs(t, err, domain.ErrAuthFailed)
}

func TestSearchAndFilter(t *testing.T) {
	c, _, tokens := newSandboxClient(t)
	loginAs(t, c, tokens)

	found, err := c.SearchBooks(context.Background(), "go programming")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "The Go Programming Language", found[0]["title"])

	available, err := c.FilterBooks(context.Background(), "available")
	require.NoError(t, err)
	assert.Len(t, available, 2)
}

func TestGetBookNotFound(t *testing.T) {
	c, _, tokens := newSandboxClient(t)
	loginAs(t, c, tokens)

	book, err := c.GetBook(context.Background(), "4")
	require.NoError(t, err)
	assert.Equal(t, "Alan Donovan", book["author"])

	_, err = c.GetBook(context.Background(), "404")
	assert.True(t, domain.IsNotFound(err))
}

func TestGetBookNullDataIsNotFound(t *testing.T) {
	c := newStubClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"data":null}`))
	})

	_, err := c.GetBook(context.Background(), "9")
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "9", nf.ID)
}

func TestCreateUpdateDelete(t *testing.T) {
	c, sb, tokens := newSandboxClient(t, sandbox.WithBooks(nil))
	loginAs(t, c, tokens)
	ctx := context.Background()

	msg, err := c.CreateBook(ctx, domain.BookFields{
		Title: "Dune", Author: "Frank Herbert", PublishYear: 1965, TotalCopies: 2, AvailableCopies: 2,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Book created successfully", msg)
	require.Len(t, sb.Books(), 1)

	msg, err = c.UpdateBook(ctx, "1", domain.BookFields{
		Title: "Dune", Author: "Frank Herbert", PublishYear: 1965, TotalCopies: 2, AvailableCopies: 0,
	})
	require.NoError(t, err)
	assert.Equal(t, "Book updated successfully", msg)
	assert.EqualValues(t, 0, sb.Books()[0]["available_copies"])

	_, err = c.UpdateBook(ctx, "99", domain.BookFields{Title: "x", Author: "yy"})
	assert.True(t, domain.IsNotFound(err))

	msg, err = c.DeleteBook(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "Book deleted successfully", msg)
	assert.Empty(t, sb.Books())

	_, err = c.DeleteBook(ctx, "1")
	assert.True(t, domain.IsNotFound(err))
}

func TestCreateWithCoverUsesMultipart(t *testing.T) {
	c, sb, tokens := newSandboxClient(t, sandbox.WithBooks(nil))
	loginAs(t, c, tokens)

	cover := &domain.CoverUpload{Filename: "/home/ada/dune.jpg", Data: []byte("jpeg-bytes")}
	_, err := c.CreateBook(context.Background(), domain.BookFields{
		Title: "Dune", Author: "Frank Herbert", ISBN: "0441013597", PublishYear: 1965, TotalCopies: 1, AvailableCopies: 1,
	}, cover)
	require.NoError(t, err)

	books := sb.Books()
	require.Len(t, books, 1)
	assert.Equal(t, "0441013597", books[0]["ISBN"])
	assert.Equal(t, "1965", books[0]["publishYear"])

	name, _ := books[0]["img"].(string)
	assert.Contains(t, name, "dune.jpg")
	data, found := sb.Upload(name)
	require.True(t, found)
	assert.Equal(t, []byte("jpeg-bytes"), data)
}

func TestRetriesGetOnServerError(t *testing.T) {
	c, sb, tokens := newSandboxClient(t)
	loginAs(t, c, tokens)

	sb.FailNext(http.MethodGet, "/books", http.StatusBadGateway, "upstream", 2)

	books, err := c.ListBooks(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, books)
}

func TestGivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	c := newStubClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"success":false,"message":"database down"}`))
	})

	_, err := c.ListBooks(context.Background())
	var tErr *domain.TransportError
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, http.StatusInternalServerError, tErr.StatusCode)
	assert.Equal(t, "database down", tErr.Message)
	assert.Equal(t, int32(3), calls.Load())
}

func TestWritesAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	c := newStubClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.DeleteBook(context.Background(), "1")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, "Server error. Please try again later.", domain.Message(err))
}

func TestSuccessFalseIsTransportError(t *testing.T) {
	c := newStubClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"message":"Title already exists"}`))
	})

	_, err := c.CreateBook(context.Background(), domain.BookFields{Title: "Dune", Author: "Frank"}, nil)
	var tErr *domain.TransportError
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, "Title already exists", domain.Message(err))
}

func TestErrorObjectMessage(t *testing.T) {
	c := newStubClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"success":false,"error":{"code":"VALIDATION_ERROR","message":"ISBN is invalid"}}`))
	})

	_, err := c.CreateBook(context.Background(), domain.BookFields{Title: "Dune", Author: "Frank"}, nil)
	assert.Equal(t, "ISBN is invalid", domain.Message(err))
}

func TestMalformedListIsShapeError(t *testing.T) {
	bodies := map[string]string{
		"not json":      `<html>oops</html>`,
		"data object":   `{"success":true,"data":{"id":1}}`,
		"data missing":  `{"success":true}`,
		"broken object": `{"success":true,"data":[`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			c := newStubClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(body))
			})
			_, err := c.ListBooks(context.Background())
			var sErr *domain.ShapeError
			assert.ErrorAs(t, err, &sErr)
			assert.Equal(t, "Unexpected response format from server.", domain.Message(err))
		})
	}
}

func TestBareArrayIsAccepted(t *testing.T) {
	c := newStubClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":1,"title":"Dune"}, "junk", {"id":2,"title":"Emma"}]`))
	})

	books, err := c.ListBooks(context.Background())
	require.NoError(t, err)
	assert.Len(t, books, 2)
}

func TestOfflineServer(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	c, err := NewClient(Options{BaseURL: url, BasePath: "/api"}, nil, quietLogger())
	require.NoError(t, err)

	_, err = c.ListBooks(context.Background())
	assert.ErrorIs(t, err, domain.ErrServerOffline)
	assert.Equal(t, "Cannot connect to server. Please check if the backend is running.", domain.Message(err))
}

func TestCanceledContextIsNotOffline(t *testing.T) {
	c := newStubClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ListBooks(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, errors.Is(err, domain.ErrServerOffline))
}

func TestRequestHeaders(t *testing.T) {
	var got http.Header
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		assert.Equal(t, "/api/books", r.URL.Path)
		w.Write([]byte(`{"success":true,"data":[]}`))
	}))
	defer ts.Close()

	c, err := NewClient(Options{BaseURL: ts.URL, BasePath: "api/", UserAgent: "shelf/test"},
		domain.TokenFunc(func() string { return "tok" }), quietLogger())
	require.NoError(t, err)

	_, err = c.ListBooks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok", got.Get("Authorization"))
	assert.Equal(t, "shelf/test", got.Get("User-Agent"))
	assert.Equal(t, "application/json", got.Get("Accept"))
	assert.Len(t, got.Get("X-Request-ID"), 36)
}
