// Package sandbox is an in-memory stand-in for the library management
// backend. It speaks the same routes and envelope as the real API and is
// used for local development and tests.
package sandbox

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Default route prefixes, matching the real deployment
const (
	DefaultAPIPath     = "/library-management-system/api"
	DefaultUploadsPath = "/library-management-system/uploads"
)

type account struct {
	ID       int
	Name     string
	Email    string
	Password string
	Role     string
}

type failure struct {
	status  int
	message string
	times   int
}

// Server holds the fake backend's state
type Server struct {
	logger    *slog.Logger
	secret    []byte
	tokenTTL  time.Duration
	apiPath   string
	uploadDir string

	mu       sync.Mutex
	books    []map[string]any
	nextID   int
	accounts map[string]*account
	uploads  map[string][]byte
	failures map[string]*failure
}

// Option configures a Server
type Option func(*Server)

// WithTokenTTL sets the lifetime of issued tokens
func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Server) { s.tokenTTL = ttl }
}

// WithBooks replaces the seed catalog. Records are served as given.
func WithBooks(books []map[string]any) Option {
	return func(s *Server) {
		s.books = books
		s.nextID = 1
		for _, b := range books {
			if id, err := strconv.Atoi(idOf(b)); err == nil && id >= s.nextID {
				s.nextID = id + 1
			}
		}
	}
}

// WithAccount registers a user up front
func WithAccount(name, email, password, role string) Option {
	return func(s *Server) {
		s.accounts[strings.ToLower(email)] = &account{
			ID:       len(s.accounts) + 1,
			Name:     name,
			Email:    email,
			Password: password,
			Role:     role,
		}
	}
}

// New creates a sandbox seeded with sample books
func New(logger *slog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		logger:    logger,
		secret:    []byte("sandbox-secret"),
		tokenTTL:  24 * time.Hour,
		apiPath:   DefaultAPIPath,
		uploadDir: DefaultUploadsPath,
		accounts:  make(map[string]*account),
		uploads:   make(map[string][]byte),
		failures:  make(map[string]*failure),
	}
	WithBooks(SeedBooks())(s)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FailNext makes the next n requests matching method and path (relative
// to the API prefix, e.g. "/books/3") answer with status and message.
func (s *Server) FailNext(method, path string, status int, message string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = &failure{status: status, message: message, times: n}
}

// Books returns a copy of the current records
func (s *Server) Books() []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]map[string]any, len(s.books))
	for i, b := range s.books {
		out[i] = clone(b)
	}
	return out
}

// Upload returns a stored cover image by filename
func (s *Server) Upload(name string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.uploads[name]
	return data, ok
}

// Handler returns the full router: the API under its prefix and uploaded
// covers under the uploads prefix.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Route(s.apiPath, func(r chi.Router) {
		r.Use(s.injectFailures)
		r.Post("/login", s.handleLogin)
		r.Post("/register", s.handleRegister)

		r.Group(func(r chi.Router) {
			r.Use(s.requireToken)
			r.Get("/books", s.handleList)
			r.Get("/books/search", s.handleSearch)
			r.Get("/books/filter", s.handleFilter)
			r.Get("/books/{id}", s.handleGet)
			r.Post("/books", s.handleCreate)
			r.Post("/books/upload", s.handleUpload)
			r.Put("/books/{id}", s.handleUpdate)
			r.Delete("/books/{id}", s.handleDelete)
		})
	})

	r.Get(s.uploadDir+"/{name}", s.handleCover)

	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("sandbox request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"request_id", middleware.GetReqID(r.Context()),
			"client_request_id", r.Header.Get("X-Request-ID"),
			"duration", time.Since(start),
		)
	})
}

func (s *Server) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rel := strings.TrimPrefix(r.URL.Path, s.apiPath)
		key := r.Method + " " + rel

		s.mu.Lock()
		f, ok := s.failures[key]
		if ok {
			f.times--
			if f.times <= 0 {
				delete(s.failures, key)
			}
		}
		s.mu.Unlock()

		if ok {
			writeJSON(w, f.status, envelope{Success: false, Message: f.message})
			return
		}
		next.ServeHTTP(w, r)
	})
}

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func ok(w http.ResponseWriter, data any, message string) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: data, Message: message})
}

func fail(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: false, Message: message})
}

func clone(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func idOf(b map[string]any) string {
	switch v := b["id"].(type) {
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.Itoa(int(v))
	case string:
		return v
	case json.Number:
		return v.String()
	}
	return ""
}
