package sandbox

import (
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cast"
)

const maxUploadBytes = 5 << 20

// editable lists the record keys a client may write
var editable = []string{"title", "author", "ISBN", "publishYear", "pages", "total_copies", "available_copies", "img"}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	ok(w, s.Books(), "")
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("title")))
	var out []map[string]any
	for _, b := range s.Books() {
		title := strings.ToLower(cast.ToString(b["title"]))
		if strings.Contains(title, q) {
			out = append(out, b)
		}
	}
	if out == nil {
		out = []map[string]any{}
	}
	ok(w, out, "")
}

func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	status := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("status")))
	out := []map[string]any{}
	for _, b := range s.Books() {
		available := cast.ToInt(b["available_copies"]) > 0
		switch status {
		case "available", "on_shelf":
			if available {
				out = append(out, b)
			}
		case "unavailable":
			if !available {
				out = append(out, b)
			}
		default:
			out = append(out, b)
		}
	}
	ok(w, out, "")
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	idx := s.indexOf(id)
	var book map[string]any
	if idx >= 0 {
		book = clone(s.books[idx])
	}
	s.mu.Unlock()

	if book == nil {
		fail(w, http.StatusNotFound, "Book not found")
		return
	}
	ok(w, book, "")
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if msg := checkRequired(body); msg != "" {
		fail(w, http.StatusBadRequest, msg)
		return
	}
	s.insert(pick(body))
	writeJSON(w, http.StatusCreated, envelope{Success: true, Message: "Book created successfully"})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		fail(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	body := make(map[string]any)
	for _, key := range editable {
		if v := r.FormValue(key); v != "" {
			body[key] = v
		}
	}
	if msg := checkRequired(body); msg != "" {
		fail(w, http.StatusBadRequest, msg)
		return
	}

	file, header, err := r.FormFile("image")
	if err == nil {
		defer file.Close()
		data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
		if err != nil {
			fail(w, http.StatusBadRequest, "Could not read image")
			return
		}
		name := strconv.FormatInt(time.Now().UnixNano(), 10) + "-" + filepath.Base(header.Filename)
		s.mu.Lock()
		s.uploads[name] = data
		s.mu.Unlock()
		body["img"] = name
	}

	s.insert(body)
	writeJSON(w, http.StatusCreated, envelope{Success: true, Message: "Book created successfully"})
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOf(id)
	if idx < 0 {
		fail(w, http.StatusNotFound, "Book not found")
		return
	}
	for k, v := range pick(body) {
		s.books[idx][k] = v
	}
	ok(w, nil, "Book updated successfully")
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOf(id)
	if idx < 0 {
		fail(w, http.StatusNotFound, "Book not found")
		return
	}
	s.books = append(s.books[:idx], s.books[idx+1:]...)
	ok(w, nil, "Book deleted successfully")
}

func (s *Server) handleCover(w http.ResponseWriter, r *http.Request) {
	data, found := s.Upload(chi.URLParam(r, "name"))
	if !found {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.Write(data)
}

// indexOf must be called with s.mu held
func (s *Server) indexOf(id string) int {
	for i, b := range s.books {
		if idOf(b) == id {
			return i
		}
	}
	return -1
}

func (s *Server) insert(book map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	book["id"] = s.nextID
	book["created_at"] = time.Now().UTC().Format(time.RFC3339)
	s.nextID++
	s.books = append(s.books, book)
}

func pick(body map[string]any) map[string]any {
	out := make(map[string]any, len(editable))
	for _, key := range editable {
		if v, found := body[key]; found {
			out[key] = v
		}
	}
	return out
}

func checkRequired(body map[string]any) string {
	if strings.TrimSpace(cast.ToString(body["title"])) == "" {
		return "Title is required"
	}
	if strings.TrimSpace(cast.ToString(body["author"])) == "" {
		return "Author is required"
	}
	return ""
}
