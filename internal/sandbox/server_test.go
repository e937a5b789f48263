package sandbox

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, opts ...Option) (*Server, *httptest.Server) {
	t.Helper()
	opts = append([]Option{WithAccount("Ada Lovelace", "ada@example.com", "secret1", "admin")}, opts...)
	s := New(slog.New(slog.NewTextHandler(io.Discard, nil)), opts...)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

type response struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func call(t *testing.T, ts *httptest.Server, method, path, token string, body io.Reader, contentType string) (int, response) {
	t.Helper()
	req, err := http.NewRequest(method, ts.URL+DefaultAPIPath+path, body)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func login(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	body := `{"email":"ada@example.com","password":"secret1"}`
	status, resp := call(t, ts, http.MethodPost, "/login", "", bytes.NewBufferString(body), "application/json")
	require.Equal(t, http.StatusOK, status)

	var user struct {
		Token string `json:"token"`
		Role  string `json:"role"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &user))
	require.NotEmpty(t, user.Token)
	assert.Equal(t, "admin", user.Role)
	return user.Token
}

func TestLoginRejectsBadPassword(t *testing.T) {
	_, ts := newTestServer(t)

	body := `{"email":"ada@example.com","password":"nope"}`
	status, resp := call(t, ts, http.MethodPost, "/login", "", bytes.NewBufferString(body), "application/json")

	assert.Equal(t, http.StatusUnauthorized, status)
	assert.False(t, resp.Success)
	assert.Equal(t, "Invalid email or password", resp.Message)
}

func TestTokensAreUnique(t *testing.T) {
	s, ts := newTestServer(t)

	first, err := s.parseToken(login(t, ts))
	require.NoError(t, err)
	second, err := s.parseToken(login(t, ts))
	require.NoError(t, err)

	assert.Equal(t, "admin", first.Role)
	assert.NotEmpty(t, first.ID)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestBooksRequireToken(t *testing.T) {
	_, ts := newTestServer(t)

	status, resp := call(t, ts, http.MethodGet, "/books", "", nil, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.False(t, resp.Success)

	status, _ = call(t, ts, http.MethodGet, "/books", "garbage", nil, "")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestRegisterThenLogin(t *testing.T) {
	_, ts := newTestServer(t)

	body := `{"name":"Grace Hopper","email":"grace@example.com","password":"cobol!"}`
	status, resp := call(t, ts, http.MethodPost, "/register", "", bytes.NewBufferString(body), "application/json")
	assert.Equal(t, http.StatusCreated, status)
	assert.True(t, resp.Success)

	status, _ = call(t, ts, http.MethodPost, "/register", "", bytes.NewBufferString(body), "application/json")
	assert.Equal(t, http.StatusConflict, status)

	body = `{"email":"grace@example.com","password":"cobol!"}`
	status, _ = call(t, ts, http.MethodPost, "/login", "", bytes.NewBufferString(body), "application/json")
	assert.Equal(t, http.StatusOK, status)
}

func TestCrudRoundTrip(t *testing.T) {
	s, ts := newTestServer(t, WithBooks(nil))
	token := login(t, ts)

	body := `{"title":"Dune","author":"Frank Herbert","publishYear":1965,"total_copies":2,"available_copies":2}`
	status, _ := call(t, ts, http.MethodPost, "/books", token, bytes.NewBufferString(body), "application/json")
	require.Equal(t, http.StatusCreated, status)
	require.Len(t, s.Books(), 1)
	assert.Equal(t, 1, s.Books()[0]["id"])

	body = `{"available_copies":0}`
	status, resp := call(t, ts, http.MethodPut, "/books/1", token, bytes.NewBufferString(body), "application/json")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Book updated successfully", resp.Message)
	assert.EqualValues(t, 0, s.Books()[0]["available_copies"])

	status, _ = call(t, ts, http.MethodGet, "/books/filter?status=available", token, nil, "")
	assert.Equal(t, http.StatusOK, status)

	status, _ = call(t, ts, http.MethodDelete, "/books/1", token, nil, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Empty(t, s.Books())

	status, resp = call(t, ts, http.MethodDelete, "/books/1", token, nil, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Book not found", resp.Message)
}

func TestSearchMatchesTitleCaseInsensitively(t *testing.T) {
	_, ts := newTestServer(t)
	token := login(t, ts)

	status, resp := call(t, ts, http.MethodGet, "/books/search?title=PRAGMATIC", token, nil, "")
	require.Equal(t, http.StatusOK, status)

	var books []map[string]any
	require.NoError(t, json.Unmarshal(resp.Data, &books))
	assert.Len(t, books, 2)
}

func TestUploadStoresCover(t *testing.T) {
	s, ts := newTestServer(t, WithBooks(nil))
	token := login(t, ts)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("title", "Dune"))
	require.NoError(t, w.WriteField("author", "Frank Herbert"))
	part, err := w.CreateFormFile("image", "dune.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("\x89PNG\r\n\x1a\nfake"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	status, _ := call(t, ts, http.MethodPost, "/books/upload", token, &buf, w.FormDataContentType())
	require.Equal(t, http.StatusCreated, status)

	books := s.Books()
	require.Len(t, books, 1)
	name, _ := books[0]["img"].(string)
	assert.Contains(t, name, "dune.png")

	data, found := s.Upload(name)
	require.True(t, found)

	resp, err := http.Get(ts.URL + DefaultUploadsPath + "/" + name)
	require.NoError(t, err)
	defer resp.Body.Close()
	got, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, data, got)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
}

func TestFailNextInjectsErrors(t *testing.T) {
	s, ts := newTestServer(t)
	token := login(t, ts)

	s.FailNext(http.MethodGet, "/books", http.StatusServiceUnavailable, "maintenance", 1)

	status, resp := call(t, ts, http.MethodGet, "/books", token, nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "maintenance", resp.Message)

	status, _ = call(t, ts, http.MethodGet, "/books", token, nil, "")
	assert.Equal(t, http.StatusOK, status)
}
