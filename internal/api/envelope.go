package api

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/mmcdole/shelf/internal/domain"
)

// envelope is the single decoded form of every API response. The backend
// answers either with {success, data, message} or, on some routes, with a
// bare array; both end up here.
type envelope struct {
	Success bool
	Data    json.RawMessage
	Message string

	// Login responses may carry these next to or instead of data
	Token string
	User  json.RawMessage
}

type wireEnvelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Token   string          `json:"token"`
	User    json.RawMessage `json:"user"`
}

// decodeEnvelope classifies a 2xx body. success=false becomes a
// TransportError carrying the server message.
func decodeEnvelope(op string, body []byte) (*envelope, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return &envelope{Success: true}, nil
	}

	switch trimmed[0] {
	case '[':
		return &envelope{Success: true, Data: json.RawMessage(trimmed)}, nil
	case '{':
	default:
		return nil, &domain.ShapeError{Op: op, Detail: "body is not a JSON object or array"}
	}

	var w wireEnvelope
	if err := json.Unmarshal(trimmed, &w); err != nil {
		return nil, &domain.ShapeError{Op: op, Detail: err.Error()}
	}

	env := &envelope{
		Success: w.Success == nil || *w.Success,
		Data:    w.Data,
		Message: w.Message,
		Token:   w.Token,
		User:    w.User,
	}
	if !env.Success {
		msg := env.Message
		if msg == "" {
			msg = "request was not successful"
		}
		return nil, &domain.TransportError{Op: op, Message: msg}
	}
	return env, nil
}

// envelopeMessage extracts message from an error body, if it has one
func envelopeMessage(body []byte) string {
	var w struct {
		Message string `json:"message"`
		Error   any    `json:"error"`
	}
	if json.Unmarshal(body, &w) != nil {
		return ""
	}
	if w.Message != "" {
		return w.Message
	}
	switch e := w.Error.(type) {
	case string:
		return e
	case map[string]any:
		if m, ok := e["message"].(string); ok {
			return m
		}
	}
	return ""
}

func isNull(data json.RawMessage) bool {
	t := strings.TrimSpace(string(data))
	return t == "" || t == "null"
}

// list decodes env.Data as an array of book records. Numbers are kept as
// json.Number so the normalizer sees exactly what the server sent.
func (env *envelope) list(op string) ([]domain.RawBook, error) {
	if isNull(env.Data) {
		return nil, &domain.ShapeError{Op: op, Detail: "missing data array"}
	}

	dec := json.NewDecoder(bytes.NewReader(env.Data))
	dec.UseNumber()
	var items []any
	if err := dec.Decode(&items); err != nil {
		return nil, &domain.ShapeError{Op: op, Detail: "data is not an array"}
	}

	books := make([]domain.RawBook, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			books = append(books, domain.RawBook(m))
		}
	}
	return books, nil
}

// object decodes raw as a single record; ok is false for null or non-objects
func object(raw json.RawMessage) (domain.RawBook, bool) {
	if isNull(raw) {
		return nil, false
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil || m == nil {
		return nil, false
	}
	return domain.RawBook(m), true
}
