package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/mmcdole/shelf/internal/domain"
)

type registerPayload struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userDTO struct {
	ID    any    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
	Token string `json:"token"`
}

// Login authenticates and returns the user and bearer token
func (c *Client) Login(ctx context.Context, creds domain.Credentials) (*domain.AuthResult, error) {
	payload, err := json.Marshal(creds)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal credentials: %w", err)
	}
	env, err := c.do(ctx, request{
		op:          "login",
		method:      http.MethodPost,
		path:        "/login",
		body:        func() io.Reader { return bytes.NewReader(payload) },
		contentType: "application/json",
	})
	if err != nil {
		return nil, err
	}

	raw := env.Data
	if isNull(raw) {
		raw = env.User
	}
	var u userDTO
	if !isNull(raw) {
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&u); err != nil {
			return nil, &domain.ShapeError{Op: "login", Detail: "user is not an object"}
		}
	}

	token := u.Token
	if token == "" {
		token = env.Token
	}
	if token == "" {
		return nil, &domain.ShapeError{Op: "login", Detail: "response has no token"}
	}
	if u.Email == "" {
		u.Email = creds.Email
	}

	return &domain.AuthResult{
		User: domain.User{
			ID:    idString(u.ID),
			Name:  u.Name,
			Email: u.Email,
			Role:  u.Role,
		},
		Token:   token,
		Message: env.Message,
	}, nil
}

// Register creates an account and returns the server's message
func (c *Client) Register(ctx context.Context, reg domain.Registration) (string, error) {
	payload, err := json.Marshal(registerPayload{
		Name:     reg.FullName(),
		Email:    reg.Email,
		Password: reg.Password,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal registration: %w", err)
	}
	env, err := c.do(ctx, request{
		op:          "register",
		method:      http.MethodPost,
		path:        "/register",
		body:        func() io.Reader { return bytes.NewReader(payload) },
		contentType: "application/json",
	})
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

func idString(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
