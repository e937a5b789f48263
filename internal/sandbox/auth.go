package sandbox

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims are the sandbox token claims
type Claims struct {
	Sub  int    `json:"sub"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func (s *Server) issueToken(a *account) (string, error) {
	now := time.Now()
	claims := Claims{
		Sub:  a.ID,
		Role: a.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.Itoa(a.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Server) parseToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		tokenStr, found := strings.CutPrefix(header, "Bearer ")
		if !found || tokenStr == "" {
			fail(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		if _, err := s.parseToken(tokenStr); err != nil {
			fail(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	a, found := s.accounts[strings.ToLower(strings.TrimSpace(req.Email))]
	s.mu.Unlock()

	if !found || a.Password != req.Password {
		fail(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := s.issueToken(a)
	if err != nil {
		s.logger.Error("failed to sign token", "error", err)
		fail(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	ok(w, map[string]any{
		"id":    a.ID,
		"name":  a.Name,
		"email": a.Email,
		"role":  a.Role,
		"token": token,
	}, "Login successful")
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if strings.TrimSpace(req.Name) == "" || email == "" || req.Password == "" {
		fail(w, http.StatusBadRequest, "Name, email and password are required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[email]; exists {
		fail(w, http.StatusConflict, "Email is already registered")
		return
	}
	s.accounts[email] = &account{
		ID:       len(s.accounts) + 1,
		Name:     strings.TrimSpace(req.Name),
		Email:    req.Email,
		Password: req.Password,
		Role:     "librarian",
	}
	writeJSON(w, http.StatusCreated, envelope{Success: true, Message: "Registration successful"})
}
