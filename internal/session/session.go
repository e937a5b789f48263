// Package session holds the logged in identity and persists it between runs.
// A Session is the catalog's gate: it decides whether loads and writes may
// proceed and supplies the bearer token for API requests.
package session

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mmcdole/shelf/internal/domain"
	"github.com/mmcdole/shelf/internal/validate"
)

// Session manages login state. It implements domain.SessionGate and
// domain.TokenSource.
type Session struct {
	store  domain.SessionStore
	auth   domain.AuthRepository
	logger *slog.Logger
	now    func() time.Time

	mu       sync.RWMutex
	user     *domain.User
	token    string
	remember bool

	subMu  sync.Mutex
	subs   map[int]chan *domain.User
	nextID int
}

// New creates a Session. Call Init to restore a persisted identity.
func New(store domain.SessionStore, auth domain.AuthRepository, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		store:  store,
		auth:   auth,
		logger: logger,
		now:    time.Now,
		subs:   make(map[int]chan *domain.User),
	}
}

// SetAuth replaces the auth repository. The API client needs the session as
// its token source, so the two are wired after construction.
func (s *Session) SetAuth(auth domain.AuthRepository) {
	s.mu.Lock()
	s.auth = auth
	s.mu.Unlock()
}

// SetClock overrides the clock used for token expiry
func (s *Session) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

// Init restores the persisted identity, if any
func (s *Session) Init() {
	if s.store == nil {
		return
	}
	rec, found := s.store.LoadSession()
	if !found || rec.Token == "" {
		return
	}

	s.mu.Lock()
	user := rec.User
	s.user = &user
	s.token = rec.Token
	s.remember = rec.RememberMe
	s.mu.Unlock()

	s.logger.Debug("restored session", "email", rec.User.Email, "remember", rec.RememberMe)
	s.publish()
}

// Login validates the credentials, authenticates against the backend and
// persists the resulting identity.
func (s *Session) Login(ctx context.Context, email, password string, remember bool) (domain.User, error) {
	creds := domain.Credentials{Email: strings.TrimSpace(email), Password: password}
	if err := validate.Login(creds); err != nil {
		return domain.User{}, err
	}

	s.mu.RLock()
	auth := s.auth
	s.mu.RUnlock()

	res, err := auth.Login(ctx, creds)
	if err != nil {
		s.logger.Error("login failed", "email", creds.Email, "error", err)
		return domain.User{}, err
	}

	user := res.User
	if user.Role == "" {
		user.Role = domain.DefaultRole
	}

	s.mu.Lock()
	s.user = &user
	s.token = res.Token
	s.remember = remember
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.SaveSession(domain.SessionRecord{User: user, Token: res.Token, RememberMe: remember}); err != nil {
			s.logger.Error("failed to persist session", "error", err)
		}
	}

	s.logger.Info("logged in", "email", user.Email, "role", user.Role)
	s.publish()
	return user, nil
}

// Register validates the form and creates an account. It does not log in.
func (s *Session) Register(ctx context.Context, reg domain.Registration) (string, error) {
	reg.FirstName = strings.TrimSpace(reg.FirstName)
	reg.LastName = strings.TrimSpace(reg.LastName)
	reg.Email = strings.TrimSpace(reg.Email)
	if err := validate.Registration(reg); err != nil {
		return "", err
	}

	s.mu.RLock()
	auth := s.auth
	s.mu.RUnlock()

	msg, err := auth.Register(ctx, reg)
	if err != nil {
		s.logger.Error("registration failed", "email", reg.Email, "error", err)
		return "", err
	}
	if msg == "" {
		msg = "Registration successful! Please login."
	}
	s.logger.Info("registered", "email", reg.Email)
	return msg, nil
}

// Logout forgets the user, token and remember flag
func (s *Session) Logout() error {
	s.mu.Lock()
	s.user = nil
	s.token = ""
	s.remember = false
	s.mu.Unlock()

	var err error
	if s.store != nil {
		err = s.store.ClearSession()
		if err != nil {
			s.logger.Error("failed to clear session", "error", err)
		}
	}
	s.logger.Info("logged out")
	s.publish()
	return err
}

// IsAuthenticated reports whether a token is held. JWTs with an exp claim
// in the past do not count; opaque tokens are accepted as is.
func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	token := s.token
	now := s.now
	s.mu.RUnlock()

	if token == "" {
		return false
	}
	return !expired(token, now())
}

func expired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !now.Before(exp.Time)
}

// CurrentUser returns the logged in user
func (s *Session) CurrentUser() (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return domain.User{}, false
	}
	return *s.user, true
}

// Token returns the bearer token, or "" when logged out
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Role returns the user's role, defaulting to librarian
func (s *Session) Role() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil || s.user.Role == "" {
		return domain.DefaultRole
	}
	return s.user.Role
}

// RememberMe reports whether the user asked to stay logged in
func (s *Session) RememberMe() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.remember
}

// AutoLogin reports whether the login screen can be skipped
func (s *Session) AutoLogin() bool {
	return s.RememberMe() && s.IsAuthenticated()
}

// Subscribe delivers the current user immediately and then every change.
// Slow subscribers only see the latest value.
func (s *Session) Subscribe() (<-chan *domain.User, func()) {
	ch := make(chan *domain.User, 1)
	ch <- s.snapshotUser()

	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

func (s *Session) snapshotUser() *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Session) publish() {
	user := s.snapshotUser()

	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		// drop a stale value so the newest one fits
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- user:
		default:
		}
	}
}
