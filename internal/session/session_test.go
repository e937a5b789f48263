package session

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/shelf/internal/domain"
	"github.com/mmcdole/shelf/internal/store"
)

type mockAuth struct {
	mock.Mock
}

func (m *mockAuth) Login(ctx context.Context, creds domain.Credentials) (*domain.AuthResult, error) {
	args := m.Called(ctx, creds)
	res, _ := args.Get(0).(*domain.AuthResult)
	return res, args.Error(1)
}

func (m *mockAuth) Register(ctx context.Context, reg domain.Registration) (string, error) {
	args := m.Called(ctx, reg)
	return args.String(0), args.Error(1)
}

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func memStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open("", "http://localhost:8080")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func signed(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "1",
		"exp": exp.Unix(),
	}).SignedString([]byte("k"))
	require.NoError(t, err)
	return tok
}

func TestLoginPersistsIdentity(t *testing.T) {
	st := memStore(t)
	auth := &mockAuth{}
	auth.On("Login", mock.Anything, domain.Credentials{Email: "ada@example.com", Password: "secret1"}).
		Return(&domain.AuthResult{User: domain.User{ID: "1", Name: "Ada", Email: "ada@example.com"}, Token: "opaque"}, nil)

	s := New(st, auth, quiet())
	user, err := s.Login(context.Background(), "  ada@example.com ", "secret1", true)
	require.NoError(t, err)

	assert.Equal(t, domain.DefaultRole, user.Role)
	assert.True(t, s.IsAuthenticated())
	assert.True(t, s.AutoLogin())
	assert.Equal(t, "opaque", s.Token())
	assert.Equal(t, "librarian", s.Role())

	restored := New(st, auth, quiet())
	restored.Init()
	got, ok := restored.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, "Ada", got.Name)
	assert.True(t, restored.RememberMe())
	auth.AssertExpectations(t)
}

func TestLoginValidatesBeforeCallingBackend(t *testing.T) {
	auth := &mockAuth{}
	s := New(memStore(t), auth, quiet())

	_, err := s.Login(context.Background(), "not-an-email", "", false)
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Len(t, vErr.Fields, 2)
	auth.AssertNotCalled(t, "Login", mock.Anything, mock.Anything)
	assert.False(t, s.IsAuthenticated())
}

func TestLoginFailureKeepsLoggedOut(t *testing.T) {
	auth := &mockAuth{}
	auth.On("Login", mock.Anything, mock.Anything).
		Return(nil, &domain.TransportError{Op: "login", StatusCode: 401, Err: domain.ErrAuthFailed})

	s := New(memStore(t), auth, quiet())
	_, err := s.Login(context.Background(), "ada@example.com", "bad", false)
	assert.ErrorIs(t, err, domain.ErrAuthFailed)
	assert.False(t, s.IsAuthenticated())
	_, ok := s.CurrentUser()
	assert.False(t, ok)
}

func TestWithoutRememberNoAutoLogin(t *testing.T) {
	auth := &mockAuth{}
	auth.On("Login", mock.Anything, mock.Anything).
		Return(&domain.AuthResult{User: domain.User{ID: "1", Role: "admin"}, Token: "t"}, nil)

	s := New(memStore(t), auth, quiet())
	_, err := s.Login(context.Background(), "ada@example.com", "secret1", false)
	require.NoError(t, err)

	assert.True(t, s.IsAuthenticated())
	assert.False(t, s.AutoLogin())
	assert.Equal(t, "admin", s.Role())
}

func TestLogoutClearsEverything(t *testing.T) {
	st := memStore(t)
	auth := &mockAuth{}
	auth.On("Login", mock.Anything, mock.Anything).
		Return(&domain.AuthResult{User: domain.User{ID: "1"}, Token: "t"}, nil)

	s := New(st, auth, quiet())
	_, err := s.Login(context.Background(), "ada@example.com", "secret1", true)
	require.NoError(t, err)

	require.NoError(t, s.Logout())
	assert.False(t, s.IsAuthenticated())
	assert.False(t, s.RememberMe())
	assert.Empty(t, s.Token())

	_, found := st.LoadSession()
	assert.False(t, found)
}

func TestExpiredJWTIsNotAuthenticated(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	st := memStore(t)
	require.NoError(t, st.SaveSession(domain.SessionRecord{
		User:       domain.User{ID: "1"},
		Token:      signed(t, now.Add(time.Hour)),
		RememberMe: true,
	}))

	s := New(st, nil, quiet())
	s.SetClock(func() time.Time { return now })
	s.Init()
	assert.True(t, s.IsAuthenticated())

	s.SetClock(func() time.Time { return now.Add(2 * time.Hour) })
	assert.False(t, s.IsAuthenticated())
	assert.False(t, s.AutoLogin())
}

func TestRegister(t *testing.T) {
	auth := &mockAuth{}
	reg := domain.Registration{
		FirstName: "Grace", LastName: "Hopper",
		Email: "grace@example.com", Password: "cobol!", ConfirmPassword: "cobol!",
	}
	auth.On("Register", mock.Anything, reg).Return("", nil)

	s := New(memStore(t), auth, quiet())
	msg, err := s.Register(context.Background(), reg)
	require.NoError(t, err)
	assert.Equal(t, "Registration successful! Please login.", msg)
	assert.False(t, s.IsAuthenticated())

	reg.ConfirmPassword = "other"
	_, err = s.Register(context.Background(), reg)
	assert.EqualError(t, err, "validation failed: Passwords do not match")
}

func TestSubscribeReplaysCurrentValue(t *testing.T) {
	auth := &mockAuth{}
	auth.On("Login", mock.Anything, mock.Anything).
		Return(&domain.AuthResult{User: domain.User{ID: "7", Name: "Ada"}, Token: "t"}, nil)

	s := New(memStore(t), auth, quiet())
	ch, cancel := s.Subscribe()
	defer cancel()

	assert.Nil(t, <-ch)

	_, err := s.Login(context.Background(), "ada@example.com", "secret1", false)
	require.NoError(t, err)
	u := <-ch
	require.NotNil(t, u)
	assert.Equal(t, "7", u.ID)

	late, cancelLate := s.Subscribe()
	defer cancelLate()
	u = <-late
	require.NotNil(t, u)
	assert.Equal(t, "Ada", u.Name)

	require.NoError(t, s.Logout())
	assert.Nil(t, <-ch)
}

func TestCancelClosesChannel(t *testing.T) {
	s := New(nil, nil, quiet())
	ch, cancel := s.Subscribe()
	<-ch
	cancel()
	cancel()

	_, open := <-ch
	assert.False(t, open)
}
