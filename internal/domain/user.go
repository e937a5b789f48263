package domain

// DefaultRole is assigned when the backend does not report one
const DefaultRole = "librarian"

// User is the authenticated identity returned by the backend
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

// Credentials is a login request
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Registration is the sign-up form as entered by the user
type Registration struct {
	FirstName       string `json:"-" validate:"notblank,min=2"`
	LastName        string `json:"-" validate:"notblank,min=2"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"-" validate:"eqfield=Password"`
}

// FullName joins first and last name the way the backend stores it
func (r Registration) FullName() string {
	return r.FirstName + " " + r.LastName
}

// AuthResult contains the result of a successful login
type AuthResult struct {
	User    User
	Token   string
	Message string
}

// SessionRecord is the identity persisted between runs
type SessionRecord struct {
	User       User   `json:"user"`
	Token      string `json:"token"`
	RememberMe bool   `json:"remember_me"`
}

// SessionStore persists the logged in identity
type SessionStore interface {
	LoadSession() (SessionRecord, bool)
	SaveSession(rec SessionRecord) error
	ClearSession() error
}
