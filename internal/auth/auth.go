// Package auth signs patients and family members in, issues API tokens and
// carries the resulting Session through request contexts.
package auth

import (
	"context"
	"errors"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrMissingCredentials = errors.New("please fill in all fields")
	ErrWrongRole          = errors.New("account cannot sign in here")
	ErrForbidden          = errors.New("not allowed for this account")
	ErrMissingToken       = errors.New("missing authentication token")
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token has expired")
)

// Role is the kind of account.
type Role string

const (
	RolePatient Role = "patient"
	RoleFamily  Role = "family"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RolePatient || r == RoleFamily
}

// Credentials are what a login form submits. An empty Role accepts either
// kind of account.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role,omitempty"`
}

// Identity is a signed-in account as reported by a Provider.
type Identity struct {
	UserID    string
	Email     string
	Name      string
	Phone     string
	Role      Role
	PatientID string
	Relation  string
}

// Provider checks credentials against an account source.
type Provider interface {
	SignIn(ctx context.Context, cred Credentials) (Identity, error)
}

// Session is the authenticated caller. It is passed explicitly, never read
// from process-wide state.
type Session struct {
	ID        string `json:"session_id"`
	UserID    string `json:"user_id"`
	Role      Role   `json:"role"`
	PatientID string `json:"patient_id"`
	Name      string `json:"name"`
}

// OwnerID is the patient whose memories the session works on: the caller
// for a patient, the linked patient for a family member.
func (s Session) OwnerID() string {
	return s.PatientID
}

type sessionKey struct{}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// FromContext returns the session stored by WithSession.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(Session)
	return s, ok
}
