package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/memobloom/memobloom/internal/store"
)

// LocalProvider signs in against accounts in the local database.
type LocalProvider struct {
	db *store.DB
}

func NewLocalProvider(db *store.DB) *LocalProvider {
	return &LocalProvider{db: db}
}

func (p *LocalProvider) SignIn(_ context.Context, cred Credentials) (Identity, error) {
	a, err := p.db.GetAccountByEmail(cred.Email)
	if err != nil {
		return Identity{}, err
	}
	if a == nil || a.PasswordHash == "" {
		return Identity{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(cred.Password)); err != nil {
		return Identity{}, ErrInvalidCredentials
	}
	return identityOf(a), nil
}

// NewAccount describes a local account to register.
type NewAccount struct {
	Email     string
	Password  string
	Name      string
	Phone     string
	Role      Role
	PatientID string // required for family accounts
	Relation  string
}

// Register creates a local account with a bcrypt-hashed password. A family
// account must link to an existing patient.
func (p *LocalProvider) Register(_ context.Context, na NewAccount) (Identity, error) {
	if strings.TrimSpace(na.Email) == "" || na.Password == "" || strings.TrimSpace(na.Name) == "" {
		return Identity{}, ErrMissingCredentials
	}
	if !na.Role.Valid() {
		return Identity{}, fmt.Errorf("unknown role %q", na.Role)
	}
	if na.Role == RoleFamily {
		patient, err := p.db.GetAccount(na.PatientID)
		if err != nil {
			return Identity{}, err
		}
		if patient == nil || patient.Role != string(RolePatient) {
			return Identity{}, fmt.Errorf("patient %q not found", na.PatientID)
		}
	}
	existing, err := p.db.GetAccountByEmail(na.Email)
	if err != nil {
		return Identity{}, err
	}
	if existing != nil {
		return Identity{}, fmt.Errorf("account %s already exists", existing.Email)
	}

	hash, err := HashPassword(na.Password)
	if err != nil {
		return Identity{}, err
	}
	a := &store.Account{
		ID:           uuid.NewString(),
		Email:        na.Email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(na.Name),
		Phone:        strings.TrimSpace(na.Phone),
		Role:         string(na.Role),
		Relation:     strings.TrimSpace(na.Relation),
	}
	if na.Role == RoleFamily {
		a.PatientID = na.PatientID
	}
	if err := p.db.CreateAccount(a); err != nil {
		return Identity{}, err
	}
	return identityOf(a), nil
}

// HashPassword returns a bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", fmt.Errorf("password too long: %w", err)
		}
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func identityOf(a *store.Account) Identity {
	return Identity{
		UserID:    a.ID,
		Email:     a.Email,
		Name:      a.Name,
		Phone:     a.Phone,
		Role:      Role(a.Role),
		PatientID: a.PatientID,
		Relation:  a.Relation,
	}
}
