package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/memobloom/memobloom/internal/store"
)

// Token is the result of a successful login.
type Token struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Session   Session   `json:"session"`
}

// Service ties a Provider to token issuance and session tracking.
type Service struct {
	provider Provider
	issuer   *Issuer
	db       *store.DB
	log      *zap.Logger
}

func NewService(provider Provider, issuer *Issuer, db *store.DB, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{provider: provider, issuer: issuer, db: db, log: log}
}

// Login checks credentials, opens a session and returns a token for it.
func (s *Service) Login(ctx context.Context, cred Credentials) (Token, Identity, error) {
	cred.Email = strings.TrimSpace(cred.Email)
	if cred.Email == "" || cred.Password == "" {
		return Token{}, Identity{}, ErrMissingCredentials
	}
	if cred.Role != "" && !cred.Role.Valid() {
		return Token{}, Identity{}, fmt.Errorf("%w: unknown role %q", ErrWrongRole, cred.Role)
	}

	id, err := s.provider.SignIn(ctx, cred)
	if err != nil {
		s.log.Info("sign-in failed", zap.String("email", cred.Email), zap.Error(err))
		return Token{}, Identity{}, err
	}
	if cred.Role != "" && id.Role != cred.Role {
		return Token{}, Identity{}, ErrWrongRole
	}

	sess := Session{
		ID:        uuid.NewString(),
		UserID:    id.UserID,
		Role:      id.Role,
		PatientID: id.PatientID,
		Name:      id.Name,
	}
	if _, err := s.db.StartSession(sess.ID, sess.UserID); err != nil {
		return Token{}, Identity{}, err
	}
	signed, exp, err := s.issuer.Issue(sess)
	if err != nil {
		return Token{}, Identity{}, err
	}

	if err := s.db.AddActivity(id.PatientID, id.UserID, store.ActivitySignedIn, id.Name+" signed in"); err != nil {
		s.log.Warn("record sign-in activity", zap.Error(err))
	}
	s.log.Info("signed in", zap.String("user", id.UserID), zap.String("role", string(id.Role)))
	return Token{Token: signed, ExpiresAt: exp, Session: sess}, id, nil
}

// Logout ends the session. Its tokens stop authenticating.
func (s *Service) Logout(_ context.Context, sess Session) error {
	if err := s.db.EndSession(sess.ID); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	s.log.Info("signed out", zap.String("user", sess.UserID))
	return nil
}

// Authenticate verifies a bearer token and checks its session is still
// active.
func (s *Service) Authenticate(_ context.Context, token string) (Session, error) {
	sess, err := s.issuer.Parse(token)
	if err != nil {
		return Session{}, err
	}
	row, err := s.db.GetSession(sess.ID)
	if err != nil {
		return Session{}, err
	}
	if row == nil || row.Status != "active" || row.UserID != sess.UserID {
		return Session{}, fmt.Errorf("%w: session ended", ErrInvalidToken)
	}
	if err := s.db.TouchSession(sess.ID); err != nil {
		s.log.Warn("touch session", zap.Error(err))
	}
	return sess, nil
}
