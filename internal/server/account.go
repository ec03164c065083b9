package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/memobloom/memobloom/internal/auth"
	"github.com/memobloom/memobloom/internal/store"
)

type profileJSON struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Role         string `json:"role"`
	PatientID    string `json:"patient_id"`
	Relation     string `json:"relation,omitempty"`
	FontSize     int    `json:"font_size"`
	HighContrast bool   `json:"high_contrast"`
	Theme        string `json:"theme"`
}

func toProfile(a *store.Account) profileJSON {
	return profileJSON{
		ID:           a.ID,
		Name:         a.Name,
		Email:        a.Email,
		Phone:        a.Phone,
		Role:         a.Role,
		PatientID:    a.PatientID,
		Relation:     a.Relation,
		FontSize:     a.FontSize,
		HighContrast: a.HighContrast,
		Theme:        a.Theme,
	}
}

func (s *Server) account(id string) (*store.Account, error) {
	a, err := s.db.GetAccount(id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, fmt.Errorf("%w: account %s", auth.ErrInvalidToken, id)
	}
	return a, nil
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var cred auth.Credentials
	if err := decode(r, &cred); err != nil {
		s.writeError(w, r, err)
		return
	}

	tok, id, err := s.auth.Login(r.Context(), cred)
	if s.metrics != nil {
		result := "ok"
		if err != nil {
			result = "rejected"
		}
		s.metrics.SignIns.WithLabelValues(result).Inc()
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	a, err := s.account(id.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token":      tok.Token,
		"expires_at": tok.ExpiresAt.UTC().Format(time.RFC3339),
		"profile":    toProfile(a),
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.Logout(r.Context(), session(r)); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "signed_out"})
}

func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	a, err := s.account(session(r).UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfile(a))
}

// profileUpdate is the Settings form. Absent fields keep their current value.
type profileUpdate struct {
	Name         string `json:"name" validate:"required,max=80"`
	Email        string `json:"email" validate:"required,email"`
	Phone        string `json:"phone" validate:"max=32"`
	FontSize     int    `json:"font_size" validate:"min=12,max=32"`
	HighContrast bool   `json:"high_contrast"`
	Theme        string `json:"theme" validate:"oneof=light dark"`
}

func (s *Server) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	a, err := s.account(sess.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	req := profileUpdate{
		Name:         a.Name,
		Email:        a.Email,
		Phone:        a.Phone,
		FontSize:     a.FontSize,
		HighContrast: a.HighContrast,
		Theme:        a.Theme,
	}
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := validateStruct(&req); err != nil {
		s.writeError(w, r, err)
		return
	}

	a.Name, a.Email, a.Phone = req.Name, req.Email, req.Phone
	a.FontSize, a.HighContrast, a.Theme = req.FontSize, req.HighContrast, req.Theme
	if err := s.db.UpdateProfile(a); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.recordActivity(sess, store.ActivityProfileUpdated, "Updated profile settings")

	a, err = s.account(sess.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfile(a))
}

// recordActivity appends to the patient's feed. Failures are logged only.
func (s *Server) recordActivity(sess auth.Session, kind, title string) {
	if err := s.db.AddActivity(sess.OwnerID(), sess.UserID, kind, title); err != nil {
		s.log.Sugar().Warnw("record activity", "kind", kind, "error", err)
	}
}
