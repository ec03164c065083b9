package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/supabase-community/supabase-go"

	"github.com/memobloom/memobloom/internal/store"
)

// SupabaseProvider signs in through Supabase Auth and reads the profile from
// the hosted patients / family_members tables. The profile is mirrored into
// the local accounts table so sessions, settings and activities have a row
// to hang off.
type SupabaseProvider struct {
	client *supabase.Client
	db     *store.DB
}

func NewSupabaseProvider(client *supabase.Client, db *store.DB) *SupabaseProvider {
	return &SupabaseProvider{client: client, db: db}
}

type patientRow struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Mobile string `json:"mobile"`
}

type familyRow struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Mobile       string `json:"mobile"`
	Relationship string `json:"relationship"`
	PatientID    string `json:"patient_id"`
}

func (p *SupabaseProvider) SignIn(_ context.Context, cred Credentials) (Identity, error) {
	tok, err := p.client.Auth.SignInWithEmailPassword(cred.Email, cred.Password)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	userID := tok.User.ID.String()

	var id Identity
	switch cred.Role {
	case RolePatient:
		id, err = p.patient(userID)
	case RoleFamily:
		id, err = p.family(userID)
	default:
		id, err = p.patient(userID)
		if errors.Is(err, ErrWrongRole) {
			id, err = p.family(userID)
		}
	}
	if err != nil {
		return Identity{}, err
	}
	if id.Email == "" {
		id.Email = strings.ToLower(cred.Email)
	}

	if err := p.db.UpsertAccount(&store.Account{
		ID:        id.UserID,
		Email:     id.Email,
		Name:      id.Name,
		Phone:     id.Phone,
		Role:      string(id.Role),
		PatientID: id.PatientID,
		Relation:  id.Relation,
	}); err != nil {
		return Identity{}, fmt.Errorf("mirror profile: %w", err)
	}
	return id, nil
}

func (p *SupabaseProvider) patient(userID string) (Identity, error) {
	var rows []patientRow
	if _, err := p.client.From("patients").Select("*", "", false).Eq("id", userID).ExecuteTo(&rows); err != nil {
		return Identity{}, fmt.Errorf("error fetching patient data: %w", err)
	}
	if len(rows) == 0 {
		return Identity{}, ErrWrongRole
	}
	r := rows[0]
	return Identity{
		UserID:    r.ID,
		Email:     r.Email,
		Name:      r.Name,
		Phone:     r.Mobile,
		Role:      RolePatient,
		PatientID: r.ID,
	}, nil
}

func (p *SupabaseProvider) family(userID string) (Identity, error) {
	var rows []familyRow
	if _, err := p.client.From("family_members").Select("*", "", false).Eq("id", userID).ExecuteTo(&rows); err != nil {
		return Identity{}, fmt.Errorf("error fetching family member data: %w", err)
	}
	if len(rows) == 0 {
		return Identity{}, ErrWrongRole
	}
	r := rows[0]

	// The linked patient needs a local row too, for the account foreign keys
	// and the family dashboard.
	var patients []patientRow
	if _, err := p.client.From("patients").Select("*", "", false).Eq("id", r.PatientID).ExecuteTo(&patients); err != nil {
		return Identity{}, fmt.Errorf("error fetching patient data: %w", err)
	}
	if len(patients) > 0 {
		pt := patients[0]
		if err := p.db.UpsertAccount(&store.Account{
			ID: pt.ID, Email: pt.Email, Name: pt.Name, Phone: pt.Mobile,
			Role: string(RolePatient), PatientID: pt.ID,
		}); err != nil {
			return Identity{}, fmt.Errorf("mirror patient: %w", err)
		}
	}

	return Identity{
		UserID:    r.ID,
		Email:     r.Email,
		Name:      r.Name,
		Phone:     r.Mobile,
		Role:      RoleFamily,
		PatientID: r.PatientID,
		Relation:  r.Relationship,
	}, nil
}
