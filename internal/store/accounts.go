package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Account is a patient or family member together with their settings.
// For a patient PatientID equals ID.
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	Phone        string
	Role         string // "patient" or "family"
	PatientID    string
	Relation     string
	FontSize     int
	HighContrast bool
	Theme        string // "light" or "dark"
	CreatedAt    int64
	UpdatedAt    int64
}

const accountColumns = `id, email, password_hash, name, phone, role, patient_id, relation,
	font_size, high_contrast, theme, created_at, updated_at`

func scanAccount(row interface{ Scan(...any) error }) (*Account, error) {
	var a Account
	var highContrast int
	err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.Name, &a.Phone, &a.Role, &a.PatientID, &a.Relation,
		&a.FontSize, &highContrast, &a.Theme, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.HighContrast = highContrast != 0
	return &a, nil
}

// CreateAccount inserts a new account. Email is stored lowercased.
// Zero-valued settings get their defaults.
func (db *DB) CreateAccount(a *Account) error {
	now := time.Now().UnixMilli()
	a.Email = strings.ToLower(strings.TrimSpace(a.Email))
	if a.Role == "patient" && a.PatientID == "" {
		a.PatientID = a.ID
	}
	if a.FontSize == 0 {
		a.FontSize = 16
	}
	if a.Theme == "" {
		a.Theme = "light"
	}

	_, err := db.Exec(`
		INSERT INTO accounts (`+accountColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, a.ID, a.Email, a.PasswordHash, a.Name, a.Phone, a.Role, a.PatientID, a.Relation,
		a.FontSize, boolInt(a.HighContrast), a.Theme, now, now)
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	a.CreatedAt = now
	a.UpdatedAt = now
	return nil
}

// GetAccount returns an account by id, or nil if not found.
func (db *DB) GetAccount(id string) (*Account, error) {
	a, err := scanAccount(db.QueryRow(`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

// GetAccountByEmail returns an account by email (case-insensitive), or nil.
func (db *DB) GetAccountByEmail(email string) (*Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	a, err := scanAccount(db.QueryRow(`SELECT `+accountColumns+` FROM accounts WHERE email = ?`, email))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get account by email: %w", err)
	}
	return a, nil
}

// UpsertAccount creates the account or refreshes its identity fields
// (email, name, phone, role, patient, relation). Settings and the password
// hash of an existing row are left alone.
func (db *DB) UpsertAccount(a *Account) error {
	existing, err := db.GetAccount(a.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return db.CreateAccount(a)
	}

	now := time.Now().UnixMilli()
	_, err = db.Exec(`
		UPDATE accounts SET email = ?, name = ?, phone = ?, role = ?, patient_id = ?, relation = ?, updated_at = ?
		WHERE id = ?
	`, strings.ToLower(strings.TrimSpace(a.Email)), a.Name, a.Phone, a.Role, a.PatientID, a.Relation, now, a.ID)
	if err != nil {
		return fmt.Errorf("upsert account: %w", err)
	}
	return nil
}

// UpdateProfile saves the editable profile and accessibility fields.
func (db *DB) UpdateProfile(a *Account) error {
	owner, err := db.GetAccountByEmail(a.Email)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if owner != nil && owner.ID != a.ID {
		return fmt.Errorf("update profile %s: %w", a.ID, ErrEmailTaken)
	}
	now := time.Now().UnixMilli()
	result, err := db.Exec(`
		UPDATE accounts SET name = ?, email = ?, phone = ?, font_size = ?, high_contrast = ?, theme = ?, updated_at = ?
		WHERE id = ?
	`, a.Name, strings.ToLower(strings.TrimSpace(a.Email)), a.Phone, a.FontSize, boolInt(a.HighContrast), a.Theme, now, a.ID)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("update profile %s: %w", a.ID, ErrNotFound)
	}
	a.UpdatedAt = now
	return nil
}

// ListFamily returns the family members linked to a patient, oldest first.
func (db *DB) ListFamily(patientID string) ([]Account, error) {
	rows, err := db.Query(`
		SELECT `+accountColumns+` FROM accounts
		WHERE patient_id = ? AND role = 'family' ORDER BY created_at
	`, patientID)
	if err != nil {
		return nil, fmt.Errorf("list family: %w", err)
	}
	defer rows.Close()

	var out []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// ListAccounts returns every account ordered by creation time.
func (db *DB) ListAccounts() ([]Account, error) {
	rows, err := db.Query(`SELECT ` + accountColumns + ` FROM accounts ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
