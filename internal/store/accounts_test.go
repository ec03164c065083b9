package store

import (
	"errors"
	"testing"
)

func TestCreateAccountDefaults(t *testing.T) {
	db := testDB(t)

	a := &Account{ID: "p-1", Email: "  Rose@Example.COM ", Name: "Rose", Role: "patient"}
	if err := db.CreateAccount(a); err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}

	got, err := db.GetAccount("p-1")
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if got == nil {
		t.Fatal("expected account, got nil")
	}
	if got.Email != "rose@example.com" {
		t.Errorf("Email = %q, want rose@example.com", got.Email)
	}
	if got.PatientID != "p-1" {
		t.Errorf("PatientID = %q, want p-1", got.PatientID)
	}
	if got.FontSize != 16 {
		t.Errorf("FontSize = %d, want 16", got.FontSize)
	}
	if got.Theme != "light" {
		t.Errorf("Theme = %q, want light", got.Theme)
	}
	if got.HighContrast {
		t.Error("HighContrast = true, want false")
	}
}

func TestGetAccountByEmail(t *testing.T) {
	db := testDB(t)
	createPatient(t, db, "p-1")

	a, err := db.GetAccountByEmail("P-1@EXAMPLE.com")
	if err != nil {
		t.Fatalf("GetAccountByEmail: %v", err)
	}
	if a == nil || a.ID != "p-1" {
		t.Fatalf("GetAccountByEmail = %+v, want p-1", a)
	}

	a, err = db.GetAccountByEmail("nobody@example.com")
	if err != nil {
		t.Fatalf("GetAccountByEmail: %v", err)
	}
	if a != nil {
		t.Errorf("expected nil for unknown email, got %+v", a)
	}
}

func TestUpdateProfile(t *testing.T) {
	db := testDB(t)
	a := createPatient(t, db, "p-1")

	a.Name = "Rose Tyler"
	a.Phone = "555-0100"
	a.FontSize = 22
	a.HighContrast = true
	a.Theme = "dark"
	if err := db.UpdateProfile(a); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}

	got, _ := db.GetAccount("p-1")
	if got.Name != "Rose Tyler" || got.Phone != "555-0100" {
		t.Errorf("profile = %q/%q, want Rose Tyler/555-0100", got.Name, got.Phone)
	}
	if got.FontSize != 22 || !got.HighContrast || got.Theme != "dark" {
		t.Errorf("settings = %d/%v/%q, want 22/true/dark", got.FontSize, got.HighContrast, got.Theme)
	}

	missing := &Account{ID: "nope", Email: "x@example.com", Theme: "light"}
	if err := db.UpdateProfile(missing); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateProfile(missing) = %v, want ErrNotFound", err)
	}
}

func TestUpdateProfileEmailTaken(t *testing.T) {
	db := testDB(t)
	createPatient(t, db, "p-1")
	b := createPatient(t, db, "p-2")

	b.Email = " P-1@Example.com "
	if err := db.UpdateProfile(b); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("UpdateProfile(taken email) = %v, want ErrEmailTaken", err)
	}
	got, _ := db.GetAccount("p-2")
	if got.Email != "p-2@example.com" {
		t.Errorf("email = %q, want unchanged p-2@example.com", got.Email)
	}

	// Keeping your own email is not a conflict.
	b.Email = "p-2@example.com"
	if err := db.UpdateProfile(b); err != nil {
		t.Errorf("UpdateProfile(own email): %v", err)
	}
}

func TestUpsertAccountKeepsSettings(t *testing.T) {
	db := testDB(t)
	a := createPatient(t, db, "p-1")
	a.Theme = "dark"
	if err := db.UpdateProfile(a); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}

	if err := db.UpsertAccount(&Account{ID: "p-1", Email: "new@example.com", Name: "Renamed", Role: "patient", PatientID: "p-1"}); err != nil {
		t.Fatalf("UpsertAccount: %v", err)
	}
	got, _ := db.GetAccount("p-1")
	if got.Name != "Renamed" || got.Email != "new@example.com" {
		t.Errorf("identity = %q/%q, want Renamed/new@example.com", got.Name, got.Email)
	}
	if got.Theme != "dark" {
		t.Errorf("Theme = %q, want dark (kept)", got.Theme)
	}

	if err := db.UpsertAccount(&Account{ID: "f-1", Email: "fam@example.com", Name: "Fam", Role: "family", PatientID: "p-1"}); err != nil {
		t.Fatalf("UpsertAccount new: %v", err)
	}
	if got, _ := db.GetAccount("f-1"); got == nil {
		t.Error("UpsertAccount did not create f-1")
	}
}

func TestListFamily(t *testing.T) {
	db := testDB(t)
	createPatient(t, db, "p-1")
	createPatient(t, db, "p-2")
	for _, f := range []Account{
		{ID: "f-1", Email: "f1@example.com", Name: "Sam", Role: "family", PatientID: "p-1", Relation: "son"},
		{ID: "f-2", Email: "f2@example.com", Name: "Ivy", Role: "family", PatientID: "p-1", Relation: "daughter"},
		{ID: "f-3", Email: "f3@example.com", Name: "Max", Role: "family", PatientID: "p-2"},
	} {
		f := f
		if err := db.CreateAccount(&f); err != nil {
			t.Fatalf("CreateAccount(%s): %v", f.ID, err)
		}
	}

	fam, err := db.ListFamily("p-1")
	if err != nil {
		t.Fatalf("ListFamily: %v", err)
	}
	if len(fam) != 2 {
		t.Fatalf("got %d family members, want 2", len(fam))
	}
	for _, f := range fam {
		if f.PatientID != "p-1" || f.Role != "family" {
			t.Errorf("unexpected member %+v", f)
		}
	}

	all, err := db.ListAccounts()
	if err != nil {
		t.Fatalf("ListAccounts: %v", err)
	}
	if len(all) != 5 {
		t.Errorf("ListAccounts = %d, want 5", len(all))
	}
}
