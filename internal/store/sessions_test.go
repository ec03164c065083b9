package store

import (
	"testing"
)

func TestStartSession(t *testing.T) {
	db := testDB(t)
	createPatient(t, db, "u-1")

	s, err := db.StartSession("sess-001", "u-1")
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if s.SessionID != "sess-001" {
		t.Errorf("SessionID = %q, want sess-001", s.SessionID)
	}
	if s.UserID != "u-1" {
		t.Errorf("UserID = %q, want u-1", s.UserID)
	}
	if s.Status != "active" {
		t.Errorf("Status = %q, want active", s.Status)
	}
	if s.EndedAt != nil {
		t.Errorf("EndedAt = %v, want nil", *s.EndedAt)
	}
}

func TestStartSessionDuplicate(t *testing.T) {
	db := testDB(t)
	createPatient(t, db, "u-1")

	if _, err := db.StartSession("sess-001", "u-1"); err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if _, err := db.StartSession("sess-001", "u-1"); err == nil {
		t.Error("expected error reusing a session id")
	}
}

func TestGetSession(t *testing.T) {
	db := testDB(t)
	createPatient(t, db, "u-1")

	// Not found returns nil
	s, err := db.GetSession("nonexistent")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if s != nil {
		t.Errorf("expected nil for nonexistent session, got %+v", s)
	}

	// Found
	db.StartSession("sess-001", "u-1")
	s, err = db.GetSession("sess-001")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if s == nil {
		t.Fatal("expected session, got nil")
	}
	if s.UserID != "u-1" {
		t.Errorf("UserID = %q, want u-1", s.UserID)
	}
}

func TestEndSession(t *testing.T) {
	db := testDB(t)
	createPatient(t, db, "u-1")
	db.StartSession("sess-001", "u-1")

	if err := db.EndSession("sess-001"); err != nil {
		t.Fatalf("EndSession: %v", err)
	}

	s, _ := db.GetSession("sess-001")
	if s.Status != "ended" {
		t.Errorf("Status = %q, want ended", s.Status)
	}
	if s.EndedAt == nil {
		t.Error("EndedAt should be set")
	}

	// Ending again should error (no active session)
	if err := db.EndSession("sess-001"); err == nil {
		t.Error("expected error ending an already-ended session")
	}
}

func TestTouchSessionAndLastActive(t *testing.T) {
	db := testDB(t)
	createPatient(t, db, "u-1")

	last, err := db.LastActive("u-1")
	if err != nil {
		t.Fatalf("LastActive: %v", err)
	}
	if last != 0 {
		t.Errorf("LastActive before sign-in = %d, want 0", last)
	}

	s, _ := db.StartSession("sess-001", "u-1")
	if err := db.TouchSession("sess-001"); err != nil {
		t.Fatalf("TouchSession: %v", err)
	}

	last, err = db.LastActive("u-1")
	if err != nil {
		t.Fatalf("LastActive: %v", err)
	}
	if last < s.StartedAt {
		t.Errorf("LastActive = %d, want >= %d", last, s.StartedAt)
	}
}

func TestGetRecentSessions(t *testing.T) {
	db := testDB(t)
	createPatient(t, db, "u-1")
	createPatient(t, db, "u-2")

	db.StartSession("sess-001", "u-1")
	db.StartSession("sess-002", "u-1")
	db.StartSession("sess-003", "u-1")
	db.StartSession("sess-004", "u-2")

	sessions, err := db.GetRecentSessions("u-1", 2)
	if err != nil {
		t.Fatalf("GetRecentSessions: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("got %d sessions, want 2", len(sessions))
	}
	if sessions[0].SessionID != "sess-003" {
		t.Errorf("newest session = %q, want sess-003", sessions[0].SessionID)
	}
}

func TestSessionsCascadeOnAccountDelete(t *testing.T) {
	db := testDB(t)
	createPatient(t, db, "u-1")
	db.StartSession("sess-001", "u-1")

	if _, err := db.Exec(`DELETE FROM accounts WHERE id = 'u-1'`); err != nil {
		t.Fatalf("delete account: %v", err)
	}
	s, err := db.GetSession("sess-001")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if s != nil {
		t.Errorf("session survived account delete: %+v", s)
	}
}
