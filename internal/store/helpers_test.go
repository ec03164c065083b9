package store

import "testing"

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createPatient(t *testing.T, db *DB, id string) *Account {
	t.Helper()
	a := &Account{ID: id, Email: id + "@example.com", Name: "Patient " + id, Role: "patient"}
	if err := db.CreateAccount(a); err != nil {
		t.Fatalf("CreateAccount(%s): %v", id, err)
	}
	return a
}
