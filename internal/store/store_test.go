package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"pharmatrack/m/internal/migrations"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "store_test.db")
	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA busy_timeout=5000")
	t.Cleanup(func() { db.Close() })
	migrations.Run(db)
	return New(db)
}

func mustPatient(t *testing.T, s *Store) int64 {
	t.Helper()
	p, err := s.CreatePatient(context.Background(), NewPatient{Name: "Jordan Blake"})
	if err != nil {
		t.Fatalf("create patient: %v", err)
	}
	return p.ID
}

func mustDoctor(t *testing.T, s *Store) int64 {
	t.Helper()
	d, err := s.CreateDoctor(context.Background(), NewDoctor{Name: "Dr. Osei", Specialty: "GP"})
	if err != nil {
		t.Fatalf("create doctor: %v", err)
	}
	return d.ID
}

func mustSupplier(t *testing.T, s *Store) int64 {
	t.Helper()
	sup, err := s.CreateSupplier(context.Background(), NewSupplier{Name: "Medway Wholesale"})
	if err != nil {
		t.Fatalf("create supplier: %v", err)
	}
	return sup.ID
}
