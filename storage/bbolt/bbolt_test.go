package bbolt

import (
	"os"
	"path/filepath"
	"testing"

	"go.etcd.io/bbolt"

	"github.com/venuehall/venuesite/storage"
	"github.com/venuehall/venuesite/storage/storagetest"
)

func newTestDB(t *testing.T) (*bbolt.DB, func()) {
	t.Helper()
	f, err := os.CreateTemp("", "events-test-*.db")
	if err != nil {
		t.Fatalf("could not create temp file: %v", err)
	}
	path := f.Name()
	f.Close()

	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		os.Remove(path)
		t.Fatalf("could not open db: %v", err)
	}
	return db, func() {
		db.Close()
		os.Remove(path)
	}
}

func TestBBoltStore(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.EventStore {
		db, cleanup := newTestDB(t)
		t.Cleanup(cleanup)
		s, err := NewStore(db)
		if err != nil {
			t.Fatalf("NewStore failed: %v", err)
		}
		return s
	})
}

func TestBBoltStorePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.db")

	s, err := NewStoreFromFile(path, nil)
	if err != nil {
		t.Fatalf("NewStoreFromFile failed: %v", err)
	}
	created, err := s.Create(t.Context(), storage.EventFields{Name: "expo", Date: "2026-06-01", Time: "10:00", Planner: "p", Image: "/i.png"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := NewStoreFromFile(path, nil)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Get(t.Context(), created.ID)
	if err != nil {
		t.Fatalf("Get after reopen failed: %v", err)
	}
	if got.Name != "expo" {
		t.Errorf("expected expo, got %q", got.Name)
	}
}
