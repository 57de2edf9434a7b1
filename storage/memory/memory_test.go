package memory

import (
	"testing"

	"github.com/venuehall/venuesite/storage"
	"github.com/venuehall/venuesite/storage/storagetest"
)

func TestMemoryStore(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.EventStore {
		return NewStore()
	})
}

func TestMemoryStoreListIsACopy(t *testing.T) {
	s := NewStore()
	if _, err := s.Create(t.Context(), storage.EventFields{Name: "a"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	got, _ := s.List(t.Context())
	got[0].Name = "mutated"

	again, _ := s.List(t.Context())
	if again[0].Name != "a" {
		t.Error("List should return a copy of the stored events")
	}
}
