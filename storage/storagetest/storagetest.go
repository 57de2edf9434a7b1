// Package storagetest provides a conformance suite for storage.EventStore
// implementations.
package storagetest

import (
	"errors"
	"testing"

	"github.com/venuehall/venuesite/storage"
)

func fields(name string) storage.EventFields {
	return storage.EventFields{
		Name:    name,
		Date:    "2026-05-14",
		Time:    "19:00",
		Planner: "Events Team",
		Image:   "/uploads/" + name + ".png",
	}
}

// Run exercises store through the full EventStore contract. newStore must
// return an empty store on every call.
func Run(t *testing.T, newStore func(t *testing.T) storage.EventStore) {
	t.Helper()

	t.Run("EmptyList", func(t *testing.T) {
		s := newStore(t)
		got, err := s.List(t.Context())
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(got) != 0 {
			t.Fatalf("expected empty list, got %d events", len(got))
		}
	})

	t.Run("CreateAndGet", func(t *testing.T) {
		s := newStore(t)
		f := fields("gala")
		f.Description = "Annual gala"
		ev, err := s.Create(t.Context(), f)
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if ev.ID == "" {
			t.Fatal("Create should assign an id")
		}
		if ev.CreatedAt.IsZero() {
			t.Error("Create should set CreatedAt")
		}

		got, err := s.Get(t.Context(), ev.ID)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.Name != "gala" || got.Description != "Annual gala" || got.Image != f.Image {
			t.Errorf("Get returned wrong event: %+v", got)
		}
	})

	t.Run("GetNotFound", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(t.Context(), "missing")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("ListInsertionOrder", func(t *testing.T) {
		s := newStore(t)
		for _, name := range []string{"a", "b", "c"} {
			if _, err := s.Create(t.Context(), fields(name)); err != nil {
				t.Fatalf("Create %s failed: %v", name, err)
			}
		}
		got, err := s.List(t.Context())
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("expected 3 events, got %d", len(got))
		}
		for i, want := range []string{"a", "b", "c"} {
			if got[i].Name != want {
				t.Errorf("position %d: got %q, want %q", i, got[i].Name, want)
			}
		}
	})

	t.Run("ReplaceAll", func(t *testing.T) {
		s := newStore(t)
		old, err := s.Create(t.Context(), fields("old"))
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		replaced, err := s.ReplaceAll(t.Context(), []storage.EventFields{fields("x"), fields("y")})
		if err != nil {
			t.Fatalf("ReplaceAll failed: %v", err)
		}
		if len(replaced) != 2 {
			t.Fatalf("expected 2 events, got %d", len(replaced))
		}
		if replaced[0].ID == replaced[1].ID || replaced[0].ID == "" {
			t.Errorf("ReplaceAll should assign distinct ids: %+v", replaced)
		}

		got, _ := s.List(t.Context())
		if len(got) != 2 || got[0].Name != "x" || got[1].Name != "y" {
			t.Fatalf("List after ReplaceAll = %+v", got)
		}
		if _, err := s.Get(t.Context(), old.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("old event should be gone, got %v", err)
		}
	})

	t.Run("ReplaceAllEmpty", func(t *testing.T) {
		s := newStore(t)
		if _, err := s.Create(t.Context(), fields("old")); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		replaced, err := s.ReplaceAll(t.Context(), nil)
		if err != nil {
			t.Fatalf("ReplaceAll failed: %v", err)
		}
		if len(replaced) != 0 {
			t.Errorf("expected no events, got %d", len(replaced))
		}
		got, _ := s.List(t.Context())
		if len(got) != 0 {
			t.Errorf("expected empty store, got %d events", len(got))
		}
	})
}
