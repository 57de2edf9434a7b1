// Package memory provides a thread-safe in-memory storage.EventStore.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/venuehall/venuesite/internal/ids"
	"github.com/venuehall/venuesite/storage"
)

// Store is a thread-safe in-memory EventStore.
// Suitable for testing, demos, and single-process use cases.
type Store struct {
	mu     sync.RWMutex
	events []storage.Event
	now    func() time.Time
}

var _ storage.EventStore = (*Store)(nil)

// NewStore creates a new empty in-memory Store.
func NewStore() *Store {
	return &Store{now: time.Now}
}

func (s *Store) List(_ context.Context) ([]storage.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]storage.Event, len(s.events))
	copy(out, s.events)
	return out, nil
}

func (s *Store) Get(_ context.Context, id string) (storage.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ev := range s.events {
		if ev.ID == id {
			return ev, nil
		}
	}
	return storage.Event{}, fmt.Errorf("event %s: %w", id, storage.ErrNotFound)
}

func (s *Store) Create(_ context.Context, fields storage.EventFields) (storage.Event, error) {
	ev := fields.NewEvent(ids.New(), s.now())
	s.mu.Lock()
	s.events = append(s.events, ev)
	s.mu.Unlock()
	return ev, nil
}

func (s *Store) ReplaceAll(_ context.Context, items []storage.EventFields) ([]storage.Event, error) {
	now := s.now()
	next := make([]storage.Event, 0, len(items))
	for _, f := range items {
		next = append(next, f.NewEvent(ids.New(), now))
	}
	s.mu.Lock()
	s.events = next
	s.mu.Unlock()

	out := make([]storage.Event, len(next))
	copy(out, next)
	return out, nil
}
