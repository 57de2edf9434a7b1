// Package bbolt provides a BBolt-backed storage.EventStore.
package bbolt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/venuehall/venuesite/internal/ids"
	"github.com/venuehall/venuesite/storage"
)

// eventsBucket holds one JSON-encoded storage.Event per key. Keys are
// ULIDs, so cursor order is insertion order.
var eventsBucket = []byte("events")

// Store implements storage.EventStore backed by a BBolt database.
type Store struct {
	db  *bbolt.DB
	now func() time.Time
}

var _ storage.EventStore = (*Store)(nil)

// NewStore returns a Store backed by the given BBolt database, creating
// the events bucket if needed.
func NewStore(db *bbolt.DB) (*Store, error) {
	err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(eventsBucket)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("creating events bucket: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// NewStoreFromFile opens a BBolt database at the given path and returns a new Store.
func NewStoreFromFile(path string, options *bbolt.Options) (*Store, error) {
	db, err := bbolt.Open(path, 0600, options)
	if err != nil {
		return nil, fmt.Errorf("opening bbolt db: %w", err)
	}
	s, err := NewStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying BBolt database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) List(_ context.Context) ([]storage.Event, error) {
	events := []storage.Event{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(eventsBucket)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var ev storage.Event
			if err := json.Unmarshal(v, &ev); err != nil {
				return fmt.Errorf("decoding event %s: %w", k, err)
			}
			events = append(events, ev)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (s *Store) Get(_ context.Context, id string) (storage.Event, error) {
	var ev storage.Event
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(eventsBucket)
		if b == nil {
			return fmt.Errorf("event %s: %w", id, storage.ErrNotFound)
		}
		data := b.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("event %s: %w", id, storage.ErrNotFound)
		}
		return json.Unmarshal(data, &ev)
	})
	if err != nil {
		return storage.Event{}, err
	}
	return ev, nil
}

func (s *Store) Create(_ context.Context, fields storage.EventFields) (storage.Event, error) {
	ev := fields.NewEvent(ids.New(), s.now())
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(eventsBucket)
		if err != nil {
			return err
		}
		return putEvent(b, ev)
	})
	if err != nil {
		return storage.Event{}, err
	}
	return ev, nil
}

// ReplaceAll drops and recreates the bucket inside a single write
// transaction, so readers see either the old or the new collection.
func (s *Store) ReplaceAll(_ context.Context, items []storage.EventFields) ([]storage.Event, error) {
	now := s.now()
	events := make([]storage.Event, 0, len(items))
	for _, f := range items {
		events = append(events, f.NewEvent(ids.New(), now))
	}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket(eventsBucket) != nil {
			if err := tx.DeleteBucket(eventsBucket); err != nil {
				return err
			}
		}
		b, err := tx.CreateBucket(eventsBucket)
		if err != nil {
			return err
		}
		for _, ev := range events {
			if err := putEvent(b, ev); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

func putEvent(b *bbolt.Bucket, ev storage.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.Put([]byte(ev.ID), data)
}
