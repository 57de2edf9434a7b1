// Package postgres implements storage.EventStore backed by PostgreSQL.
//
// Events live in a single table ordered by an explicit position column so
// that List returns them in the order they were created or supplied to
// ReplaceAll. ReplaceAll runs in one transaction.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/venuehall/venuesite/internal/ids"
	"github.com/venuehall/venuesite/storage"
)

// Store implements storage.EventStore backed by PostgreSQL.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ storage.EventStore = (*Store)(nil)

// NewStore returns a Store using an existing database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Open connects using the pgx driver, ensures the schema exists, and
// returns a new Store.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	if err := EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensuring schema: %w", err)
	}
	return NewStore(db), nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

const selectEvents = `SELECT id, name, event_date, event_time, planner, description, image, created_at FROM events`

func (s *Store) List(ctx context.Context) ([]storage.Event, error) {
	rows, err := s.db.QueryContext(ctx, selectEvents+` ORDER BY position, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []storage.Event{}
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (s *Store) Get(ctx context.Context, id string) (storage.Event, error) {
	ev, err := scanEvent(s.db.QueryRowContext(ctx, selectEvents+` WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Event{}, fmt.Errorf("event %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return storage.Event{}, err
	}
	return ev, nil
}

func (s *Store) Create(ctx context.Context, fields storage.EventFields) (storage.Event, error) {
	ev := fields.NewEvent(ids.New(), s.now())
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events (id, position, name, event_date, event_time, planner, description, image, created_at)
		 SELECT $1, COALESCE(MAX(position), 0) + 1, $2, $3, $4, $5, $6, $7, $8 FROM events`,
		ev.ID, ev.Name, ev.Date, ev.Time, ev.Planner, ev.Description, ev.Image, ev.CreatedAt)
	if err != nil {
		return storage.Event{}, err
	}
	return ev, nil
}

func (s *Store) ReplaceAll(ctx context.Context, items []storage.EventFields) ([]storage.Event, error) {
	now := s.now()
	events := make([]storage.Event, 0, len(items))
	for _, f := range items {
		events = append(events, f.NewEvent(ids.New(), now))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM events`); err != nil {
		return nil, err
	}
	for i, ev := range events {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO events (id, position, name, event_date, event_time, planner, description, image, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			ev.ID, i+1, ev.Name, ev.Date, ev.Time, ev.Planner, ev.Description, ev.Image, ev.CreatedAt); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return events, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (storage.Event, error) {
	var ev storage.Event
	err := row.Scan(&ev.ID, &ev.Name, &ev.Date, &ev.Time, &ev.Planner, &ev.Description, &ev.Image, &ev.CreatedAt)
	if err != nil {
		return storage.Event{}, err
	}
	ev.CreatedAt = ev.CreatedAt.UTC()
	return ev, nil
}
