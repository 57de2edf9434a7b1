// Package storage defines the event storage collaborator used by the API.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested event does not exist.
var ErrNotFound = errors.New("not found")

// Event is a scheduled event shown on the public site.
type Event struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Date        string    `json:"date"`
	Time        string    `json:"time"`
	Planner     string    `json:"planner"`
	Description string    `json:"description,omitempty"`
	Image       string    `json:"image"`
	CreatedAt   time.Time `json:"createdAt"`
}

// EventFields are the client-controlled attributes of an event. The ID
// and creation time are always assigned by the store.
type EventFields struct {
	Name        string
	Date        string
	Time        string
	Planner     string
	Description string
	Image       string
}

// NewEvent builds an Event from f with the given identity.
func (f EventFields) NewEvent(id string, createdAt time.Time) Event {
	return Event{
		ID:          id,
		Name:        f.Name,
		Date:        f.Date,
		Time:        f.Time,
		Planner:     f.Planner,
		Description: f.Description,
		Image:       f.Image,
		CreatedAt:   createdAt.UTC(),
	}
}

// EventStore persists events. List returns events in insertion order.
// ReplaceAll swaps the whole collection atomically: on error the previous
// collection is left intact.
type EventStore interface {
	List(ctx context.Context) ([]Event, error)
	Get(ctx context.Context, id string) (Event, error)
	Create(ctx context.Context, fields EventFields) (Event, error)
	ReplaceAll(ctx context.Context, items []EventFields) ([]Event, error)
}
