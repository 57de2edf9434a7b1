package api

import (
	"time"

	"github.com/venuehall/venuesite/storage"
)

// LoginRequest is the JSON body for POST /admin/login.
type LoginRequest struct {
	Password string `json:"password"`
}

// LoginResponse is returned from POST /admin/login.
type LoginResponse struct {
	OK bool `json:"ok"`
}

// LogoutResponse is returned from POST /admin/logout.
type LogoutResponse struct {
	Success bool `json:"success"`
}

// SessionCheckResponse is returned from GET /admin/session-check.
type SessionCheckResponse struct {
	Valid     bool      `json:"valid"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// CSRFTokenResponse is returned from GET /admin/csrf-token.
type CSRFTokenResponse struct {
	CSRFToken string `json:"csrfToken"`
}

// EventRequest is the client-supplied shape of an event. Any "id" sent by
// the client is ignored.
type EventRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Date        string `json:"date" validate:"required,max=64"`
	Time        string `json:"time" validate:"required,max=64"`
	Planner     string `json:"planner" validate:"required,max=200"`
	Description string `json:"description,omitempty" validate:"max=5000"`
	Image       string `json:"image" validate:"required,max=1024"`
}

func (e EventRequest) fields() storage.EventFields {
	return storage.EventFields{
		Name:        e.Name,
		Date:        e.Date,
		Time:        e.Time,
		Planner:     e.Planner,
		Description: e.Description,
		Image:       e.Image,
	}
}

// ListEventsResponse is returned from GET /events.
type ListEventsResponse struct {
	Events []storage.Event `json:"events"`
	PaginationMeta
}

// ReplaceEventsResponse is returned from PUT /events.
type ReplaceEventsResponse struct {
	Events []storage.Event `json:"events"`
}

// UploadResponse is returned from POST /uploads.
type UploadResponse struct {
	Path string `json:"path"`
	URL  string `json:"url"`
}

// DeleteUploadResponse is returned from DELETE /uploads/{path}.
type DeleteUploadResponse struct {
	OK bool `json:"ok"`
}

// MessageResponse carries login failures.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is returned for all other error cases.
type ErrorResponse struct {
	Error string `json:"error"`
}
