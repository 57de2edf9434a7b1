package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/venuehall/venuesite/storage"
)

// ListEvents handles GET /events.
func (a *API) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := a.events.List(r.Context())
	if err != nil {
		a.writeInternalError(w, r, "failed to list events", err)
		return
	}
	limit, offset := parsePagination(r)
	page, meta := paginate(events, limit, offset)
	writeJSON(w, http.StatusOK, ListEventsResponse{Events: page, PaginationMeta: meta})
}

// GetEvent handles GET /events/{id}.
func (a *API) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := a.events.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.mapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// CreateEvent handles POST /events.
func (a *API) CreateEvent(w http.ResponseWriter, r *http.Request) {
	req, err := decodeJSON[EventRequest](w, r, maxEventBodySize)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := a.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage("", err))
		return
	}

	event, err := a.events.Create(r.Context(), req.fields())
	if err != nil {
		a.writeInternalError(w, r, "failed to create event", err)
		return
	}
	a.audit.log(AuditEventCreated, r, slog.String("event_id", event.ID))
	writeJSON(w, http.StatusCreated, event)
}

// replaceEventsBody keeps "events" raw so a non-array value can be told
// apart from a malformed body.
type replaceEventsBody struct {
	Events json.RawMessage `json:"events"`
}

// ReplaceEvents handles PUT /events. When "events" is anything other than
// a JSON array (missing, null, object, scalar) the stored list is cleared.
func (a *API) ReplaceEvents(w http.ResponseWriter, r *http.Request) {
	body, err := decodeJSON[replaceEventsBody](w, r, maxEventBodySize)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	fields := []storage.EventFields{}
	if raw := bytes.TrimSpace(body.Events); len(raw) > 0 && raw[0] == '[' {
		var reqs []EventRequest
		if err := json.Unmarshal(raw, &reqs); err != nil {
			writeError(w, http.StatusBadRequest, "events must be an array of event objects")
			return
		}
		for i, req := range reqs {
			if err := a.validate.Struct(req); err != nil {
				writeError(w, http.StatusBadRequest, validationMessage(fmt.Sprintf("events[%d].", i), err))
				return
			}
			fields = append(fields, req.fields())
		}
	}

	events, err := a.events.ReplaceAll(r.Context(), fields)
	if err != nil {
		a.writeInternalError(w, r, "failed to replace events", err)
		return
	}
	a.audit.log(AuditEventsReplaced, r, slog.Int("count", len(events)))
	writeJSON(w, http.StatusOK, ReplaceEventsResponse{Events: events})
}
