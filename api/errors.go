package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/venuehall/venuesite/storage"
	"github.com/venuehall/venuesite/uploads"
)

const (
	maxAuthBodySize  = 4 << 10
	maxEventBodySize = 1 << 20
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// writeMessage is used by the login endpoint, whose client reads "message".
func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageResponse{Message: msg})
}

// writeInternalError logs err with its context and answers with a generic
// 500 so storage detail never reaches the client.
func (a *API) writeInternalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	a.logger.LogAttrs(r.Context(), slog.LevelError, msg,
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	writeError(w, http.StatusInternalServerError, "internal server error")
}

func (a *API) mapError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, uploads.ErrInvalidPath):
		writeError(w, http.StatusBadRequest, "invalid upload path")
	case errors.Is(err, uploads.ErrExists):
		writeError(w, http.StatusConflict, "upload already exists")
	default:
		a.writeInternalError(w, r, "request failed", err)
	}
}

// decodeJSON reads a single JSON value of at most maxBytes from the body.
func decodeJSON[T any](w http.ResponseWriter, r *http.Request, maxBytes int64) (T, error) {
	var v T
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&v); err != nil {
		return v, fmt.Errorf("decoding request body: %w", err)
	}
	if dec.More() {
		return v, errors.New("decoding request body: unexpected trailing data")
	}
	return v, nil
}

// validationMessage flattens validator errors into a short client message.
func validationMessage(prefix string, err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Sprintf("%s%s failed %q validation", prefix, fe.Field(), fe.Tag())
	}
	return prefix + "invalid payload"
}
