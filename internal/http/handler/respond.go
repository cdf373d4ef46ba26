package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/bibihez/moos/internal/event"
	"github.com/bibihez/moos/internal/gateway"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps domain sentinels onto HTTP responses. Every
// error is terminal for the triggering action only; the generic fallback
// carries the operation-specific message.
func writeDomainError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, event.ErrNotFound):
		writeError(w, http.StatusNotFound, "event not found or expired")
	case errors.Is(err, event.ErrValidation):
		writeError(w, http.StatusBadRequest, "invalid input")
	case errors.Is(err, event.ErrTooManySelections):
		writeError(w, http.StatusBadRequest, "you can pick at most 3 gifts")
	case errors.Is(err, event.ErrNotOpenForVoting):
		writeError(w, http.StatusConflict, "event is not open for voting")
	case errors.Is(err, event.ErrAlreadyCompleted):
		writeError(w, http.StatusConflict, "event already completed")
	case errors.Is(err, gateway.ErrMalformedOutput), errors.Is(err, gateway.ErrUnavailable):
		writeError(w, http.StatusBadGateway, "gift generation failed, please try again")
	default:
		slog.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

// deviceID identifies the browser profile making the request; it keys
// the capability cache. Header first, query fallback for links.
func deviceID(r *http.Request) string {
	if d := r.Header.Get("X-Device-ID"); d != "" {
		return d
	}
	return r.URL.Query().Get("device")
}

// organizerToken extracts an inline capability, if any.
func organizerToken(r *http.Request) string {
	if t := r.Header.Get("X-Organizer-Token"); t != "" {
		return t
	}
	return r.URL.Query().Get("token")
}
