package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/bibihez/moos/internal/event"
	"github.com/bibihez/moos/internal/feed"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type ParticipantHandler struct {
	Svc      *event.Service
	Hub      *feed.Hub
	Validate *validator.Validate
}

type joinReq struct {
	Name string `json:"name" validate:"required"`
}

// Join handles POST /api/events/{id}/participants.
func (h *ParticipantHandler) Join(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "id")

	var req joinReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if err := h.Validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "we need your name to know who's answering")
		return
	}

	p, err := h.Svc.Join(r.Context(), eventID, req.Name)
	if err != nil {
		writeDomainError(w, err, "could not join")
		return
	}

	slog.Info("participant joined", "event_id", eventID, "participant_id", p.ID)
	writeJSON(w, http.StatusCreated, p)
}

// Questions handles GET /api/questions: the fixed questionnaire the
// join screen renders.
func (h *ParticipantHandler) Questions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, event.CoreQuestions)
}

// List handles GET /api/events/{id}/participants, ordered by creation.
func (h *ParticipantHandler) List(w http.ResponseWriter, r *http.Request) {
	parts, err := h.Svc.Participants(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "failed to load participants")
		return
	}
	writeJSON(w, http.StatusOK, parts)
}

type submitAnswersReq struct {
	Answers map[int]string `json:"answers" validate:"required"`
}

// SubmitAnswers handles POST /api/events/{id}/participants/{pid}/answers.
// Resubmission overwrites; the participant stays answered either way.
func (h *ParticipantHandler) SubmitAnswers(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "id")
	participantID := chi.URLParam(r, "pid")

	var req submitAnswersReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if err := h.Validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "answers are required")
		return
	}

	if err := h.Svc.SubmitAnswers(r.Context(), eventID, participantID, req.Answers); err != nil {
		writeDomainError(w, err, "error saving answers")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MarkPaid handles POST /api/participants/{pid}/paid.
func (h *ParticipantHandler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.MarkPaid(r.Context(), chi.URLParam(r, "pid")); err != nil {
		writeDomainError(w, err, "failed to mark as paid")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Feed handles GET /api/events/{id}/participants/feed as server-sent
// events. Each message is a full participant snapshot, never a diff.
// The subscription is torn down when the client disconnects.
func (h *ParticipantHandler) Feed(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "id")

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	// verify the event exists before holding the connection open
	if _, err := h.Svc.GetEvent(r.Context(), eventID); err != nil {
		writeDomainError(w, err, "failed to load event")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	snapshots := make(chan []event.Participant, 4)
	unsubscribe := h.Hub.Subscribe(eventID, func(parts []event.Participant) {
		select {
		case snapshots <- parts:
		default:
			// slow client; it will catch up on the next change
		}
	})
	defer unsubscribe()

	// initial snapshot so the dashboard renders without waiting for a
	// change
	if parts, err := h.Svc.Participants(r.Context(), eventID); err == nil {
		writeSSE(w, parts)
		flusher.Flush()
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case parts := <-snapshots:
			writeSSE(w, parts)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("encode sse payload failed", "error", err)
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
}
