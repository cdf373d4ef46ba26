package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/bibihez/moos/internal/event"
	"github.com/bibihez/moos/internal/token"
	"github.com/bibihez/moos/internal/view"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type EventHandler struct {
	Svc      *event.Service
	Tokens   *token.Resolver
	Views    *view.Resolver
	BaseURL  string
	Validate *validator.Validate
}

type createEventReq struct {
	FriendName     string `json:"friendName" validate:"required"`
	Date           string `json:"date" validate:"required"`
	BudgetMin      int    `json:"budgetMin"`
	BudgetMax      int    `json:"budgetMax"`
	OrganizerName  string `json:"organizerName"`
	OrganizerEmail string `json:"organizerEmail" validate:"required,email"`
}

type createEventResp struct {
	Event          *event.Event       `json:"event"`
	Organizer      *event.Participant `json:"organizer"`
	OrganizerToken string             `json:"organizerToken"`
	Links          event.ShareLinks   `json:"links"`
}

// Create handles POST /api/events. The response is the only API surface
// besides the organizer link that carries the capability token.
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createEventReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if err := h.Validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "please fill in the essentials: name, date and your email")
		return
	}

	ev, organizer, err := h.Svc.CreateEvent(r.Context(), event.CreateEventInput{
		FriendName:     req.FriendName,
		Date:           req.Date,
		BudgetMin:      req.BudgetMin,
		BudgetMax:      req.BudgetMax,
		OrganizerName:  req.OrganizerName,
		OrganizerEmail: req.OrganizerEmail,
	})
	if err != nil {
		writeDomainError(w, err, "failed to create the birthday event")
		return
	}

	// bind the creating device to the capability right away
	if dev := deviceID(r); dev != "" {
		if err := h.Tokens.Attach(r.Context(), dev, ev.ID, ev.OrganizerToken); err != nil {
			slog.Error("attach capability failed", "event_id", ev.ID, "error", err)
		}
	}

	slog.Info("event created", "event_id", ev.ID, "friend", ev.FriendName)

	writeJSON(w, http.StatusCreated, createEventResp{
		Event:          ev,
		Organizer:      organizer,
		OrganizerToken: ev.OrganizerToken,
		Links:          event.Links(h.BaseURL, ev),
	})
}

// Get handles GET /api/events/{id}: the participant-facing record, token
// omitted by the model's JSON tags.
func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	ev, err := h.Svc.GetEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "failed to load event")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"event":   ev,
		"persona": ev.Persona(),
	})
}

// View handles GET /api/events/{id}/view: full view resolution for a
// visitor opening a share link. Always answers 200 with exactly one
// view, falling closed to the landing view on any failure.
func (h *EventHandler) View(w http.ResponseWriter, r *http.Request) {
	v := h.Views.Resolve(r.Context(), deviceID(r), chi.URLParam(r, "id"), organizerToken(r))
	writeJSON(w, http.StatusOK, v)
}

// Generate handles POST /api/events/{id}/generate. Organizer only; the
// readiness gate is at least one answered participant.
func (h *EventHandler) Generate(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "id")

	owner, err := h.isOrganizer(r, eventID)
	if err != nil {
		writeDomainError(w, err, "failed to check ownership")
		return
	}
	if !owner {
		writeError(w, http.StatusForbidden, "organizer only")
		return
	}

	parts, err := h.Svc.Participants(r.Context(), eventID)
	if err != nil {
		writeDomainError(w, err, "failed to load participants")
		return
	}
	answered := 0
	for _, p := range parts {
		if p.HasAnswered {
			answered++
		}
	}
	if answered < 1 {
		writeError(w, http.StatusConflict, "waiting for at least 1 person to answer questions")
		return
	}

	ev, gifts, err := h.Svc.GenerateGifts(r.Context(), eventID)
	if err != nil {
		writeDomainError(w, err, "failed to save gift ideas")
		return
	}

	slog.Info("gifts generated", "event_id", eventID, "count", len(gifts))

	writeJSON(w, http.StatusOK, map[string]any{
		"event":   ev,
		"persona": ev.Persona(),
		"gifts":   gifts,
	})
}

type updateIbanReq struct {
	Iban string `json:"iban" validate:"required"`
}

// UpdateIban handles PUT /api/events/{id}/iban. Organizer only.
func (h *EventHandler) UpdateIban(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "id")

	owner, err := h.isOrganizer(r, eventID)
	if err != nil {
		writeDomainError(w, err, "failed to check ownership")
		return
	}
	if !owner {
		writeError(w, http.StatusForbidden, "organizer only")
		return
	}

	var req updateIbanReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if err := h.Validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "iban is required")
		return
	}

	if err := h.Svc.UpdateIban(r.Context(), eventID, req.Iban); err != nil {
		writeDomainError(w, err, "failed to save IBAN")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// isOrganizer prefers an inline token (verified against the store's
// authoritative one), then falls back to the device capability cache.
func (h *EventHandler) isOrganizer(r *http.Request, eventID string) (bool, error) {
	if tok := organizerToken(r); tok != "" {
		return h.Tokens.VerifyDirect(r.Context(), eventID, tok)
	}
	if dev := deviceID(r); dev != "" {
		return h.Tokens.IsOwner(r.Context(), dev, eventID)
	}
	return false, nil
}
