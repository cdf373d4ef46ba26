package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/bibihez/moos/internal/event"

	"github.com/go-chi/chi/v5"
)

type VoteHandler struct {
	Svc *event.Service
}

type submitVoteReq struct {
	GiftIDs []string `json:"giftIds"`
	VoterID string   `json:"voterId"`
}

type submitVoteResp struct {
	VoterID string `json:"voterId"`
}

// Submit handles POST /api/events/{id}/votes. A missing voterId gets a
// fresh anonymous one, echoed back so the client can reuse it; the
// X-Voter-ID header works too.
func (h *VoteHandler) Submit(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "id")

	var req submitVoteReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if req.VoterID == "" {
		req.VoterID = r.Header.Get("X-Voter-ID")
	}

	voterID, err := h.Svc.SubmitVote(r.Context(), eventID, req.GiftIDs, req.VoterID)
	if err != nil {
		writeDomainError(w, err, "voting failed")
		return
	}

	slog.Info("vote submitted", "event_id", eventID, "gifts", len(req.GiftIDs))
	writeJSON(w, http.StatusCreated, submitVoteResp{VoterID: voterID})
}

// Gifts handles GET /api/events/{id}/gifts: the voting screen's list,
// without vote counts.
func (h *VoteHandler) Gifts(w http.ResponseWriter, r *http.Request) {
	gifts, err := h.Svc.Gifts(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "failed to load gift ideas")
		return
	}
	writeJSON(w, http.StatusOK, gifts)
}

// Results handles GET /api/events/{id}/results: the tally, sorted by
// votes descending with generation order breaking ties.
func (h *VoteHandler) Results(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "id")
	if _, err := h.Svc.GetEvent(r.Context(), eventID); err != nil {
		writeDomainError(w, err, "failed to load event")
		return
	}
	ranked, err := h.Svc.Tally(r.Context(), eventID)
	if err != nil {
		writeDomainError(w, err, "failed to load results")
		return
	}
	writeJSON(w, http.StatusOK, ranked)
}
