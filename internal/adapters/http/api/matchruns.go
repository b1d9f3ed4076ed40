// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dinerly/tablematch/internal/domain/matching"
	"github.com/dinerly/tablematch/internal/domain/model"
)

// matchRunRequest mirrors the schema for POST /match-runs.
type matchRunRequest struct {
	EventID    string         `json:"event_id"`
	TargetSize int            `json:"target_size,omitempty"`
	Distribute bool           `json:"distribute,omitempty"`
	Venues     []venuePayload `json:"venues,omitempty"`
}

func (r matchRunRequest) validate() error {
	if r.EventID == "" {
		return errors.New("missing event_id")
	}
	if r.TargetSize != 0 && r.TargetSize != matching.TargetSizeFive && r.TargetSize != matching.TargetSizeSix {
		return errors.New("target_size must be 5 or 6")
	}
	if r.Distribute && len(r.Venues) == 0 {
		return errors.New("distribute requires at least one venue")
	}
	for _, v := range r.Venues {
		if err := v.validate(); err != nil {
			return err
		}
	}
	return nil
}

type matchRunResponse struct {
	RunID  string `json:"run_id"`
	Status string `json:"status"`
}

// MatchRunsHandler handles asynchronous matching run requests.
type MatchRunsHandler struct {
	deps Dependencies
}

// NewMatchRunsHandler creates a new match runs handler.
func NewMatchRunsHandler(deps Dependencies) *MatchRunsHandler {
	return &MatchRunsHandler{deps: deps}
}

// HandlePostMatchRun handles POST /match-runs requests.
func (h *MatchRunsHandler) HandlePostMatchRun(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_match_run"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req matchRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	runID, err := h.deps.EnqueueRun(r.Context(), model.MatchRequest{
		EventID:    req.EventID,
		TargetSize: req.TargetSize,
		Distribute: req.Distribute,
		Venues:     toVenues(req.Venues),
	})
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusAccepted, matchRunResponse{RunID: runID, Status: "accepted"})
}
