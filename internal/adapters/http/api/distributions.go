// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
)

// distributionRequest mirrors the schema for POST /distributions.
type distributionRequest struct {
	EventID string         `json:"event_id"`
	Venues  []venuePayload `json:"venues"`
}

func (r distributionRequest) validate() error {
	if r.EventID == "" {
		return errors.New("missing event_id")
	}
	if len(r.Venues) == 0 {
		return errors.New("missing venues")
	}
	for _, v := range r.Venues {
		if err := v.validate(); err != nil {
			return err
		}
	}
	return nil
}

type tablePayload struct {
	ID       string `json:"id"`
	VenueID  string `json:"venue_id"`
	GroupID  string `json:"group_id"`
	Capacity int    `json:"capacity"`
}

type assignmentPayload struct {
	ParticipantID string `json:"participant_id"`
	VenueID       string `json:"venue_id"`
	TableID       string `json:"table_id"`
	SeatNumber    int    `json:"seat_number"`
}

type distributionResponse struct {
	Tables      []tablePayload      `json:"tables"`
	Assignments []assignmentPayload `json:"assignments"`
	Remaining   map[string]int      `json:"remaining_capacity"`
}

// DistributionsHandler handles venue distribution requests.
type DistributionsHandler struct {
	deps Dependencies
}

// NewDistributionsHandler creates a new distributions handler.
func NewDistributionsHandler(deps Dependencies) *DistributionsHandler {
	return &DistributionsHandler{deps: deps}
}

// HandlePostDistribution handles POST /distributions requests.
func (h *DistributionsHandler) HandlePostDistribution(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_distribution"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req distributionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	plan, err := h.deps.Distribute(r.Context(), req.EventID, toVenues(req.Venues))
	if err != nil {
		writeDomainError(w, op, err)
		return
	}

	resp := distributionResponse{
		Tables:      make([]tablePayload, 0, len(plan.Tables)),
		Assignments: make([]assignmentPayload, 0, len(plan.Assignments)),
		Remaining:   plan.Remaining,
	}
	for _, t := range plan.Tables {
		resp.Tables = append(resp.Tables, tablePayload{
			ID: t.ID, VenueID: t.VenueID, GroupID: t.GroupID, Capacity: t.Capacity,
		})
	}
	for _, a := range plan.Assignments {
		resp.Assignments = append(resp.Assignments, assignmentPayload{
			ParticipantID: a.ParticipantID, VenueID: a.VenueID, TableID: a.TableID, SeatNumber: a.SeatNumber,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
