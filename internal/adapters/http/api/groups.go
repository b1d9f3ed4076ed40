// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dinerly/tablematch/internal/domain/matching"
)

// groupsRequest mirrors the schema for POST /groups.
type groupsRequest struct {
	EventID    string `json:"event_id"`
	TargetSize int    `json:"target_size,omitempty"`
}

func (r groupsRequest) validate() error {
	if r.EventID == "" {
		return errors.New("missing event_id")
	}
	if r.TargetSize != 0 && r.TargetSize != matching.TargetSizeFive && r.TargetSize != matching.TargetSizeSix {
		return errors.New("target_size must be 5 or 6")
	}
	return nil
}

type formationResponse struct {
	Outcome string          `json:"outcome"`
	Groups  []groupResponse `json:"groups"`
}

// GroupsHandler handles group formation and lookup requests.
type GroupsHandler struct {
	deps Dependencies
}

// NewGroupsHandler creates a new groups handler.
func NewGroupsHandler(deps Dependencies) *GroupsHandler {
	return &GroupsHandler{deps: deps}
}

// HandlePostGroups handles POST /groups requests: synchronous formation.
func (h *GroupsHandler) HandlePostGroups(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_groups"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req groupsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	result, err := h.deps.GenerateGroups(r.Context(), req.EventID, req.TargetSize)
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, formationResponse{
		Outcome: string(result.Outcome),
		Groups:  toGroupResponses(result.Groups),
	})
}

// HandleGroupSubroute handles POST /groups/{id}/recompute and
// PUT /groups/{id}/members requests.
func (h *GroupsHandler) HandleGroupSubroute(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/groups/")
	groupID, action, found := strings.Cut(rest, "/")
	if !found || groupID == "" {
		http.NotFound(w, r)
		return
	}

	switch {
	case action == "recompute" && r.Method == http.MethodPost:
		h.handleRecompute(w, r, groupID)
	case action == "members" && r.Method == http.MethodPut:
		h.handleEditMembers(w, r, groupID)
	default:
		http.NotFound(w, r)
	}
}

func (h *GroupsHandler) handleRecompute(w http.ResponseWriter, r *http.Request, groupID string) {
	const op = "api.recompute_group"
	group, err := h.deps.RecomputeGroup(r.Context(), groupID)
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, toGroupResponse(&group))
}

// membersRequest mirrors the schema for PUT /groups/{id}/members.
type membersRequest struct {
	ParticipantIDs []string `json:"participant_ids"`
}

func (r membersRequest) validate() error {
	if len(r.ParticipantIDs) == 0 {
		return errors.New("participant_ids must not be empty")
	}
	seen := make(map[string]bool, len(r.ParticipantIDs))
	for _, id := range r.ParticipantIDs {
		if id == "" {
			return errors.New("participant_ids must not contain empty ids")
		}
		if seen[id] {
			return errors.New("participant_ids must not contain duplicates")
		}
		seen[id] = true
	}
	return nil
}

func (h *GroupsHandler) handleEditMembers(w http.ResponseWriter, r *http.Request, groupID string) {
	const op = "api.edit_group_members"
	var req membersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	group, err := h.deps.EditGroupMembers(r.Context(), groupID, req.ParticipantIDs)
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, toGroupResponse(&group))
}

// HandleEventSubroute handles GET /events/{id}/groups and
// DELETE /events/{id}/assignments requests.
func (h *GroupsHandler) HandleEventSubroute(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/events/")
	eventID, resource, found := strings.Cut(rest, "/")
	if !found || eventID == "" {
		http.NotFound(w, r)
		return
	}

	switch {
	case resource == "groups" && r.Method == http.MethodGet:
		h.handleGetGroups(w, r, eventID)
	case resource == "assignments" && r.Method == http.MethodDelete:
		h.handleClearAssignments(w, r, eventID)
	default:
		http.NotFound(w, r)
	}
}

func (h *GroupsHandler) handleGetGroups(w http.ResponseWriter, r *http.Request, eventID string) {
	const op = "api.get_groups"
	groups, err := h.deps.Groups(r.Context(), eventID)
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, toGroupResponses(groups))
}

func (h *GroupsHandler) handleClearAssignments(w http.ResponseWriter, r *http.Request, eventID string) {
	const op = "api.clear_assignments"
	if err := h.deps.ClearAssignments(r.Context(), eventID); err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared", "event_id": eventID})
}
