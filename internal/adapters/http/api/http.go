// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	service "github.com/dinerly/tablematch/internal/app"
	"github.com/dinerly/tablematch/internal/domain/matching"
	"github.com/dinerly/tablematch/internal/domain/model"
	"github.com/dinerly/tablematch/internal/domain/seating"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// EnqueueRun pushes a matching run for async processing.
	EnqueueRun(ctx context.Context, req model.MatchRequest) (string, error)

	// GenerateGroups forms and persists groups synchronously.
	GenerateGroups(ctx context.Context, eventID string, targetSize int) (matching.Result, error)

	// Groups returns the stored groups for an event.
	Groups(ctx context.Context, eventID string) ([]model.Group, error)

	// RecomputeGroup rebuilds one group's derived fields.
	RecomputeGroup(ctx context.Context, groupID string) (model.Group, error)

	// EditGroupMembers replaces a group's membership and recomputes it.
	EditGroupMembers(ctx context.Context, groupID string, participantIDs []string) (model.Group, error)

	// Distribute packs stored groups into venues and persists seating.
	Distribute(ctx context.Context, eventID string, venues []model.Venue) (*seating.Plan, error)

	// ClearAssignments wipes all seating state for an event.
	ClearAssignments(ctx context.Context, eventID string) error
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler        *HealthHandler
	statsHandler         *StatsHandler
	matchRunsHandler     *MatchRunsHandler
	groupsHandler        *GroupsHandler
	distributionsHandler *DistributionsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:        NewHealthHandler(),
		statsHandler:         NewStatsHandler(statsProvider),
		matchRunsHandler:     NewMatchRunsHandler(deps),
		groupsHandler:        NewGroupsHandler(deps),
		distributionsHandler: NewDistributionsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/match-runs", MetricsMiddleware(s.matchRunsHandler.HandlePostMatchRun, "match_runs"))
	mux.HandleFunc("/groups", MetricsMiddleware(s.groupsHandler.HandlePostGroups, "groups"))
	mux.HandleFunc("/groups/", MetricsMiddleware(s.groupsHandler.HandleGroupSubroute, "group"))
	mux.HandleFunc("/events/", MetricsMiddleware(s.groupsHandler.HandleEventSubroute, "event"))
	mux.HandleFunc("/distributions", MetricsMiddleware(s.distributionsHandler.HandlePostDistribution, "distributions"))
}

// venuePayload mirrors the venue schema shared by run and distribution
// requests.
type venuePayload struct {
	ID            string `json:"id,omitempty"`
	Name          string `json:"name"`
	Address       string `json:"address,omitempty"`
	TotalCapacity int    `json:"total_capacity"`
	ContactInfo   string `json:"contact_info,omitempty"`
}

func (v venuePayload) validate() error {
	switch {
	case strings.TrimSpace(v.Name) == "":
		return errors.New("missing venue name")
	case v.TotalCapacity < 1:
		return errors.New("venue total_capacity must be positive")
	}
	return nil
}

func toVenues(payloads []venuePayload) []model.Venue {
	venues := make([]model.Venue, 0, len(payloads))
	for _, p := range payloads {
		venues = append(venues, model.Venue{
			ID:            p.ID,
			Name:          p.Name,
			Address:       p.Address,
			TotalCapacity: p.TotalCapacity,
			ContactInfo:   p.ContactInfo,
		})
	}
	return venues
}

// groupResponse mirrors the read shape of one formed group.
type groupResponse struct {
	ID                   string         `json:"id"`
	EventID              string         `json:"event_id"`
	Name                 string         `json:"name"`
	Size                 int            `json:"size"`
	ParticipantIDs       []string       `json:"participant_ids"`
	CategoryDistribution map[string]int `json:"category_distribution"`
	GenderDistribution   genderCounts   `json:"gender_distribution"`
	AverageAge           int            `json:"average_age"`
	DominantBudgetBand   string         `json:"dominant_budget_band"`
	CompatibilityScore   int            `json:"compatibility_score"`
}

type genderCounts struct {
	Male   int `json:"male"`
	Female int `json:"female"`
	Other  int `json:"other"`
}

func toGroupResponse(g *model.Group) groupResponse {
	ids := make([]string, 0, len(g.Participants))
	for i := range g.Participants {
		ids = append(ids, g.Participants[i].ID)
	}
	dist := make(map[string]int, len(g.CategoryDistribution))
	for cat, n := range g.CategoryDistribution {
		dist[string(cat)] = n
	}
	return groupResponse{
		ID:                   g.ID,
		EventID:              g.EventID,
		Name:                 g.Name,
		Size:                 g.Size(),
		ParticipantIDs:       ids,
		CategoryDistribution: dist,
		GenderDistribution: genderCounts{
			Male:   g.GenderDistribution.Male,
			Female: g.GenderDistribution.Female,
			Other:  g.GenderDistribution.Other,
		},
		AverageAge:         g.AverageAge,
		DominantBudgetBand: g.DominantBudgetBand,
		CompatibilityScore: g.CompatibilityScore,
	}
}

func toGroupResponses(groups []model.Group) []groupResponse {
	out := make([]groupResponse, 0, len(groups))
	for i := range groups {
		out = append(out, toGroupResponse(&groups[i]))
	}
	return out
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError translates known domain errors to HTTP statuses; anything
// unrecognized becomes a 500.
func writeDomainError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, matching.ErrMalformedRoster),
		errors.Is(err, matching.ErrInvalidTargetSize),
		errors.Is(err, seating.ErrNoVenues):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	case errors.Is(err, matching.ErrUnsatisfiableConstraints),
		errors.Is(err, seating.ErrInsufficientCapacity):
		writeError(w, http.StatusUnprocessableEntity, "unsatisfiable", Wrap(op, err))
	case errors.Is(err, service.ErrRunInFlight):
		writeError(w, http.StatusConflict, "run_in_flight", Wrap(op, err))
	case errors.Is(err, service.ErrQueueFull):
		writeError(w, http.StatusTooManyRequests, "backpressure", WrapKind(op, ErrBackpressure, err))
	case isNotFound(err):
		writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}

// isNotFound allows the API to translate upstream not-found errors to 404.
// This stays generic to avoid tight coupling with specific packages.
func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "not found")
}
