// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	runqueue "github.com/dinerly/tablematch/internal/adapters/mq/queue"
	workerpool "github.com/dinerly/tablematch/internal/adapters/mq/worker"
	repository "github.com/dinerly/tablematch/internal/adapters/repository"
	"github.com/dinerly/tablematch/internal/domain/compat"
	"github.com/dinerly/tablematch/internal/domain/matching"
	"github.com/dinerly/tablematch/internal/domain/model"
	"github.com/dinerly/tablematch/internal/domain/personality"
	"github.com/dinerly/tablematch/internal/domain/runguard"
	"github.com/dinerly/tablematch/internal/domain/seating"
	"github.com/dinerly/tablematch/pkg/logger"
	"github.com/dinerly/tablematch/pkg/metrics"
)

// ErrNotStarted is returned when an operation runs against a stopped service.
var ErrNotStarted = errors.New("service not started")

// ErrRunInFlight is returned when an event already has a matching run queued
// or executing.
var ErrRunInFlight = errors.New("matching run already in flight for event")

// ErrQueueFull is returned when the run queue cannot take another request.
var ErrQueueFull = errors.New("run queue full")

// Service implements the API dependencies for the matching system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      repository.Store
	guard      runguard.Guard
	runQueue   runqueue.Queue
	matcher    *matching.Matcher
	workerPool *workerpool.Pool

	// Configuration
	workerCount int
	queueSize   int
	targetSize  int
	shuffleSeed int64
	dbPath      string

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the run queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithTargetGroupSize sets the default target group size for runs that do
// not specify one.
func WithTargetGroupSize(size int) Option {
	return func(s *Service) {
		if size == matching.TargetSizeFive || size == matching.TargetSizeSix {
			s.targetSize = size
		}
	}
}

// WithShuffleSeed fixes the seed of the lenient-pass shuffle, making runs
// reproducible. Zero keeps the non-deterministic default.
func WithShuffleSeed(seed int64) Option {
	return func(s *Service) {
		s.shuffleSeed = seed
	}
}

// WithStore injects a pre-built store, overriding the database path.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithDatabasePath sets the SQLite database path used when no store is
// injected.
func WithDatabasePath(path string) Option {
	return func(s *Service) {
		if path != "" {
			s.dbPath = path
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU(),
		queueSize:   1024,
		targetSize:  matching.TargetSizeSix,
		dbPath:      "tablematch.db",
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting matching service...")

	if s.store == nil {
		store, err := repository.NewSQLiteStore(s.dbPath)
		if err != nil {
			return fmt.Errorf("opening store: %w", err)
		}
		s.store = store
		s.logger.Info(ctx, "using sqlite store", logger.String("path", s.dbPath))
	}

	s.guard = runguard.NewInMemoryGuard()
	s.runQueue = runqueue.NewInMemoryQueue(
		runqueue.WithCapacity(s.queueSize),
		runqueue.WithBufferSize(s.queueSize),
	)

	matcherOpts := []matching.Option{matching.WithLogger(s.logger.Named("matching"))}
	if s.shuffleSeed != 0 {
		matcherOpts = append(matcherOpts, matching.WithRand(rand.New(rand.NewSource(s.shuffleSeed)))) //nolint:gosec // shuffle order is not security sensitive
	}
	s.matcher = matching.New(matcherOpts...)

	s.workerPool = workerpool.NewPool(s.workerCount, s.runQueue, s)
	s.workerPool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "matching service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("targetGroupSize", s.targetSize),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping matching service...")

	if s.workerPool != nil {
		_ = s.workerPool.Shutdown(ctx)
	}
	if s.store != nil {
		_ = s.store.Close()
	}

	s.started = false
	s.logger.Info(ctx, "matching service stopped")
}

// EnqueueRun submits a matching run for asynchronous processing. It returns
// the run id. ErrRunInFlight means the event already has a run pending and a
// second one was not queued.
func (s *Service) EnqueueRun(ctx context.Context, req model.MatchRequest) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return "", ErrNotStarted
	}

	if req.RunID == "" {
		req.RunID = uuid.NewString()
	}
	if req.TargetSize == 0 {
		req.TargetSize = s.targetSize
	}

	if !s.guard.Acquire(ctx, req.EventID) {
		return "", fmt.Errorf("%w: %s", ErrRunInFlight, req.EventID)
	}
	metrics.UpdateActiveRuns(s.guard.Active())

	if !s.runQueue.Enqueue(ctx, req) {
		s.guard.Release(ctx, req.EventID)
		metrics.UpdateActiveRuns(s.guard.Active())
		return "", fmt.Errorf("%w: event %s not queued", ErrQueueFull, req.EventID)
	}

	s.logger.Info(ctx, "matching run queued",
		logger.String("runID", req.RunID),
		logger.String("eventID", req.EventID),
		logger.Int("targetSize", req.TargetSize),
	)
	return req.RunID, nil
}

// ExecuteRun runs one queued match request end to end. Workers call this;
// it releases the event guard when done regardless of outcome.
func (s *Service) ExecuteRun(ctx context.Context, run model.MatchRequest) error {
	defer func() {
		s.guard.Release(ctx, run.EventID)
		metrics.UpdateActiveRuns(s.guard.Active())
	}()

	result, err := s.GenerateGroups(ctx, run.EventID, run.TargetSize)
	if err != nil {
		return err
	}

	if run.Distribute && len(result.Groups) > 0 {
		if _, err := s.Distribute(ctx, run.EventID, run.Venues); err != nil {
			return fmt.Errorf("distributing groups: %w", err)
		}
	}
	return nil
}

// GenerateGroups forms groups for an event from its current roster and
// persists them, replacing any previous formation.
func (s *Service) GenerateGroups(ctx context.Context, eventID string, targetSize int) (matching.Result, error) {
	if targetSize == 0 {
		targetSize = s.targetSize
	}

	start := time.Now()
	defer func() {
		metrics.ObserveFormationLatency(float64(time.Since(start).Milliseconds()))
	}()

	roster, err := s.store.Roster(ctx, eventID)
	if err != nil {
		return matching.Result{}, fmt.Errorf("loading roster: %w", err)
	}
	constraints, err := s.store.AvoidConstraints(ctx, eventID)
	if err != nil {
		return matching.Result{}, fmt.Errorf("loading avoid constraints: %w", err)
	}

	participants := make([]model.Participant, 0, len(roster))
	for i := range roster {
		participants = append(participants, buildParticipant(&roster[i]))
	}

	result, err := s.matcher.GenerateGroups(ctx, participants, constraints, targetSize)
	if err != nil {
		metrics.RecordErrorByComponent("matching", "formation_error")
		return matching.Result{}, err
	}

	for i := range result.Groups {
		result.Groups[i].ID = uuid.NewString()
		result.Groups[i].EventID = eventID
	}

	if err := s.store.SaveGroups(ctx, eventID, result.Groups); err != nil {
		return matching.Result{}, fmt.Errorf("saving groups: %w", err)
	}

	metrics.RecordMatchRun(string(result.Outcome))
	metrics.RecordGroupsFormed(len(result.Groups))
	if result.Outcome == matching.OutcomeLenient {
		metrics.RecordStrictFallback()
	}
	for i := range result.Groups {
		metrics.ObserveGroupSize(result.Groups[i].Size())
		metrics.ObserveCompatibilityScore(result.Groups[i].CompatibilityScore)
	}

	s.logger.Info(ctx, "groups formed",
		logger.String("eventID", eventID),
		logger.Int("participants", len(participants)),
		logger.Int("groups", len(result.Groups)),
		logger.String("outcome", string(result.Outcome)),
	)
	return result, nil
}

// buildParticipant scores one roster record and normalizes its demographic
// fields. Guests with no assessment get default scores and the fallback
// category.
func buildParticipant(g *model.GuestRecord) model.Participant {
	scores, category := personality.ScoreGuest(g.Answers)
	return model.Participant{
		ID:             g.ID,
		Category:       category,
		CategoryScores: scores,
		Age:            g.Age,
		Gender:         g.Gender,
		BudgetBand:     string(compat.NormalizeBudget(g.Budget)),
		Relationship:   g.Relationship,
		RawAnswers:     g.Answers,
	}
}

// Distribute packs the event's stored groups into venues and persists the
// resulting tables and seat assignments. Notification flags reset first so
// re-running a distribution re-notifies every guest.
func (s *Service) Distribute(ctx context.Context, eventID string, venues []model.Venue) (*seating.Plan, error) {
	start := time.Now()
	defer func() {
		metrics.ObserveDistributionLatency(float64(time.Since(start).Milliseconds()))
	}()

	groups, err := s.store.Groups(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("loading groups: %w", err)
	}

	plan, err := seating.BuildPlan(groups, venues)
	if err != nil {
		if errors.Is(err, seating.ErrInsufficientCapacity) {
			metrics.RecordCapacityShortfall()
		}
		return nil, err
	}

	// The plan is fully validated; start writing.
	if err := s.store.ResetNotificationFlags(ctx, eventID); err != nil {
		return nil, fmt.Errorf("resetting notification flags: %w", err)
	}
	for i := range plan.Venues {
		if err := s.store.SaveVenue(ctx, plan.Venues[i]); err != nil {
			return nil, fmt.Errorf("saving venue %s: %w", plan.Venues[i].ID, err)
		}
	}
	for i := range plan.Tables {
		if err := s.store.SaveTable(ctx, plan.Tables[i]); err != nil {
			return nil, fmt.Errorf("saving table %s: %w", plan.Tables[i].ID, err)
		}
	}

	if err := s.writeAssignments(ctx, eventID, plan); err != nil {
		return nil, err
	}

	metrics.RecordTablesCreated(len(plan.Tables))
	metrics.RecordSeatsAssigned(len(plan.Assignments))
	s.logger.Info(ctx, "groups distributed",
		logger.String("eventID", eventID),
		logger.Int("venues", len(plan.Venues)),
		logger.Int("tables", len(plan.Tables)),
		logger.Int("seats", len(plan.Assignments)),
	)
	return plan, nil
}

// writeAssignments persists seat assignments venue by venue, concurrently.
// A participant deleted between planning and writing is skipped and logged
// rather than failing the distribution.
func (s *Service) writeAssignments(ctx context.Context, eventID string, plan *seating.Plan) error {
	byVenue := make(map[string][]model.SeatAssignment)
	for _, a := range plan.Assignments {
		byVenue[a.VenueID] = append(byVenue[a.VenueID], a)
	}

	var wg sync.WaitGroup
	errCh := make(chan error, len(byVenue))

	for venueID, assignments := range byVenue {
		wg.Add(1)
		go func(venueID string, assignments []model.SeatAssignment) {
			defer wg.Done()

			kept := assignments[:0]
			for _, a := range assignments {
				exists, err := s.store.ParticipantExists(ctx, a.ParticipantID)
				if err != nil {
					errCh <- fmt.Errorf("checking participant %s: %w", a.ParticipantID, err)
					return
				}
				if !exists {
					metrics.RecordSkippedParticipant()
					s.logger.Warn(ctx, "participant vanished before seating, skipping",
						logger.String("participantID", a.ParticipantID),
						logger.String("venueID", venueID),
					)
					continue
				}
				kept = append(kept, a)
			}

			if err := s.store.SaveAssignments(ctx, eventID, kept); err != nil {
				errCh <- fmt.Errorf("saving assignments for venue %s: %w", venueID, err)
			}
		}(venueID, assignments)
	}

	wg.Wait()
	close(errCh)
	return <-errCh
}

// ClearAssignments wipes all seating state for an event.
func (s *Service) ClearAssignments(ctx context.Context, eventID string) error {
	if err := s.store.ClearEvent(ctx, eventID); err != nil {
		return fmt.Errorf("clearing event %s: %w", eventID, err)
	}
	metrics.RecordClearOperation()
	s.logger.Info(ctx, "event seating cleared", logger.String("eventID", eventID))
	return nil
}

// Groups returns the stored groups for an event.
func (s *Service) Groups(ctx context.Context, eventID string) ([]model.Group, error) {
	return s.store.Groups(ctx, eventID)
}

// EditGroupMembers replaces a group's membership with the given guests from
// the event roster, then recomputes the derived fields. This is the admin
// path for manual adjustments between formation and distribution.
func (s *Service) EditGroupMembers(ctx context.Context, groupID string, participantIDs []string) (model.Group, error) {
	stored, err := s.store.Group(ctx, groupID)
	if err != nil {
		return model.Group{}, err
	}

	roster, err := s.store.Roster(ctx, stored.EventID)
	if err != nil {
		return model.Group{}, fmt.Errorf("loading roster: %w", err)
	}
	byID := make(map[string]*model.GuestRecord, len(roster))
	for i := range roster {
		byID[roster[i].ID] = &roster[i]
	}

	members := make([]model.Participant, 0, len(participantIDs))
	for _, id := range participantIDs {
		guest, ok := byID[id]
		if !ok {
			return model.Group{}, fmt.Errorf("participant %s not found in event %s roster", id, stored.EventID)
		}
		members = append(members, buildParticipant(guest))
	}

	if err := s.store.ReplaceGroupMembers(ctx, groupID, members); err != nil {
		return model.Group{}, err
	}

	s.logger.Info(ctx, "group membership edited",
		logger.String("groupID", groupID),
		logger.Int("members", len(members)),
	)
	return s.RecomputeGroup(ctx, groupID)
}

// RecomputeGroup rebuilds a stored group's derived fields from its current
// membership and persists them.
func (s *Service) RecomputeGroup(ctx context.Context, groupID string) (model.Group, error) {
	stored, err := s.store.Group(ctx, groupID)
	if err != nil {
		return model.Group{}, err
	}

	fresh := matching.NewGroup(stored.Participants)
	fresh.ID = stored.ID
	fresh.EventID = stored.EventID
	fresh.Name = stored.Name

	if err := s.store.UpdateGroupMetrics(ctx, fresh); err != nil {
		return model.Group{}, err
	}

	metrics.ObserveCompatibilityScore(fresh.CompatibilityScore)
	return fresh, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":         s.started,
		"workerCount":     s.workerCount,
		"queueSize":       s.queueSize,
		"targetGroupSize": s.targetSize,
	}

	if s.started {
		queueLen := s.runQueue.Len(context.Background())
		stats["queueLength"] = queueLen
		stats["activeRuns"] = s.guard.Active()

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateWorkerCount(s.workerCount)
	}

	return stats
}
