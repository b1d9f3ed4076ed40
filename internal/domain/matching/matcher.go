// Package matching partitions an event roster into compatible dinner groups.
//
// Formation runs in two phases: a strict greedy pass that enforces the full
// rule set and aborts outright when it cannot fill a slot, and a lenient
// fallback that shuffles the roster and enforces only the hard avoid-pair
// constraints plus gender-balance feasibility. The caller composes the two
// through GenerateGroups and branches on the reported outcome.
package matching

import (
	"context"
	"fmt"
	"math/rand"
	"sort"

	"github.com/dinerly/tablematch/internal/domain/model"
	"github.com/dinerly/tablematch/pkg/logger"
)

// Roster size thresholds. Below minRosterSize the event should be postponed;
// up to singleGroupMax everyone dines at one table.
const (
	minRosterSize  = 4
	singleGroupMax = 9
)

// Valid admin-configurable target group sizes.
const (
	TargetSizeFive = 5
	TargetSizeSix  = 6
)

// Outcome tells the caller which path produced (or withheld) the groups.
type Outcome string

// Formation outcomes. TooFew and Lenient are expected, non-exceptional
// results the caller must branch on.
const (
	OutcomeTooFew  Outcome = "too_few_participants"
	OutcomeSingle  Outcome = "single_group"
	OutcomeStrict  Outcome = "strict"
	OutcomeLenient Outcome = "lenient"
)

// Result is the output of one formation run.
type Result struct {
	Groups  []model.Group
	Outcome Outcome
}

// Matcher runs group formation. Safe for concurrent use across events only
// when each call gets its own rand source; the default source is shared and
// callers that match events concurrently should inject per-run sources.
type Matcher struct {
	rng    *rand.Rand
	logger logger.Logger
}

// Option applies a configuration option to the Matcher.
type Option func(*Matcher)

// WithRand injects the random source used by the lenient shuffle, making
// fallback runs reproducible under test.
func WithRand(rng *rand.Rand) Option {
	return func(m *Matcher) {
		if rng != nil {
			m.rng = rng
		}
	}
}

// WithLogger sets a custom logger for the matcher.
func WithLogger(l logger.Logger) Option {
	return func(m *Matcher) {
		if l != nil {
			m.logger = l
		}
	}
}

// New constructs a Matcher with default configuration.
func New(opts ...Option) *Matcher {
	m := &Matcher{
		rng: rand.New(rand.NewSource(rand.Int63())), //nolint:gosec // shuffle order is not security sensitive
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = logger.Get().Named("matching")
	}
	return m
}

// GenerateGroups partitions the roster into groups.
//
// Sizing policy:
//   - fewer than 4 guests: no groups, OutcomeTooFew (postpone signal)
//   - 4 to 9 guests: one group holding everyone
//   - 10 or more: ceil(N/target) groups whose sizes sum exactly to N and
//     each land within one of the target
//
// An error is returned only for malformed input or an avoid-constraint set
// that no partition can satisfy; strict-mode infeasibility silently falls
// back to the lenient pass.
func (m *Matcher) GenerateGroups(ctx context.Context, roster []model.Participant, constraints []model.AvoidConstraint, targetSize int) (Result, error) {
	if targetSize != TargetSizeFive && targetSize != TargetSizeSix {
		return Result{}, fmt.Errorf("%w: %d (want 5 or 6)", ErrInvalidTargetSize, targetSize)
	}
	if err := validateRoster(roster); err != nil {
		return Result{}, err
	}

	cset := NewConstraintSet(constraints)
	n := len(roster)

	switch {
	case n < minRosterSize:
		m.logger.Info(ctx, "roster too small, postponing",
			logger.Int("roster", n),
		)
		return Result{Outcome: OutcomeTooFew}, nil

	case n <= singleGroupMax:
		// Small pools dine together; splitting them makes the balance
		// rules unsatisfiable more often than it helps.
		g := NewGroup(append([]model.Participant(nil), roster...))
		g.Name = "Group 1"
		return Result{Groups: []model.Group{g}, Outcome: OutcomeSingle}, nil
	}

	sizes := groupSizes(n, targetSize)

	if groups, ok := m.tryStrict(ctx, roster, cset, sizes); ok {
		return Result{Groups: nameGroups(groups), Outcome: OutcomeStrict}, nil
	}

	m.logger.Info(ctx, "strict formation infeasible, falling back to lenient",
		logger.Int("roster", n),
		logger.Int("constraints", cset.Len()),
	)

	groups, err := m.lenientFallback(ctx, roster, cset, sizes)
	if err != nil {
		return Result{}, err
	}
	return Result{Groups: nameGroups(groups), Outcome: OutcomeLenient}, nil
}

// groupSizes splits n guests into ceil(n/target) groups: base size floor,
// with the first n mod numGroups groups taking one extra seat. Every size
// lands in {target-1, target, target+1} and the sizes sum exactly to n.
func groupSizes(n, targetSize int) []int {
	numGroups := (n + targetSize - 1) / targetSize
	base := n / numGroups
	extra := n % numGroups

	sizes := make([]int, numGroups)
	for i := range sizes {
		sizes[i] = base
		if i < extra {
			sizes[i]++
		}
	}
	return sizes
}

func validateRoster(roster []model.Participant) error {
	seen := make(map[string]struct{}, len(roster))
	for i := range roster {
		id := roster[i].ID
		if id == "" {
			return fmt.Errorf("%w: participant %d has empty id", ErrMalformedRoster, i)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: duplicate participant id %s", ErrMalformedRoster, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// sortedByID returns a copy of the roster ordered by participant id, the
// documented deterministic ordering for seed and tie-break decisions.
func sortedByID(roster []model.Participant) []model.Participant {
	out := append([]model.Participant(nil), roster...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func nameGroups(groups []model.Group) []model.Group {
	for i := range groups {
		groups[i].Name = fmt.Sprintf("Group %d", i+1)
	}
	return groups
}
