package testruns

import (
	"context"
	"fmt"

	"github.com/dinerly/tablematch/internal/adapters/repository"
	"github.com/dinerly/tablematch/internal/domain/model"
	"github.com/dinerly/tablematch/pkg/logger"
)

// seedRosters writes the generated guests and avoid requests into the
// service's database. The service reads its roster from the same sqlite
// file, so the tool must run against a locally hosted instance.
func seedRosters(ctx context.Context, config *Config, rosters []EventRoster) error {
	store, err := repository.NewSQLiteStore(config.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database %s: %w", config.DBPath, err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Get().Error(ctx, "failed to close database", logger.Error(err))
		}
	}()

	seeded := 0
	for _, roster := range rosters {
		for _, guest := range roster.Guests {
			record := model.GuestRecord{
				ID:           guest.ID,
				Age:          guest.Age,
				Gender:       guest.Gender,
				Budget:       guest.Budget,
				Relationship: guest.Relationship,
				Answers:      guest.Answers,
			}
			if err := store.InsertPairingGuest(ctx, roster.EventID, record); err != nil {
				return fmt.Errorf("failed to seed guest %s: %w", guest.ID, err)
			}
			seeded++
		}

		for _, pair := range roster.AvoidPairs {
			constraint := model.AvoidConstraint{
				ParticipantA: pair.ParticipantA,
				ParticipantB: pair.ParticipantB,
			}
			if err := store.InsertAvoidConstraint(ctx, pair.EventID, constraint); err != nil {
				return fmt.Errorf("failed to seed avoid pair %s/%s: %w",
					pair.ParticipantA, pair.ParticipantB, err)
			}
		}
	}

	logger.Get().Info(ctx, "seeded rosters into database",
		logger.String("dbPath", config.DBPath),
		logger.Int("guests", seeded))
	return nil
}
