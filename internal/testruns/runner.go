package testruns

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/dinerly/tablematch/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
	outputPermission    = 0600
)

// Run executes the complete matching smoke test.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting tablematch smoke test",
		logger.String("baseURL", config.BaseURL),
		logger.String("dbPath", config.DBPath),
		logger.Int("events", config.NumEvents),
		logger.Int("guestsPerEvent", config.NumGuests),
		logger.Int("targetSize", config.TargetSize),
		logger.Int("workers", config.Workers),
		logger.Any("distribute", config.Distribute),
		logger.Any("verbose", config.Verbose))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate rosters
	rosters, err := generateRosters(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("roster generation failed: %w", err)
	}

	// Step 3: Seed them into the service's database
	if err := seedRosters(ctx, config, rosters); err != nil {
		return fmt.Errorf("roster seeding failed: %w", err)
	}

	// Step 4: Submit match runs concurrently
	if err := submitRuns(ctx, config, rosters, stats); err != nil {
		return fmt.Errorf("run submission failed: %w", err)
	}

	// Step 5: Fetch and verify each event's groups
	if err := verifyEvents(ctx, config, rosters, stats); err != nil {
		return fmt.Errorf("result verification failed: %w", err)
	}

	// Step 6: Save rosters to file for reproduction
	if err := saveRostersToFile(ctx, config, rosters); err != nil {
		logger.Get().Warn(ctx, "failed to save rosters to file", logger.Error(err))
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	if stats.LawViolations > 0 {
		return fmt.Errorf("%d law violations detected", stats.LawViolations)
	}

	logger.Get().Info(ctx, "smoke test completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/healthz"

	resp, err := client.Get(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	// Any 200 response counts as healthy (the endpoint serves Prometheus
	// metrics).
	if resp.StatusCode != StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// verifyEvents polls every event's groups and checks the matching laws.
func verifyEvents(ctx context.Context, config *Config, rosters []EventRoster, stats *Stats) error {
	log.Println("🔍 Verifying formed groups...")

	client := newHTTPClient(config.Timeout)
	for i := range rosters {
		roster := &rosters[i]

		groups, err := fetchGroups(ctx, client, config.BaseURL, roster.EventID)
		if err != nil {
			return fmt.Errorf("event %s: %w", roster.EventID, err)
		}
		if len(groups) == 0 {
			// Legitimate for tiny rosters; anything else means the run
			// never completed.
			if len(roster.Guests) >= 4 {
				return fmt.Errorf("event %s produced no groups for %d guests",
					roster.EventID, len(roster.Guests))
			}
			log.Printf("ℹ️  Event %s postponed (%d guests)", roster.EventID, len(roster.Guests))
			continue
		}

		if err := verifyEvent(roster, groups, stats); err != nil {
			return fmt.Errorf("event %s: %w", roster.EventID, err)
		}
		stats.EventsVerified++
		displayGroups(roster.EventID, groups, config.Verbose)
	}

	log.Println("✅ Result verification completed")
	return nil
}

// saveRostersToFile saves the generated rosters to a JSON file.
func saveRostersToFile(ctx context.Context, config *Config, rosters []EventRoster) error {
	if len(rosters) == 0 {
		return fmt.Errorf("no rosters to save")
	}

	filename := config.OutputFile
	if filename == "" {
		timestamp := time.Now().Format("20060102_150405")
		filename = "generated_rosters_" + timestamp + ".json"
	}

	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(rosters, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal rosters: %w", err)
	}
	if err := os.WriteFile(filename, data, outputPermission); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	logger.Get().Info(ctx, "rosters saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats prints the final test statistics.
func displayFinalStats(stats *Stats) {
	var acceptRate, placementRate float64

	if stats.RunsSubmitted > 0 {
		acceptRate = float64(stats.RunsAccepted) / float64(stats.RunsSubmitted) * PercentageMultiplier
	}
	if stats.GuestsGenerated > 0 {
		placementRate = float64(stats.GuestsPlaced) / float64(stats.GuestsGenerated) * PercentageMultiplier
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("guestsGenerated", stats.GuestsGenerated),
		logger.Int("runsSubmitted", stats.RunsSubmitted),
		logger.Int("runsAccepted", stats.RunsAccepted),
		logger.Int("runsRejected", stats.RunsRejected),
		logger.Int("runsFailed", stats.RunsFailed),
		logger.Int("eventsVerified", stats.EventsVerified),
		logger.Int("groupsFormed", stats.GroupsFormed),
		logger.Int("guestsPlaced", stats.GuestsPlaced),
		logger.Int("lawViolations", stats.LawViolations),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("acceptRate", acceptRate),
		logger.Float64("placementRate", placementRate))
}
