package testruns

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/dinerly/tablematch/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	// Initialize the logger first
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "test_log_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the smoke test tool.
func ShowHelp() {
	os.Stdout.WriteString(`Tablematch Smoke Test Tool
==========================

Seeds synthetic dinner rosters into a locally hosted tablematch instance,
submits match runs, and verifies the formed groups against the matching laws.

Usage:
  go run cmd/test-runs/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -db string
        Path to the service's sqlite database (default "tablematch.db")
  -events int
        Number of dinner events to simulate (default 5)
  -guests int
        Number of guests per event (default 24)
  -target int
        Target group size, 5 or 6 (default 6)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -distribute
        Request venue distribution with each run
  -output string
        Output file for generated rosters (default: generated_rosters_TIMESTAMP.json)
  -log string
        Log file for test output (default: test_log_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Smoke test with default settings
  go run cmd/test-runs/main.go

  # Larger events with venue distribution
  go run cmd/test-runs/main.go -events 10 -guests 60 -distribute

  # Verbose output against a custom instance
  go run cmd/test-runs/main.go -verbose -url http://localhost:8080 -db /var/lib/tablematch.db
`)
}
