package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/dinerly/tablematch/internal/testruns"
)

// Default configuration constants.
const (
	defaultNumEvents   = 5
	defaultNumGuests   = 24
	defaultTargetSize  = 6
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultTestTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:9080", "Base URL of the service")
		dbPath     = flag.String("db", "tablematch.db", "Path to the service's sqlite database")
		numEvents  = flag.Int("events", defaultNumEvents, "Number of dinner events to simulate")
		numGuests  = flag.Int("guests", defaultNumGuests, "Number of guests per event")
		targetSize = flag.Int("target", defaultTargetSize, "Target group size (5 or 6)")
		workers    = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		distribute = flag.Bool("distribute", false, "Request venue distribution with each run")
		outputFile = flag.String("output", "", "Output file for generated rosters (default: generated_rosters_TIMESTAMP.json)")
		logFile    = flag.String("log", "", "Log file for test output (default: test_log_TIMESTAMP.log)")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		testruns.ShowHelp()
		return
	}

	// Setup logging
	if err := testruns.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	// Create test configuration
	config := &testruns.Config{
		BaseURL:    *baseURL,
		DBPath:     *dbPath,
		NumEvents:  *numEvents,
		NumGuests:  *numGuests,
		TargetSize: *targetSize,
		Workers:    *workers,
		Timeout:    *timeout,
		Distribute: *distribute,
		OutputFile: *outputFile,
		LogFile:    *logFile,
		Verbose:    *verbose,
	}

	// Run the test
	if err := testruns.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Test failed: " + err.Error() + "\n")
		return
	}
}
