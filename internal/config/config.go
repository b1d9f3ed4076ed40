// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Layer file and environment sources on top via Load.
// - External errors must be wrapped via this package's error kinds.
package config

import (
	"runtime"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DBPath points at the SQLite database file backing the event store.
	DBPath string `koanf:"db_path"`

	// QueueSize bounds the in-memory match request queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of match run workers.
	WorkerCount int `koanf:"worker_count"`

	// TargetGroupSize is the default group size for runs that do not
	// specify one. Must be 5 or 6.
	TargetGroupSize int `koanf:"target_group_size"`

	// ShuffleSeed seeds the lenient-mode shuffle. Zero means a fresh
	// random seed per process; set it for reproducible fallback runs.
	ShuffleSeed int64 `koanf:"shuffle_seed"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		Addr:            ":9080",
		DBPath:          "tablematch.db",
		QueueSize:       1024,
		WorkerCount:     runtime.NumCPU(),
		TargetGroupSize: 6,
		ShuffleSeed:     0,
	}
}
