package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if TABLEMATCH_CONFIG is set
//  3. env (prefix TABLEMATCH_)
func Load(_ context.Context) (*Config, error) {
	// Start with defaults
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("TABLEMATCH_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: TABLEMATCH_ADDR, TABLEMATCH_QUEUE_SIZE, ...
	// Map env keys like TABLEMATCH_QUEUE_SIZE -> queue_size (flat keys).
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("TABLEMATCH_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "tablematch_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Basic validation
	if cfg.Addr == "" {
		return nil, fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("%w: db_path must not be empty", ErrInvalidConfig)
	}
	if cfg.TargetGroupSize != 5 && cfg.TargetGroupSize != 6 {
		return nil, fmt.Errorf("%w: target_group_size must be 5 or 6", ErrInvalidConfig)
	}
	return &cfg, nil
}
