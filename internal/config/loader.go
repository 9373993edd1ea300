package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, .env, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. .env file in the working directory, if present
//  3. file (YAML) if RAIDLAKE_CONFIG is set
//  4. env (prefix RAIDLAKE_)
func Load(ctx context.Context) (*Config, error) {
	base := New()

	// Hydrate the process environment from .env before the env provider
	// runs. A missing .env is not an error.
	_ = godotenv.Load()

	k := koanf.New(".")

	if path := os.Getenv("RAIDLAKE_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: RAIDLAKE_ADDR, RAIDLAKE_BUCKET_SILVER, ...
	// Map env keys like RAIDLAKE_QUEUE_SIZE -> queue_size (flat keys).
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("RAIDLAKE_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "raidlake_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.S3Endpoint == "":
		return fmt.Errorf("%w: s3_endpoint must not be empty", ErrInvalidConfig)
	case c.BucketBronze == "" || c.BucketSilver == "" || c.BucketGold == "":
		return fmt.Errorf("%w: bucket names must not be empty", ErrInvalidConfig)
	case c.MaxEventsPerBatch < 1:
		return fmt.Errorf("%w: max_events_per_batch must be positive", ErrInvalidConfig)
	}
	return nil
}
