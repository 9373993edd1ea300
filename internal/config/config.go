// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) initializer to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"runtime"
)

// Config contains process configuration for both the ingest service and
// the ETL runner.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// S3Endpoint is the MinIO/S3 endpoint host:port.
	S3Endpoint string `koanf:"s3_endpoint"`

	// S3AccessKey and S3SecretKey authenticate against the object store.
	S3AccessKey string `koanf:"s3_access_key"`
	S3SecretKey string `koanf:"s3_secret_key"`

	// S3UseSSL toggles TLS for the object store connection.
	S3UseSSL bool `koanf:"s3_use_ssl"`

	// Bucket names for the three data tiers.
	BucketBronze string `koanf:"bucket_bronze"`
	BucketSilver string `koanf:"bucket_silver"`
	BucketGold   string `koanf:"bucket_gold"`

	// MaxEventsPerBatch caps the size of a single POST /events payload.
	MaxEventsPerBatch int `koanf:"max_events_per_batch"`

	// QueueSize bounds the in-memory silver transform queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of silver transform workers.
	WorkerCount int `koanf:"worker_count"`

	// MassiveHitThreshold is the damage amount above which a combat_damage
	// event is flagged as a massive hit in silver.
	MassiveHitThreshold float64 `koanf:"massive_hit_threshold"`

	// StreamBufferSize bounds each SSE subscriber's channel.
	StreamBufferSize int `koanf:"stream_buffer_size"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":8090",
		S3Endpoint:          "localhost:9000",
		S3AccessKey:         "minio",
		S3SecretKey:         "minio123",
		S3UseSSL:            false,
		BucketBronze:        "bronze",
		BucketSilver:        "silver",
		BucketGold:          "gold",
		MaxEventsPerBatch:   10_000,
		QueueSize:           10_000,
		WorkerCount:         runtime.NumCPU() * 2,
		MassiveHitThreshold: 10_000,
		StreamBufferSize:    256,
	}
}
