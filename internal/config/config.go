// Package config defines service configuration structures and loading hooks.
package config

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Ledger backends.
const (
	LedgerMemory = "memory"
	LedgerEVM    = "evm"
)

// Blob backends.
const (
	BlobNone  = "none"
	BlobLocal = "local"
	BlobS3    = "s3"
	BlobGCS   = "gcs"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":3001".
	Addr string `koanf:"addr"`

	// Port overrides the port of Addr when Addr is not set explicitly.
	Port int `koanf:"port"`

	// GithubAPIURL is the base URL of the profile API.
	GithubAPIURL string `koanf:"github_api_url"`

	// GithubToken is used when a request carries no token of its own.
	GithubToken string `koanf:"github_token"`

	// UpstreamTimeoutMS bounds every profile API call.
	UpstreamTimeoutMS int `koanf:"upstream_timeout_ms"`

	LedgerBackend   string `koanf:"ledger_backend"`
	ContractAddress string `koanf:"contract_address"`
	RPCURL          string `koanf:"rpc_url"`
	PrivateKey      string `koanf:"private_key"`
	// ChainID is looked up from the node when zero.
	ChainID int64 `koanf:"chain_id"`
	// MineTimeoutMS bounds the wait for a transaction receipt.
	MineTimeoutMS int `koanf:"mine_timeout_ms"`

	// FlagsBackend is one of memory, file, s3, gcs, sqlite, postgres, mysql.
	FlagsBackend string `koanf:"flags_backend"`
	FlagsDSN     string `koanf:"flags_dsn"`
	// FlagsPath is the document path for file and the object key for s3 and gcs.
	FlagsPath string `koanf:"flags_path"`

	// BlobBackend holds flag documents and batch snapshots.
	BlobBackend string `koanf:"blob_backend"`
	BlobDir     string `koanf:"blob_dir"`
	BlobBucket  string `koanf:"blob_bucket"`
	BlobPrefix  string `koanf:"blob_prefix"`
	S3Region    string `koanf:"s3_region"`
	S3Endpoint  string `koanf:"s3_endpoint"`
	S3AccessKey string `koanf:"s3_access_key"`
	S3SecretKey string `koanf:"s3_secret_key"`
	GCSEndpoint string `koanf:"gcs_endpoint"`

	// BatchQueueSize bounds the queue of submitted batches.
	BatchQueueSize int `koanf:"batch_queue_size"`

	// DedupeSize sets how many batch ids are remembered.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxBatchSize caps identities per batch.
	MaxBatchSize int `koanf:"max_batch_size"`

	// MaxLeaderboardLimit caps GET /api/leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":3001",
		GithubAPIURL:        "https://api.github.com",
		UpstreamTimeoutMS:   10_000,
		LedgerBackend:       LedgerMemory,
		RPCURL:              "https://coston2-api.flare.network/ext/C/rpc",
		MineTimeoutMS:       120_000,
		FlagsBackend:        "memory",
		FlagsPath:           "flaggedProfiles.json",
		BlobBackend:         BlobNone,
		BlobDir:             "data",
		BatchQueueSize:      16,
		DedupeSize:          10_000,
		MaxBatchSize:        200,
		MaxLeaderboardLimit: 100,
	}
}

// UpstreamTimeout returns the profile API timeout.
func (c *Config) UpstreamTimeout() time.Duration {
	return time.Duration(c.UpstreamTimeoutMS) * time.Millisecond
}

// MineTimeout returns the receipt wait bound.
func (c *Config) MineTimeout() time.Duration {
	return time.Duration(c.MineTimeoutMS) * time.Millisecond
}

// Validate checks option values and the combinations backends need.
func (c *Config) Validate(_ context.Context) error {
	c.LedgerBackend = strings.ToLower(strings.TrimSpace(c.LedgerBackend))
	c.FlagsBackend = strings.ToLower(strings.TrimSpace(c.FlagsBackend))
	c.BlobBackend = strings.ToLower(strings.TrimSpace(c.BlobBackend))

	switch {
	case c.Addr == "":
		return invalid("addr must not be empty")
	case c.UpstreamTimeoutMS <= 0:
		return invalid("upstream_timeout_ms must be positive")
	case c.BatchQueueSize <= 0:
		return invalid("batch_queue_size must be positive")
	case c.DedupeSize <= 0:
		return invalid("dedupe_size must be positive")
	case c.MaxBatchSize <= 0:
		return invalid("max_batch_size must be positive")
	case c.MaxLeaderboardLimit <= 0:
		return invalid("max_leaderboard_limit must be positive")
	}

	switch c.LedgerBackend {
	case LedgerMemory:
	case LedgerEVM:
		if c.RPCURL == "" {
			return missing("rpc_url")
		}
	default:
		return unknownBackend("ledger_backend", c.LedgerBackend)
	}

	switch c.BlobBackend {
	case "", BlobNone:
		c.BlobBackend = BlobNone
	case BlobLocal:
		if c.BlobDir == "" {
			return missing("blob_dir")
		}
	case BlobS3, BlobGCS:
		if c.BlobBucket == "" {
			return missing("blob_bucket")
		}
	default:
		return unknownBackend("blob_backend", c.BlobBackend)
	}

	switch c.FlagsBackend {
	case "memory", "sqlite":
	case "file":
		if c.FlagsPath == "" {
			return missing("flags_path")
		}
	case BlobS3, BlobGCS:
		if c.BlobBackend != c.FlagsBackend {
			return invalid("flags_backend %s needs blob_backend %s", c.FlagsBackend, c.FlagsBackend)
		}
	case "postgres", "mysql":
		if c.FlagsDSN == "" {
			return missing("flags_dsn")
		}
	default:
		return unknownBackend("flags_backend", c.FlagsBackend)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

func unknownBackend(option, value string) error {
	return fmt.Errorf("%w: %w: %s %q", ErrInvalidConfig, ErrUnknownBackend, option, value)
}

func missing(option string) error {
	return fmt.Errorf("%w: %s", ErrNotConfigured, option)
}
