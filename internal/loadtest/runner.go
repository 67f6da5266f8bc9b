package loadtest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/gscore/pkg/logger"
)

const (
	directoryPermission = 0o750
	filePermission      = 0o600
)

// Run executes the complete load test and returns its statistics.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.NumWallets < 1 {
		return nil, fmt.Errorf("wallets must be positive")
	}
	stats := &Stats{StartTime: time.Now()}
	lg := logger.Get()
	client := newHTTPClient(cfg.Timeout)

	lg.Info(ctx, "starting gscore load test",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("wallets", cfg.NumWallets),
		logger.Int("workers", cfg.Workers),
		logger.Duration("timeout", cfg.Timeout),
		logger.Int("topN", cfg.TopN),
	)

	if err := checkServiceHealth(ctx, client, cfg); err != nil {
		return nil, fmt.Errorf("service health check failed: %w", err)
	}
	subs, err := generateSubmissions(ctx, cfg, stats)
	if err != nil {
		return nil, fmt.Errorf("generation failed: %w", err)
	}
	submitScores(ctx, cfg, client, subs, stats)
	checkLocks(ctx, cfg, client, subs, stats)
	back := readBack(ctx, cfg, client, subs, stats)
	board, err := getLeaderboard(ctx, cfg, client, stats)
	if err != nil {
		return stats, fmt.Errorf("leaderboard retrieval failed: %w", err)
	}
	if cfg.OutputFile != "" {
		if err := saveSubmissions(cfg.OutputFile, subs); err != nil {
			lg.Warn(ctx, "failed to save submissions", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	logFinalStats(ctx, stats)

	if err := verifyResults(ctx, subs, back, board, stats); err != nil {
		return stats, fmt.Errorf("verification failed: %w", err)
	}
	lg.Info(ctx, "load test completed successfully")
	return stats, nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, client *HTTPClient, cfg *Config) error {
	resp, err := client.Get(ctx, cfg.BaseURL+"/health")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	var health struct {
		Status string `json:"status"`
	}
	if err := readJSON(resp, &health); err != nil {
		return err
	}
	if health.Status != "ok" {
		return fmt.Errorf("service reports status %q", health.Status)
	}
	return nil
}

// saveSubmissions writes the generated submissions as a JSON array.
func saveSubmissions(filename string, subs []Submission) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(subs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal submissions: %w", err)
	}
	return os.WriteFile(filename, data, filePermission)
}

func logFinalStats(ctx context.Context, stats *Stats) {
	var perSecond float64
	if stats.Duration > 0 {
		perSecond = float64(stats.Submitted) / stats.Duration.Seconds()
	}
	logger.Get().Info(ctx, "final statistics",
		logger.Int("generated", stats.Generated),
		logger.Int("submitted", stats.Submitted),
		logger.Int("stored", stats.Stored),
		logger.Int("failed", stats.Failed),
		logger.Int("readBack", stats.ReadBack),
		logger.Int("mismatched", stats.Mismatched),
		logger.Int("lockChecks", stats.LockChecks),
		logger.Int("lockViolations", stats.LockViolations),
		logger.Int("leaderboardEntries", stats.LeaderboardEntries),
		logger.Duration("duration", stats.Duration),
		logger.Float64("storesPerSecond", perSecond),
	)
}
