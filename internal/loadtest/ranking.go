package loadtest

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/okian/gscore/pkg/logger"
)

// readBack fetches the latest score of every wallet and counts the ones
// that differ from what was submitted.
func readBack(ctx context.Context, cfg *Config, client *HTTPClient, subs []Submission, stats *Stats) []Entry {
	logger.Get().Info(ctx, "reading back latest scores", logger.Int("wallets", len(subs)))

	entries := make([]Entry, len(subs))
	var read, mismatched int64
	forEach(ctx, cfg, len(subs), func(i int) {
		e, err := latestScore(ctx, client, cfg.BaseURL, subs[i].Wallet)
		if err != nil {
			if cfg.Verbose {
				logger.Get().Warn(ctx, "read back failed", logger.String("wallet", subs[i].Wallet), logger.Error(err))
			}
			return
		}
		entries[i] = e
		atomic.AddInt64(&read, 1)
		if e.Score != subs[i].Score || e.Identity != subs[i].Identity {
			atomic.AddInt64(&mismatched, 1)
		}
	})

	stats.ReadBack = int(read)
	stats.Mismatched = int(mismatched)

	valid := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Wallet != "" {
			valid = append(valid, e)
		}
	}
	return valid
}

func latestScore(ctx context.Context, client *HTTPClient, baseURL, wallet string) (Entry, error) {
	resp, err := client.Get(ctx, fmt.Sprintf("%s/api/scores/%s", baseURL, wallet))
	if err != nil {
		return Entry{}, fmt.Errorf("request failed: %w", err)
	}
	var e Entry
	if err := readJSON(resp, &e); err != nil {
		return Entry{}, err
	}
	return e, nil
}

// getLeaderboard retrieves the top N leaderboard entries.
func getLeaderboard(ctx context.Context, cfg *Config, client *HTTPClient, stats *Stats) ([]Entry, error) {
	resp, err := client.Get(ctx, fmt.Sprintf("%s/api/leaderboard?limit=%d", cfg.BaseURL, cfg.TopN))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	var board []Entry
	if err := readJSON(resp, &board); err != nil {
		return nil, err
	}
	stats.LeaderboardEntries = len(board)
	logger.Get().Info(ctx, "retrieved leaderboard", logger.Int("entries", len(board)))
	return board, nil
}
