package loadtest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/gscore/pkg/logger"
)

// HTTPClient wraps http.Client with timeout.
type HTTPClient struct {
	client *http.Client
}

func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{client: &http.Client{Timeout: timeout}}
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with JSON body.
func (c *HTTPClient) Post(ctx context.Context, url string, body any) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// readJSON decodes a 200 response into v and closes the body.
func readJSON(resp *http.Response, v any) error {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != StatusOK {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// forEach runs fn over n indices with cfg.Workers goroutines.
func forEach(ctx context.Context, cfg *Config, n int, fn func(i int)) {
	work := make(chan int, cfg.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range work {
				if ctx.Err() != nil {
					continue
				}
				fn(i)
			}
		}()
	}
feed:
	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			break feed
		case work <- i:
		}
	}
	close(work)
	wg.Wait()
}

// submitScores stores every submission concurrently.
func submitScores(ctx context.Context, cfg *Config, client *HTTPClient, subs []Submission, stats *Stats) {
	logger.Get().Info(ctx, "submitting scores", logger.Int("count", len(subs)), logger.Int("workers", cfg.Workers))

	var submitted, stored, failed int64
	url := cfg.BaseURL + "/api/store-score"
	forEach(ctx, cfg, len(subs), func(i int) {
		atomic.AddInt64(&submitted, 1)
		resp, err := client.Post(ctx, url, subs[i])
		if err == nil {
			var out map[string]any
			err = readJSON(resp, &out)
		}
		if err != nil {
			atomic.AddInt64(&failed, 1)
			if cfg.Verbose {
				logger.Get().Warn(ctx, "store failed", logger.String("wallet", subs[i].Wallet), logger.Error(err))
			}
			return
		}
		atomic.AddInt64(&stored, 1)
	})

	stats.Submitted = int(submitted)
	stats.Stored = int(stored)
	stats.Failed = int(failed)
	logger.Get().Info(ctx, "submission completed",
		logger.Int("stored", stats.Stored),
		logger.Int("failed", stats.Failed),
	)
}

// checkLocks re-submits a sample of wallets under a new identity; each must
// be rejected with 409.
func checkLocks(ctx context.Context, cfg *Config, client *HTTPClient, subs []Submission, stats *Stats) {
	n := len(subs)/lockCheckFraction + 1
	if n > len(subs) {
		n = len(subs)
	}
	var checks, violations int64
	url := cfg.BaseURL + "/api/store-score"
	forEach(ctx, cfg, n, func(i int) {
		atomic.AddInt64(&checks, 1)
		s := subs[i]
		s.Identity += "-other"
		resp, err := client.Post(ctx, url, s)
		if err != nil {
			return
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		if resp.StatusCode == StatusConflict {
			atomic.AddInt64(&violations, 1)
		}
	})
	stats.LockChecks = int(checks)
	stats.LockViolations = int(violations)
}
