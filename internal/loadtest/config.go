// Package loadtest drives a running GScore server with generated stores and
// checks the leaderboard and lock behaviour it reports back.
package loadtest

import "time"

// Config holds configuration for a load test run.
type Config struct {
	BaseURL    string        // Base URL of the service
	NumWallets int           // Number of wallets to generate and store
	TopN       int           // Number of leaderboard entries to fetch
	Workers    int           // Number of concurrent workers
	Timeout    time.Duration // HTTP request timeout
	OutputFile string        // Where generated submissions are saved; empty skips saving
	Verbose    bool          // Log every failure
}

// Submission is one generated self-reported store.
type Submission struct {
	Wallet   string `json:"walletAddress"`
	Identity string `json:"githubUsername"`
	Score    int    `json:"score"`
}

// Entry is a leaderboard row or a latest-score read.
type Entry struct {
	Rank     int    `json:"rank,omitempty"`
	Wallet   string `json:"walletAddress"`
	Identity string `json:"githubUsername"`
	Score    int    `json:"score"`
}

// Stats holds run statistics.
type Stats struct {
	Generated          int
	Submitted          int
	Stored             int
	Failed             int
	ReadBack           int
	Mismatched         int
	LockChecks         int
	LockViolations     int
	LeaderboardEntries int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}
