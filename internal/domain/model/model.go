// Package model contains domain models passed between layers.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Repo is a repository shown alongside a score.
type Repo struct {
	Name        string `json:"name"`
	Owner       string `json:"owner,omitempty"`
	Stars       int    `json:"stars"`
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
	Language    string `json:"language,omitempty"`
}

// Metrics is the activity tuple collected for one identity.
type Metrics struct {
	Identity               string  `json:"githubUsername"`
	Followers              int     `json:"followers"`
	TotalStars             int     `json:"totalStars"`
	PublicRepos            int     `json:"publicRepos"`
	AvgRecentActivity      float64 `json:"recentActivityScore"`
	CollaborationDiversity float64 `json:"collaborationDiversity"`
	LanguageDiversity      int     `json:"languageDiversity"`
	TopRepos               []Repo  `json:"topRepos"`
}

// Flag is an append-only audit entry recorded when a store attempt fails.
type Flag struct {
	ID        string    `json:"id"`
	Identity  string    `json:"githubUsername"`
	Wallet    string    `json:"walletAddress,omitempty"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"timestamp"`
}

// UnmarshalJSON also reads the legacy log form, where timestamp is epoch
// milliseconds and walletAddress may be null.
func (f *Flag) UnmarshalJSON(data []byte) error {
	type plain Flag
	var raw struct {
		plain
		Wallet    *string         `json:"walletAddress"`
		Timestamp json.RawMessage `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*f = Flag(raw.plain)
	if raw.Wallet != nil {
		f.Wallet = *raw.Wallet
	}

	ts := bytes.TrimSpace(raw.Timestamp)
	switch {
	case len(ts) == 0 || bytes.Equal(ts, []byte("null")):
		f.CreatedAt = time.Time{}
	case ts[0] == '"':
		if err := json.Unmarshal(ts, &f.CreatedAt); err != nil {
			return err
		}
	default:
		var ms int64
		if err := json.Unmarshal(ts, &ms); err != nil {
			return fmt.Errorf("flag timestamp: %w", err)
		}
		f.CreatedAt = time.UnixMilli(ms).UTC()
	}
	return nil
}

// NormalizeIdentity returns the comparison form of an identity.
func NormalizeIdentity(identity string) string {
	return strings.ToLower(strings.TrimSpace(identity))
}

// SameIdentity reports whether two identities match case-insensitively.
func SameIdentity(a, b string) bool {
	return NormalizeIdentity(a) == NormalizeIdentity(b)
}

// BatchJob is a queued request to score a list of identities.
type BatchJob struct {
	ID          string    `json:"batchId"`
	Identities  []string  `json:"identities"`
	SubmittedAt time.Time `json:"submittedAt"`
}
