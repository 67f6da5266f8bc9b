// Package bulk scores a batch of identities one after another and ranks them.
//
// Identities are processed strictly in sequence so a batch never puts more
// than one identity's worth of load on the upstream API at a time.
package bulk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/gscore/internal/adapters/blob"
	"github.com/okian/gscore/internal/domain/attestation"
	"github.com/okian/gscore/internal/domain/model"
	"github.com/okian/gscore/internal/domain/scoring"
	"github.com/okian/gscore/pkg/logger"
	"github.com/okian/gscore/pkg/metrics"
)

// SnapshotKey is the blob key of the latest report.
const SnapshotKey = "recommendations/latest.json"

// Status of one outcome.
type Status string

// Outcome statuses.
const (
	StatusScored Status = "scored"
	StatusError  Status = "error"
)

// Collector fetches the metric tuple for an identity.
type Collector interface {
	Collect(ctx context.Context, identity, token string) (model.Metrics, error)
}

// FlagReader looks up the latest flag for an identity.
type FlagReader interface {
	Lookup(ctx context.Context, identity string) (model.Flag, bool, error)
}

// Outcome is the result for one input identity.
type Outcome struct {
	Identity      string           `json:"githubUsername"`
	Status        Status           `json:"status"`
	Score         int              `json:"score"`
	Factors       *scoring.Factors `json:"normalizedFactors,omitempty"`
	Metrics       *model.Metrics   `json:"metrics,omitempty"`
	AttestationID *string          `json:"attestationId,omitempty"`
	Flagged       bool             `json:"flagged"`
	FlagReason    string           `json:"flagReason,omitempty"`
	Error         string           `json:"error,omitempty"`
}

// Performer is one entry of the top list.
type Performer struct {
	Identity      string  `json:"githubUsername"`
	Score         int     `json:"score"`
	Verification  string  `json:"verification"`
	AttestationID *string `json:"attestationId,omitempty"`
}

// Summary ranks the scored outcomes of a batch.
type Summary struct {
	TopPerformers []Performer  `json:"topPerformers"`
	StandoutRepos []model.Repo `json:"standoutRepos"`
	Scored        int          `json:"scored"`
	Failed        int          `json:"failed"`
}

// Report is the full result of a batch.
type Report struct {
	BatchID    string    `json:"batchId,omitempty"`
	Outcomes   []Outcome `json:"results"`
	Summary    Summary   `json:"summary"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
}

// Option applies a configuration option to the Runner.
type Option func(*Runner)

// WithAttester attaches an attestation id to every scored outcome.
func WithAttester(a attestation.Attester) Option {
	return func(r *Runner) { r.attester = a }
}

// WithFlagReader annotates outcomes with the identity's flag status.
func WithFlagReader(f FlagReader) Option {
	return func(r *Runner) { r.flags = f }
}

// WithSnapshotStore persists the latest report under SnapshotKey.
func WithSnapshotStore(s blob.Store) Option {
	return func(r *Runner) { r.snapshots = s }
}

// WithClock injects the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// Runner executes batches and keeps the most recent report.
type Runner struct {
	collector Collector
	scorer    *scoring.Scorer
	attester  attestation.Attester
	flags     FlagReader
	snapshots blob.Store
	now       func() time.Time
	logger    logger.Logger

	mu     sync.RWMutex
	latest *Report
}

// NewRunner creates a Runner.
func NewRunner(c Collector, s *scoring.Scorer, opts ...Option) *Runner {
	if s == nil {
		s = scoring.Default()
	}
	r := &Runner{
		collector: c,
		scorer:    s,
		now:       time.Now,
		logger:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run scores identities in order. Each input yields exactly one outcome; a
// failure is recorded on its outcome and the batch moves on. Once ctx is
// done every remaining identity is marked with the context error.
func (r *Runner) Run(ctx context.Context, batchID string, identities []string) Report {
	start := r.now()
	rep := Report{BatchID: batchID, StartedAt: start.UTC(), Outcomes: make([]Outcome, 0, len(identities))}

	for _, id := range identities {
		if err := ctx.Err(); err != nil {
			rep.Outcomes = append(rep.Outcomes, Outcome{Identity: id, Status: StatusError, Error: err.Error()})
			continue
		}
		rep.Outcomes = append(rep.Outcomes, r.one(ctx, id))
	}

	rep.FinishedAt = r.now().UTC()
	rep.Summary = Summarize(rep.Outcomes)
	metrics.RecordBatch(rep.Summary.Scored, rep.Summary.Failed, float64(rep.FinishedAt.Sub(rep.StartedAt).Milliseconds()))
	r.logger.Info(ctx, "batch finished",
		logger.String("batch_id", batchID),
		logger.Int("identities", len(identities)),
		logger.Int("scored", rep.Summary.Scored),
		logger.Int("failed", rep.Summary.Failed),
	)
	r.remember(ctx, rep)
	return rep
}

func (r *Runner) one(ctx context.Context, id string) Outcome {
	out := Outcome{Identity: id}
	if r.flags != nil {
		// Best-effort: a failed lookup reads as not flagged.
		if f, ok, err := r.flags.Lookup(ctx, id); err == nil && ok {
			out.Flagged = true
			out.FlagReason = f.Reason
		}
	}

	// Batches use the collector's configured token.
	m, err := r.collector.Collect(ctx, id, "")
	if err != nil {
		out.Status = StatusError
		out.Error = err.Error()
		r.logger.Warn(ctx, "batch identity failed", logger.String("identity", id), logger.Error(err))
		return out
	}
	res := r.scorer.Score(m)
	metrics.RecordScore(res.Score)

	out.Status = StatusScored
	out.Score = res.Score
	out.Factors = &res.Factors
	out.Metrics = &m
	if m.Identity != "" {
		out.Identity = m.Identity
	}
	if r.attester != nil {
		out.AttestationID = attestation.HexOrNil(r.attester.Attest(out.Identity, res.Score, r.now().Unix()))
	}
	return out
}

func (r *Runner) remember(ctx context.Context, rep Report) {
	r.mu.Lock()
	r.latest = &rep
	r.mu.Unlock()

	if r.snapshots == nil {
		return
	}
	data, err := json.Marshal(rep)
	if err == nil {
		err = r.snapshots.Put(ctx, SnapshotKey, data)
	}
	if err != nil {
		r.logger.Error(ctx, "failed to persist recommendations snapshot", logger.Error(err))
	}
}

// Latest returns the most recent report, loading the persisted snapshot
// when nothing has run in this process yet.
func (r *Runner) Latest(ctx context.Context) (Report, bool, error) {
	r.mu.RLock()
	latest := r.latest
	r.mu.RUnlock()
	if latest != nil {
		return *latest, true, nil
	}
	if r.snapshots == nil {
		return Report{}, false, nil
	}

	data, err := r.snapshots.Get(ctx, SnapshotKey)
	if errors.Is(err, blob.ErrNotFound) {
		return Report{}, false, nil
	}
	if err != nil {
		return Report{}, false, fmt.Errorf("load snapshot: %w", err)
	}
	var rep Report
	if err := json.Unmarshal(data, &rep); err != nil {
		return Report{}, false, fmt.Errorf("decode snapshot: %w", err)
	}

	r.mu.Lock()
	if r.latest == nil {
		r.latest = &rep
	}
	r.mu.Unlock()
	return rep, true, nil
}
