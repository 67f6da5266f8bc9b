// Package service wires the collector, scorer, ledger and flag ledger into
// the operations exposed over HTTP, the CLI and MCP.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/okian/gscore/internal/adapters/blob"
	"github.com/okian/gscore/internal/adapters/flags"
	"github.com/okian/gscore/internal/adapters/github"
	"github.com/okian/gscore/internal/adapters/ledger"
	"github.com/okian/gscore/internal/adapters/mq/queue"
	"github.com/okian/gscore/internal/adapters/mq/worker"
	"github.com/okian/gscore/internal/domain/attestation"
	"github.com/okian/gscore/internal/domain/bulk"
	"github.com/okian/gscore/internal/domain/dedupe"
	"github.com/okian/gscore/internal/domain/lock"
	"github.com/okian/gscore/internal/domain/model"
	"github.com/okian/gscore/internal/domain/scoring"
	"github.com/okian/gscore/pkg/logger"
	"github.com/okian/gscore/pkg/metrics"
)

// Default limits.
const (
	DefaultLeaderboardLimit = 10
	defaultMaxLeaderboard   = 100
	defaultMaxBatchSize     = 200
	defaultQueueSize        = 16
	defaultDedupeSize       = 10000
	statsTimeout            = 2 * time.Second
)

// Collector fetches the metric tuple for an identity.
type Collector interface {
	Collect(ctx context.Context, identity, token string) (model.Metrics, error)
}

// Service implements the GScore operations.
type Service struct {
	mu sync.RWMutex

	collector Collector
	scorer    *scoring.Scorer
	attester  attestation.Attester
	ledger    ledger.Ledger
	flags     *flags.Ledger
	snapshots blob.Store
	guard     *lock.Guard
	runner    *bulk.Runner
	wallets   *walletLocks

	deduper dedupe.Deduper
	queue   *queue.InMemoryQueue
	pool    *worker.Pool
	batches *batchRegistry
	// batchMu keeps synchronous and queued batches from overlapping.
	batchMu sync.Mutex

	queueSize      int
	dedupeSize     int
	maxBatchSize   int
	maxLeaderboard int

	now           func() time.Time
	started       bool
	cancelWorkers context.CancelFunc
	logger        logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithCollector sets the metric collector.
func WithCollector(c Collector) Option {
	return func(s *Service) {
		if c != nil {
			s.collector = c
		}
	}
}

// WithScorer sets the scorer.
func WithScorer(sc *scoring.Scorer) Option {
	return func(s *Service) {
		if sc != nil {
			s.scorer = sc
		}
	}
}

// WithAttester sets the attestation generator.
func WithAttester(a attestation.Attester) Option {
	return func(s *Service) {
		if a != nil {
			s.attester = a
		}
	}
}

// WithLedger sets the score ledger.
func WithLedger(l ledger.Ledger) Option {
	return func(s *Service) {
		if l != nil {
			s.ledger = l
		}
	}
}

// WithFlagLedger sets the flag ledger.
func WithFlagLedger(f *flags.Ledger) Option {
	return func(s *Service) {
		if f != nil {
			s.flags = f
		}
	}
}

// WithSnapshotStore persists batch summaries.
func WithSnapshotStore(b blob.Store) Option {
	return func(s *Service) {
		s.snapshots = b
	}
}

// WithQueueSize sets the number of batches that may wait for the worker.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many batch ids are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithMaxBatchSize caps the identities in one batch.
func WithMaxBatchSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.maxBatchSize = size
		}
	}
}

// WithMaxLeaderboardLimit caps the leaderboard limit.
func WithMaxLeaderboardLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.maxLeaderboard = limit
		}
	}
}

// WithClock injects the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service. Components not supplied default to in-memory
// implementations.
func New(opts ...Option) *Service {
	s := &Service{
		scorer:         scoring.Default(),
		attester:       attestation.NewKeccak(),
		queueSize:      defaultQueueSize,
		dedupeSize:     defaultDedupeSize,
		maxBatchSize:   defaultMaxBatchSize,
		maxLeaderboard: defaultMaxLeaderboard,
		now:            time.Now,
		wallets:        newWalletLocks(),
		batches:        newBatchRegistry(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.GetOr(logger.Nop()).Named("service")
	}
	if s.collector == nil {
		s.collector = github.New(github.WithLogger(s.logger))
	}
	if s.ledger == nil {
		s.ledger = ledger.NewMemory()
	}
	if s.flags == nil {
		s.flags = flags.New(flags.NewMemory(), flags.WithLogger(s.logger))
	}
	s.guard = lock.NewGuard(s.ledger)
	s.batches.max = s.dedupeSize

	runnerOpts := []bulk.Option{
		bulk.WithAttester(s.attester),
		bulk.WithFlagReader(s.flags),
		bulk.WithClock(s.now),
		bulk.WithLogger(s.logger),
	}
	if s.snapshots != nil {
		runnerOpts = append(runnerOpts, bulk.WithSnapshotStore(s.snapshots))
	}
	s.runner = bulk.NewRunner(s.collector, s.scorer, runnerOpts...)
	return s
}

// Start launches the batch worker.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	// One worker: batches run one at a time.
	s.pool = worker.NewPool(1, s.queue, worker.HandlerFunc(s.handleBatch), worker.WithLogger(s.logger))
	// The worker outlives the start-up context; Stop cancels it.
	workerCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancelWorkers = cancel
	s.pool.Start(workerCtx)

	s.started = true
	s.logger.Info(ctx, "gscore service started",
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Bool("fdcEnabled", s.FDCEnabled()),
	)
	return nil
}

// Stop cancels the batch in flight and shuts the worker down. Queued
// batches that never started stay queued.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping gscore service...")

	s.cancelWorkers()
	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "batch worker did not stop cleanly", logger.Error(err))
	}
	s.started = false
	s.logger.Info(ctx, "gscore service stopped")
}

// Close releases the ledger, flag and blob stores. Call after Stop.
func (s *Service) Close() error {
	var errs []error
	if err := s.flags.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close flag store: %w", err))
	}
	if c, ok := s.ledger.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close ledger: %w", err))
		}
	}
	if c, ok := s.snapshots.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close blob store: %w", err))
		}
	}
	return errors.Join(errs...)
}

// FDCEnabled reports whether the ledger can accept verified writes.
func (s *Service) FDCEnabled() bool {
	if c, ok := s.ledger.(interface{ Configured() bool }); ok {
		return c.Configured()
	}
	return true
}

// Calculation is a computed score that was not stored.
type Calculation struct {
	Metrics model.Metrics  `json:"rawData"`
	Result  scoring.Result `json:"result"`
}

// CalculateScore collects and scores identity.
func (s *Service) CalculateScore(ctx context.Context, identity, token string) (Calculation, error) {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return Calculation{}, invalid("githubUsername is required")
	}
	m, err := s.collector.Collect(ctx, identity, token)
	if err != nil {
		return Calculation{}, err
	}
	res := s.scorer.Score(m)
	metrics.RecordScore(res.Score)
	return Calculation{Metrics: m, Result: res}, nil
}

// Stored is the outcome of a successful ledger write.
type Stored struct {
	Wallet        string           `json:"walletAddress"`
	Identity      string           `json:"githubUsername"`
	Score         int              `json:"score"`
	Timestamp     int64            `json:"timestamp"`
	Factors       *scoring.Factors `json:"normalizedFactors,omitempty"`
	Metrics       *model.Metrics   `json:"rawData,omitempty"`
	AttestationID *string          `json:"fdcAttestationId,omitempty"`
	TxHash        string           `json:"transactionHash"`
}

// VerifyAndStore computes identity's score, attests it and records it for
// wallet. Every failure after validation is flagged before it is returned.
func (s *Service) VerifyAndStore(ctx context.Context, walletAddr, identity, token string) (Stored, error) {
	wallet, identity, err := parseTarget(walletAddr, identity)
	if err != nil {
		return Stored{}, err
	}
	if !s.FDCEnabled() {
		return Stored{}, s.flagged(ctx, identity, wallet, "config", "", ledger.ErrNotConfigured)
	}

	m, err := s.collector.Collect(ctx, identity, token)
	if err != nil {
		return Stored{}, s.flagged(ctx, identity, wallet, "upstream", "", err)
	}
	res := s.scorer.Score(m)
	metrics.RecordScore(res.Score)
	ts := s.now().Unix()
	att := s.attester.Attest(identity, res.Score, ts)

	unlock := s.wallets.Lock(wallet)
	defer unlock()

	if err := s.checkLock(ctx, wallet, identity); err != nil {
		return Stored{}, err
	}
	rcpt, err := s.ledger.StoreVerifiedScore(ctx, wallet, identity, res.Score, ts, att)
	if err != nil {
		return Stored{}, s.flagged(ctx, identity, wallet, ledgerKind(err), "", err)
	}
	metrics.RecordAttestation()

	s.logger.Info(ctx, "verified score stored",
		logger.String("wallet", wallet.Hex()),
		logger.String("identity", identity),
		logger.Int("score", res.Score),
		logger.String("tx", rcpt.TxHash.Hex()),
	)
	return Stored{
		Wallet:        wallet.Hex(),
		Identity:      identity,
		Score:         res.Score,
		Timestamp:     ts,
		Factors:       &res.Factors,
		Metrics:       &m,
		AttestationID: attestation.HexOrNil(att),
		TxHash:        rcpt.TxHash.Hex(),
	}, nil
}

// StoreScore records a self-reported score under the same identity lock.
func (s *Service) StoreScore(ctx context.Context, walletAddr, identity string, score int) (Stored, error) {
	wallet, identity, err := parseTarget(walletAddr, identity)
	if err != nil {
		return Stored{}, err
	}
	if score < 0 || score > scoring.MaxScore {
		return Stored{}, invalid("score must be between 0 and %d", scoring.MaxScore)
	}
	ts := s.now().Unix()

	unlock := s.wallets.Lock(wallet)
	defer unlock()

	if err := s.checkLock(ctx, wallet, identity); err != nil {
		return Stored{}, err
	}
	rcpt, err := s.ledger.StoreScore(ctx, wallet, identity, score, ts)
	if err != nil {
		return Stored{}, s.flagged(ctx, identity, wallet, ledgerKind(err), "", err)
	}
	return Stored{
		Wallet:    wallet.Hex(),
		Identity:  identity,
		Score:     score,
		Timestamp: ts,
		TxHash:    rcpt.TxHash.Hex(),
	}, nil
}

// checkLock runs the guard and flags what it rejects. The caller holds the
// wallet lock.
func (s *Service) checkLock(ctx context.Context, wallet common.Address, identity string) error {
	err := s.guard.Check(ctx, wallet, identity)
	if err == nil {
		return nil
	}
	var v *lock.Violation
	if errors.As(err, &v) {
		metrics.RecordLockViolation()
		return s.flagged(ctx, identity, wallet, "lock", v.Reason(), err)
	}
	return s.flagged(ctx, identity, wallet, ledgerKind(err), "", err)
}

// flagged records a flag for a failed store and wraps err with it. When the
// flag cannot be written err is returned unwrapped.
func (s *Service) flagged(ctx context.Context, identity string, wallet common.Address, kind, reason string, err error) error {
	if reason == "" {
		reason = err.Error()
	}
	f, ferr := s.flags.Flag(ctx, identity, wallet.Hex(), reason)
	if ferr != nil {
		s.logger.Error(ctx, "failed to record flag",
			logger.String("identity", identity),
			logger.Error(ferr),
		)
		return err
	}
	metrics.RecordFlag(kind)
	return &FlaggedError{Err: err, Flag: f}
}

func ledgerKind(err error) string {
	if errors.Is(err, ledger.ErrNotConfigured) {
		return "config"
	}
	return "ledger"
}

func parseTarget(walletAddr, identity string) (common.Address, string, error) {
	walletAddr, identity = strings.TrimSpace(walletAddr), strings.TrimSpace(identity)
	if walletAddr == "" || identity == "" {
		return common.Address{}, "", invalid("walletAddress and githubUsername are required")
	}
	wallet, err := ledger.ParseWallet(walletAddr)
	if err != nil {
		return common.Address{}, "", invalid("%v: %s", err, walletAddr)
	}
	return wallet, identity, nil
}

// Verification is the verified status of a (wallet, identity) pair.
type Verification struct {
	Verified      bool    `json:"verified"`
	AttestationID *string `json:"attestationId"`
}

// CheckVerification reports whether (wallet, identity) holds a verified score.
func (s *Service) CheckVerification(ctx context.Context, walletAddr, identity string) (Verification, error) {
	wallet, identity, err := parseTarget(walletAddr, identity)
	if err != nil {
		return Verification{}, err
	}
	ok, att, err := s.ledger.IsVerified(ctx, wallet, identity)
	if err != nil {
		return Verification{}, err
	}
	v := Verification{Verified: ok}
	if ok {
		v.AttestationID = attestation.HexOrNil(att)
	}
	return v, nil
}

// FlagStatus returns the latest flag for identity. A lookup failure reads as
// not flagged.
func (s *Service) FlagStatus(ctx context.Context, identity string) (model.Flag, bool, error) {
	if strings.TrimSpace(identity) == "" {
		return model.Flag{}, false, invalid("githubUsername is required")
	}
	f, ok, err := s.flags.Lookup(ctx, identity)
	if err != nil {
		s.logger.Warn(ctx, "flag lookup failed", logger.String("identity", identity), logger.Error(err))
		return model.Flag{}, false, nil
	}
	return f, ok, nil
}

// RecentFlags lists up to limit flags, newest first.
func (s *Service) RecentFlags(ctx context.Context, limit int) ([]model.Flag, error) {
	return s.flags.Recent(ctx, limit)
}

// LatestScore returns the wallet's latest record.
func (s *Service) LatestScore(ctx context.Context, walletAddr string) (ledger.Record, error) {
	wallet, err := ledger.ParseWallet(strings.TrimSpace(walletAddr))
	if err != nil {
		return ledger.Record{}, invalid("%v: %s", err, walletAddr)
	}
	return s.ledger.LatestScore(ctx, wallet)
}

// LeaderboardEntry is one ranked wallet.
type LeaderboardEntry struct {
	Rank      int    `json:"rank"`
	Wallet    string `json:"walletAddress"`
	Identity  string `json:"githubUsername"`
	Score     int    `json:"score"`
	Timestamp int64  `json:"timestamp"`
}

// Leaderboard rebuilds the ranking by walking every wallet on the ledger.
// Wallets whose reads fail are skipped. Ties keep registration order.
func (s *Service) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	if limit > s.maxLeaderboard {
		limit = s.maxLeaderboard
	}

	n, err := s.ledger.Count(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[common.Address]struct{}, n)
	entries := make([]LeaderboardEntry, 0, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		wallet, err := s.ledger.EntryAt(ctx, i)
		if err != nil {
			s.logger.Debug(ctx, "skipping leaderboard index", logger.Int("index", i), logger.Error(err))
			continue
		}
		if _, dup := seen[wallet]; dup {
			continue
		}
		seen[wallet] = struct{}{}
		rec, err := s.ledger.LatestScore(ctx, wallet)
		if err != nil {
			s.logger.Debug(ctx, "skipping leaderboard wallet", logger.String("wallet", wallet.Hex()), logger.Error(err))
			continue
		}
		entries = append(entries, LeaderboardEntry{
			Wallet:    wallet.Hex(),
			Identity:  rec.Identity,
			Score:     rec.Score,
			Timestamp: rec.Timestamp,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Score > entries[j].Score })
	if len(entries) > limit {
		entries = entries[:limit]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":      s.started,
		"fdcEnabled":   s.FDCEnabled(),
		"queueSize":    s.queueSize,
		"dedupeSize":   s.dedupeSize,
		"maxBatchSize": s.maxBatchSize,
		"walletLocks":  s.wallets.len(),
		"goroutines":   runtime.NumGoroutine(),
	}
	if s.started {
		stats["queueLength"] = s.queue.Len()
		stats["batchesSeen"] = s.deduper.Size()
		stats["batchesTracked"] = s.batches.len()
	}
	ctx, cancel := context.WithTimeout(context.Background(), statsTimeout)
	defer cancel()
	if n, err := s.ledger.Count(ctx); err == nil {
		stats["ledgerWallets"] = n
	}
	return stats
}
