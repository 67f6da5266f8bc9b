package service

import (
	"context"
	"fmt"

	"github.com/okian/gscore/internal/adapters/blob"
	"github.com/okian/gscore/internal/adapters/flags"
	"github.com/okian/gscore/internal/adapters/github"
	"github.com/okian/gscore/internal/adapters/ledger"
	"github.com/okian/gscore/internal/config"
	"github.com/okian/gscore/pkg/logger"
)

// Build constructs a Service and its backends from cfg. Extra options are
// applied last and may replace any backend.
func Build(ctx context.Context, cfg *config.Config, opts ...Option) (*Service, error) {
	lg := logger.GetOr(logger.Nop())

	store, err := OpenBlob(ctx, cfg)
	if err != nil {
		return nil, err
	}
	flagStore, err := flags.Open(ctx, flags.StoreConfig{
		Backend: cfg.FlagsBackend,
		DSN:     cfg.FlagsDSN,
		Path:    cfg.FlagsPath,
		Blob:    store,
	})
	if err != nil {
		closeBlob(store)
		return nil, fmt.Errorf("open flag store: %w", err)
	}
	led, err := OpenLedger(cfg, lg)
	if err != nil {
		_ = flagStore.Close()
		closeBlob(store)
		return nil, err
	}

	base := []Option{
		WithCollector(github.New(
			github.WithBaseURL(cfg.GithubAPIURL),
			github.WithTimeout(cfg.UpstreamTimeout()),
			github.WithDefaultToken(cfg.GithubToken),
			github.WithLogger(lg.Named("github")),
		)),
		WithLedger(led),
		WithFlagLedger(flags.New(flagStore, flags.WithLogger(lg.Named("flags")))),
		WithQueueSize(cfg.BatchQueueSize),
		WithDedupeSize(cfg.DedupeSize),
		WithMaxBatchSize(cfg.MaxBatchSize),
		WithMaxLeaderboardLimit(cfg.MaxLeaderboardLimit),
	}
	if store != nil {
		base = append(base, WithSnapshotStore(store))
	}
	return New(append(base, opts...)...), nil
}

// OpenLedger returns the ledger named by cfg.LedgerBackend.
func OpenLedger(cfg *config.Config, lg logger.Logger) (ledger.Ledger, error) {
	switch cfg.LedgerBackend {
	case config.LedgerEVM:
		evm, err := ledger.NewEVM(ledger.EVMConfig{
			RPCURL:          cfg.RPCURL,
			ContractAddress: cfg.ContractAddress,
			PrivateKey:      cfg.PrivateKey,
			ChainID:         cfg.ChainID,
		}, ledger.WithEVMLogger(lg.Named("ledger")), ledger.WithMineTimeout(cfg.MineTimeout()))
		if err != nil {
			return nil, fmt.Errorf("create evm ledger: %w", err)
		}
		if !evm.Configured() {
			lg.Warn(context.Background(), "contract address or private key not set; verified stores are disabled")
		}
		return evm, nil
	default:
		return ledger.NewMemory(), nil
	}
}

// OpenBlob returns the object store named by cfg.BlobBackend, or nil for none.
func OpenBlob(ctx context.Context, cfg *config.Config) (blob.Store, error) {
	switch cfg.BlobBackend {
	case config.BlobLocal:
		return blob.NewLocal(cfg.BlobDir), nil
	case config.BlobS3:
		s, err := blob.NewS3(ctx, blob.S3Config{
			Bucket:    cfg.BlobBucket,
			Prefix:    cfg.BlobPrefix,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		if err != nil {
			return nil, fmt.Errorf("open s3 blob store: %w", err)
		}
		return s, nil
	case config.BlobGCS:
		s, err := blob.NewGCS(ctx, blob.GCSConfig{
			Bucket:   cfg.BlobBucket,
			Prefix:   cfg.BlobPrefix,
			Endpoint: cfg.GCSEndpoint,
		})
		if err != nil {
			return nil, fmt.Errorf("open gcs blob store: %w", err)
		}
		return s, nil
	default:
		return nil, nil
	}
}

func closeBlob(s blob.Store) {
	if c, ok := s.(interface{ Close() error }); ok {
		_ = c.Close()
	}
}
