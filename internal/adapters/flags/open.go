package flags

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/okian/gscore/internal/adapters/blob"
)

// Backend names accepted by Open.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendS3       = "s3"
	BackendGCS      = "gcs"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMySQL    = "mysql"
)

// StoreConfig selects and configures a Store.
type StoreConfig struct {
	Backend string
	// DSN is used by the SQL backends.
	DSN string
	// Path is the document path for "file" and the object key for "s3" and "gcs".
	Path string
	// Blob is the object store for "s3" and "gcs".
	Blob blob.Store
}

// Open builds the Store named by cfg.Backend.
func Open(ctx context.Context, cfg StoreConfig) (Store, error) {
	switch b := strings.ToLower(strings.TrimSpace(cfg.Backend)); b {
	case "", BackendMemory:
		return NewMemory(), nil
	case BackendFile:
		path := cfg.Path
		if path == "" {
			path = DefaultDocumentKey
		}
		return OpenDocument(ctx, blob.NewLocal(filepath.Dir(path)), filepath.Base(path))
	case BackendS3, BackendGCS:
		if cfg.Blob == nil {
			return nil, fmt.Errorf("flag backend %s needs a blob store", b)
		}
		return OpenDocument(ctx, cfg.Blob, cfg.Path)
	case BackendSQLite, BackendPostgres, BackendMySQL:
		dsn := cfg.DSN
		if dsn == "" && b == BackendSQLite {
			dsn = DefaultSQLiteDSN
		}
		return OpenSQL(ctx, Dialect(b), dsn)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}
