package profile

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"monopoly/internal/db"
)

const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

type OpenOptions struct {
	Backend     string
	Dir         string
	SQLitePath  string
	DatabaseURL string
}

// Open builds a Store on the configured backend. The returned close func releases the backend
// and is never nil.
func Open(ctx context.Context, opts OpenOptions, logger *slog.Logger) (*Store, func(), error) {
	noop := func() {}
	switch opts.Backend {
	case BackendMemory:
		return NewStore(NewMemoryKV(), logger), noop, nil
	case "", BackendFile:
		kv, err := NewFileKV(opts.Dir)
		if err != nil {
			return nil, noop, fmt.Errorf("open profile dir: %w", err)
		}
		return NewStore(kv, logger), noop, nil
	case BackendSQLite:
		path := opts.SQLitePath
		if path == "" {
			path = filepath.Join(opts.Dir, "profile.db")
		}
		kv, err := OpenSQLite(path)
		if err != nil {
			return nil, noop, err
		}
		return NewStore(kv, logger), func() { _ = kv.Close() }, nil
	case BackendPostgres:
		if opts.DatabaseURL == "" {
			return nil, noop, fmt.Errorf("DATABASE_URL is required for the postgres backend")
		}
		pool, err := db.Connect(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, noop, err
		}
		kv := NewPostgresKV(pool)
		if err := kv.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, noop, err
		}
		return NewStore(kv, logger), pool.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown profile backend %q", opts.Backend)
	}
}
