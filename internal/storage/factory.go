package storage

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/tansaku/internal/config"
)

// Open creates the backend selected by cfg.Backend: "sqlite" (default) or "bleve".
// For SQLite the fts5icu extension is resolved from cfg; a missing extension is only fatal
// when cfg.RequireExtension is set.
func Open(cfg config.StorageConfig, logger *zap.Logger) (Backend, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Backend {
	case SQLiteBackendName, "":
		opts := SQLiteOptions{
			Path:              cfg.DatabasePath,
			Tokenizer:         cfg.Tokenizer,
			FallbackTokenizer: cfg.FallbackTokenizer,
			RequireExtension:  cfg.RequireExtension,
			Logger:            logger,
		}
		if needsExtension(cfg.Tokenizer) {
			path, err := ResolveExtension(cfg.ExtensionPath, cfg.ExtensionDir)
			if err != nil {
				if cfg.RequireExtension {
					return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
				}
				logger.Debug("fts5icu extension not resolved", zap.Error(err))
			}
			opts.ExtensionPath = path
		}
		return NewSQLiteBackend(opts)
	case BleveBackendName:
		return NewBleveBackend(cfg.BleveIndexPath, logger)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s (supported: sqlite, bleve)", cfg.Backend)
	}
}
