package store

import (
	"context"
	"fmt"

	"github.com/lyfe05/matchfeed/internal/config"
)

// NewFromConfig selects and builds the configured provider.
func NewFromConfig(ctx context.Context, cfg config.StoreConfig) (Provider, error) {
	switch cfg.Provider {
	case "file":
		return NewFileProvider(cfg.FilePath)
	case "postgres":
		return NewPostgresProvider(ctx, cfg.DSN)
	case "noop", "":
		return NoopProvider{}, nil
	default:
		return nil, fmt.Errorf("unknown store provider: %s", cfg.Provider)
	}
}
