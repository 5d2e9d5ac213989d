package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/psxom3/genai-regwatch/internal/config"
)

// Open connects to the configured database and applies migrations.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*Repository, error) {
	var (
		repo *Repository
		err  error
	)
	switch cfg.Driver {
	case config.DriverPostgres:
		repo, err = OpenPostgres(ctx, cfg.DSN, cfg.MaxConns, logger)
	case config.DriverSQLite:
		repo, err = OpenSQLite(cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := repo.Migrate(ctx); err != nil {
		repo.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return repo, nil
}
