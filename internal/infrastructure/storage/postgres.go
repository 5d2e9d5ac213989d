package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/psxom3/genai-regwatch/internal/logging"
)

const postgresDialTimeout = 10 * time.Second

// OpenPostgres creates a pgx pool and exposes it through database/sql.
func OpenPostgres(ctx context.Context, dsn string, maxConns int32, logger *slog.Logger) (*Repository, error) {
	logger = logging.OrDiscard(logger)

	pc, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if maxConns > 0 {
		pc.MaxConns = maxConns
	}
	pc.ConnConfig.RuntimeParams["application_name"] = "regwatch"

	dialCtx, cancel := context.WithTimeout(ctx, postgresDialTimeout)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(dialCtx, pc)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(dialCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	repo := New(stdlib.OpenDBFromPool(pool), DialectPostgres)
	repo.closer = pool.Close
	logger.Info("connected to database", "driver", "postgres", "max_conns", pc.MaxConns)
	return repo, nil
}
