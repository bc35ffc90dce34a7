package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/utilhub/nfequery/internal/config"
)

// PostgresRecorder persists audit entries in PostgreSQL.
type PostgresRecorder struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPostgresRecorder connects the pool, runs pending migrations and returns
// a ready recorder.
func NewPostgresRecorder(ctx context.Context, cfg *config.ServerEnvironment, logger *slog.Logger) (*PostgresRecorder, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	poolCfg.MaxConns = cfg.DBMaxConnections
	poolCfg.MinConns = cfg.DBMinConnections
	poolCfg.MaxConnLifetime = cfg.DBMaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.DBMaxConnIdleTime
	poolCfg.ConnConfig.ConnectTimeout = cfg.DBConnectTimeout

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.DatabasePingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := runMigrations(pool, logger); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info("query audit store ready")
	return &PostgresRecorder{pool: pool, logger: logger}, nil
}

// Record inserts one audit entry.
func (r *PostgresRecorder) Record(ctx context.Context, rec QueryRecord) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO query_audit (fingerprint, access_key, outcome, status_code, duration_ms)
		 VALUES ($1, $2, $3, $4, $5)`,
		rec.Fingerprint, rec.AccessKey, rec.Outcome, rec.StatusCode, rec.Duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("failed to record query audit entry: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (r *PostgresRecorder) Close() {
	r.pool.Close()
}
