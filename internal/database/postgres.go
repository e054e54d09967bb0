package database

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/hageshiame/light-heart/internal/config"
	"github.com/hageshiame/light-heart/internal/logger"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schema string

// ConnectPostgres opens a pgx pool against the configured database and
// verifies the connection with a ping. The caller owns the pool.
func ConnectPostgres(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	logger.Success("Connected to PostgreSQL successfully")

	return pool, nil
}

// InitSchema applies the embedded schema. All statements are idempotent
// (CREATE TABLE IF NOT EXISTS) so it is safe to run at every startup.
func InitSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("unable to apply schema: %w", err)
	}
	logger.Success("Database schema up to date")
	return nil
}
