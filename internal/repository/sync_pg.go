package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	model "github.com/hageshiame/light-heart/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SyncPG struct {
	pool *pgxpool.Pool
}

func NewSyncPG(pool *pgxpool.Pool) *SyncPG {
	return &SyncPG{pool: pool}
}

func (r *SyncPG) SaveSnapshot(ctx context.Context, playerID string, data []byte, at time.Time) error {
	// Latest wins: auxiliary sync is a full snapshot, not a delta.
	_, err := r.pool.Exec(ctx, `
		INSERT INTO sync_snapshots (player_id, data, synced_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (player_id) DO UPDATE SET
			data = EXCLUDED.data, synced_at = EXCLUDED.synced_at
	`, playerID, data, at)
	if err != nil {
		return fmt.Errorf("save sync snapshot: %w", err)
	}
	return nil
}

func (r *SyncPG) GetSnapshot(ctx context.Context, playerID string) ([]byte, time.Time, error) {
	var (
		data     []byte
		syncedAt time.Time
	)
	err := r.pool.QueryRow(ctx, `
		SELECT data, synced_at FROM sync_snapshots WHERE player_id = $1
	`, playerID).Scan(&data, &syncedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, time.Time{}, nil
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("get sync snapshot: %w", err)
	}
	return data, syncedAt, nil
}

func (r *SyncPG) InsertAnomaly(ctx context.Context, report *model.AnomalyReport) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO anomaly_reports (player_id, anomaly_type, details, reported_at)
		VALUES ($1, $2, $3, to_timestamp($4 / 1000.0))
	`, report.PlayerID, report.AnomalyType, report.Details, report.Timestamp)
	if err != nil {
		return fmt.Errorf("insert anomaly report: %w", err)
	}
	return nil
}
