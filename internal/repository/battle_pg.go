package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/hageshiame/light-heart/internal/apperr"
	model "github.com/hageshiame/light-heart/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BattlePG struct {
	pool *pgxpool.Pool
}

func NewBattlePG(pool *pgxpool.Pool) *BattlePG {
	return &BattlePG{pool: pool}
}

func (r *BattlePG) InsertRecord(ctx context.Context, rec *model.BattleRecord) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO battle_records
			(player_id, map_id, score, damage_dealt, damage_received,
			 clear_time, extract_success, signature, client_timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), NULLIF($9, 0))
		RETURNING id, created_at
	`,
		rec.PlayerID, rec.MapID, rec.Score, rec.DamageDealt, rec.DamageReceived,
		rec.ClearTime, rec.ExtractSuccess, rec.Signature, rec.ClientTimestamp,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert battle record: %w", err)
	}
	return nil
}

func (r *BattlePG) UpsertBestScore(ctx context.Context, playerID, mapID string, score int) error {
	// GREATEST keeps the upsert atomic: concurrent submissions cannot
	// regress the stored best.
	_, err := r.pool.Exec(ctx, `
		INSERT INTO best_scores (player_id, map_id, score)
		VALUES ($1, $2, $3)
		ON CONFLICT (player_id, map_id) DO UPDATE SET
			score       = GREATEST(best_scores.score, EXCLUDED.score),
			achieved_at = CASE
				WHEN EXCLUDED.score > best_scores.score THEN NOW()
				ELSE best_scores.achieved_at
			END
	`, playerID, mapID, score)
	if err != nil {
		return fmt.Errorf("upsert best score: %w", err)
	}
	return nil
}

func (r *BattlePG) GetRank(ctx context.Context, playerID, mapID string) (*model.PlayerRank, error) {
	// Rank = players with a strictly better best score, or an equal score
	// achieved earlier, plus one.
	rank := &model.PlayerRank{PlayerID: playerID, MapID: mapID}
	err := r.pool.QueryRow(ctx, `
		WITH mine AS (
			SELECT score, achieved_at FROM best_scores
			WHERE player_id = $1 AND map_id = $2
		)
		SELECT m.score,
			(SELECT COUNT(*) FROM best_scores b, mine m2
			 WHERE b.map_id = $2
			   AND (b.score > m2.score
			        OR (b.score = m2.score AND b.achieved_at < m2.achieved_at))) + 1
		FROM mine m
	`, playerID, mapID).Scan(&rank.Score, &rank.Rank)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("RANK_NOT_FOUND", "player has no score on this map")
	}
	if err != nil {
		return nil, fmt.Errorf("get rank: %w", err)
	}
	return rank, nil
}

func (r *BattlePG) GetRankings(ctx context.Context, mapID string, limit, offset int) ([]model.LeaderboardEntry, int, error) {
	rows, err := r.pool.Query(ctx, `
		WITH ranked AS (
			SELECT
				b.player_id,
				COALESCE(a.wechat_nickname, '') AS nickname,
				b.score,
				b.achieved_at,
				ROW_NUMBER() OVER (ORDER BY b.score DESC, b.achieved_at ASC) AS rank
			FROM best_scores b
			INNER JOIN accounts a ON a.id = b.player_id
			WHERE b.map_id = $1
		)
		SELECT player_id, nickname, score, achieved_at, rank,
			(SELECT COUNT(*) FROM ranked) AS total
		FROM ranked
		ORDER BY rank
		LIMIT $2 OFFSET $3
	`, mapID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("get rankings: %w", err)
	}
	defer rows.Close()

	var entries []model.LeaderboardEntry
	total := 0
	for rows.Next() {
		var e model.LeaderboardEntry
		if err := rows.Scan(&e.PlayerID, &e.Nickname, &e.Score, &e.Timestamp, &e.Rank, &total); err != nil {
			return nil, 0, fmt.Errorf("scan ranking: %w", err)
		}
		e.MapID = mapID
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("get rankings: %w", err)
	}
	if entries == nil {
		entries = []model.LeaderboardEntry{}
	}
	return entries, total, nil
}

func (r *BattlePG) GetHistory(ctx context.Context, playerID string, limit, offset int) ([]model.BattleRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, player_id, map_id, score, damage_dealt, damage_received,
			clear_time, extract_success, created_at
		FROM battle_records
		WHERE player_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, playerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}
	defer rows.Close()

	var records []model.BattleRecord
	for rows.Next() {
		var rec model.BattleRecord
		if err := rows.Scan(
			&rec.ID, &rec.PlayerID, &rec.MapID, &rec.Score,
			&rec.DamageDealt, &rec.DamageReceived, &rec.ClearTime,
			&rec.ExtractSuccess, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}
	if records == nil {
		records = []model.BattleRecord{}
	}
	return records, nil
}
