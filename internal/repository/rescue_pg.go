package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hageshiame/light-heart/internal/apperr"
	model "github.com/hageshiame/light-heart/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RescuePG struct {
	pool *pgxpool.Pool
}

func NewRescuePG(pool *pgxpool.Pool) *RescuePG {
	return &RescuePG{pool: pool}
}

const rescueColumns = `
	id, requester_id, rescuer_id, map_id, lost_items, total_value,
	status, reward_gold, reward_exp, created_at, expires_at, completed_at`

func scanRescue(row pgx.Row) (*model.RescueRequest, error) {
	var (
		req      model.RescueRequest
		rawItems []byte
	)
	err := row.Scan(
		&req.ID, &req.RequesterID, &req.RescuerID, &req.MapID, &rawItems,
		&req.TotalValue, &req.Status, &req.RewardGold, &req.RewardExp,
		&req.CreatedAt, &req.ExpiresAt, &req.CompletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("RESCUE_NOT_FOUND", "rescue request not found")
	}
	if err != nil {
		return nil, fmt.Errorf("scan rescue: %w", err)
	}
	if err := json.Unmarshal(rawItems, &req.LostItems); err != nil {
		return nil, fmt.Errorf("decode lost items: %w", err)
	}
	return &req, nil
}

func (r *RescuePG) Insert(ctx context.Context, req *model.RescueRequest) error {
	items, err := json.Marshal(req.LostItems)
	if err != nil {
		return fmt.Errorf("encode lost items: %w", err)
	}
	err = r.pool.QueryRow(ctx, `
		INSERT INTO rescue_requests
			(requester_id, map_id, lost_items, total_value, status,
			 reward_gold, reward_exp, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`,
		req.RequesterID, req.MapID, items, req.TotalValue, req.Status,
		req.RewardGold, req.RewardExp, req.ExpiresAt,
	).Scan(&req.ID, &req.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert rescue request: %w", err)
	}
	return nil
}

func (r *RescuePG) GetByID(ctx context.Context, id string) (*model.RescueRequest, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+rescueColumns+` FROM rescue_requests WHERE id = $1`, id)
	return scanRescue(row)
}

func (r *RescuePG) ClaimComplete(ctx context.Context, id, rescuerID string, completedAt time.Time) (bool, error) {
	// The status and expiry predicates make the claim atomic: of two
	// concurrent rescuers exactly one sees RowsAffected() == 1.
	tag, err := r.pool.Exec(ctx, `
		UPDATE rescue_requests
		SET status = 'completed', rescuer_id = $2, completed_at = $3
		WHERE id = $1 AND status = 'pending' AND expires_at > NOW()
	`, id, rescuerID, completedAt)
	if err != nil {
		return false, fmt.Errorf("claim rescue: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *RescuePG) MarkExpired(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE rescue_requests SET status = 'expired'
		WHERE id = $1 AND status = 'pending'
	`, id)
	if err != nil {
		return fmt.Errorf("mark rescue expired: %w", err)
	}
	return nil
}

func (r *RescuePG) Cancel(ctx context.Context, id, requesterID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE rescue_requests SET status = 'cancelled'
		WHERE id = $1 AND requester_id = $2 AND status = 'pending'
	`, id, requesterID)
	if err != nil {
		return false, fmt.Errorf("cancel rescue: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *RescuePG) ListPending(ctx context.Context, requesterID string) ([]model.RescueRequest, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+rescueColumns+`
		FROM rescue_requests
		WHERE requester_id = $1 AND status = 'pending'
		ORDER BY created_at DESC
	`, requesterID)
	if err != nil {
		return nil, fmt.Errorf("list pending rescues: %w", err)
	}
	defer rows.Close()

	var out []model.RescueRequest
	for rows.Next() {
		req, err := scanRescue(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list pending rescues: %w", err)
	}
	if out == nil {
		out = []model.RescueRequest{}
	}
	return out, nil
}

func (r *RescuePG) Stats(ctx context.Context, playerID string) (*model.RescueStats, error) {
	var s model.RescueStats
	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE requester_id = $1),
			COUNT(*) FILTER (WHERE requester_id = $1 AND status = 'completed'),
			COUNT(*) FILTER (WHERE rescuer_id = $1 AND status = 'completed')
		FROM rescue_requests
		WHERE requester_id = $1 OR rescuer_id = $1
	`, playerID).Scan(&s.TotalRequested, &s.TotalCompleted, &s.TotalRescued)
	if err != nil {
		return nil, fmt.Errorf("rescue stats: %w", err)
	}
	return &s, nil
}
