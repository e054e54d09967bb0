// Package repository holds the persistence interfaces and their pgx
// implementations. Services depend on the interfaces so tests can swap
// in fakes without a database.
package repository

import (
	"context"
	"time"

	model "github.com/hageshiame/light-heart/internal/models"
)

type AccountRepo interface {
	// FindOrCreateByOpenID returns the account for a WeChat openid,
	// creating it on first login.
	FindOrCreateByOpenID(ctx context.Context, openID, nickname, avatarURL string) (*model.Account, error)
	GetByID(ctx context.Context, id string) (*model.Account, error)
	// GrantRewards increments gold and exp atomically in SQL; callers
	// never read-modify-write balances.
	GrantRewards(ctx context.Context, playerID string, gold, exp int) error
	TouchLogin(ctx context.Context, id string) error
	TouchSync(ctx context.Context, id string) error
}

type BattleRepo interface {
	InsertRecord(ctx context.Context, rec *model.BattleRecord) error
	// UpsertBestScore keeps the per-(player, map) maximum; a lower score
	// leaves the row untouched.
	UpsertBestScore(ctx context.Context, playerID, mapID string, score int) error
	GetRank(ctx context.Context, playerID, mapID string) (*model.PlayerRank, error)
	GetRankings(ctx context.Context, mapID string, limit, offset int) ([]model.LeaderboardEntry, int, error)
	GetHistory(ctx context.Context, playerID string, limit, offset int) ([]model.BattleRecord, error)
}

type RescueRepo interface {
	Insert(ctx context.Context, req *model.RescueRequest) error
	GetByID(ctx context.Context, id string) (*model.RescueRequest, error)
	// ClaimComplete flips a pending, unexpired request to completed and
	// returns false when another caller (or expiry) got there first.
	ClaimComplete(ctx context.Context, id, rescuerID string, completedAt time.Time) (bool, error)
	MarkExpired(ctx context.Context, id string) error
	Cancel(ctx context.Context, id, requesterID string) (bool, error)
	ListPending(ctx context.Context, requesterID string) ([]model.RescueRequest, error)
	Stats(ctx context.Context, playerID string) (*model.RescueStats, error)
}

type SyncRepo interface {
	SaveSnapshot(ctx context.Context, playerID string, data []byte, at time.Time) error
	// GetSnapshot returns the latest stored snapshot, or (nil, zero, nil)
	// when the player never synced.
	GetSnapshot(ctx context.Context, playerID string) ([]byte, time.Time, error)
	InsertAnomaly(ctx context.Context, report *model.AnomalyReport) error
}
