package service

import (
	"context"

	"github.com/hageshiame/light-heart/internal/apperr"
	"github.com/hageshiame/light-heart/internal/cache"
	"github.com/hageshiame/light-heart/internal/logger"
	"github.com/hageshiame/light-heart/internal/metrics"
	model "github.com/hageshiame/light-heart/internal/models"
	"github.com/hageshiame/light-heart/internal/repository"
	"github.com/hageshiame/light-heart/internal/sign"
)

// Reward divisors: a 1000-point battle pays 100 gold and 50 exp.
const (
	rewardGoldDivisor = 10
	rewardExpDivisor  = 20
)

type BattleService struct {
	accounts    repository.AccountRepo
	battles     repository.BattleRepo
	cache       *cache.Strategy
	scoreSecret string
}

func NewBattleService(
	accounts repository.AccountRepo,
	battles repository.BattleRepo,
	strategy *cache.Strategy,
	scoreSecret string,
) *BattleService {
	return &BattleService{
		accounts:    accounts,
		battles:     battles,
		cache:       strategy,
		scoreSecret: scoreSecret,
	}
}

// SubmitScore runs the full write path: validate, verify the signature,
// append the battle record, raise the best score, invalidate stale cache
// entries, grant rewards and return the fresh rank.
//
// A client retry after a lost response re-runs the whole path and grants
// rewards again; the battle log keeps both rows so the duplicate is
// visible to reconciliation.
func (s *BattleService) SubmitScore(ctx context.Context, req *model.SubmitScoreRequest) (*model.SubmitScoreResponse, error) {
	if err := validateSubmission(req); err != nil {
		return nil, err
	}

	if _, err := s.accounts.GetByID(ctx, req.PlayerID); err != nil {
		return nil, err
	}

	// A signed submission must verify; an unsigned one is accepted but
	// the missing signature stays on the record for auditing.
	if req.Signature != "" {
		if !sign.Verify(s.scoreSecret, req.PlayerID, req.MapID, req.Score, req.ClientTimestamp, req.Signature) {
			return nil, apperr.Forbidden("INVALID_SIGNATURE", "score signature verification failed")
		}
	}

	rec := &model.BattleRecord{
		PlayerID:        req.PlayerID,
		MapID:           req.MapID,
		Score:           req.Score,
		DamageDealt:     req.DamageDealt,
		DamageReceived:  req.DamageReceived,
		ClearTime:       req.ClearTime,
		ExtractSuccess:  req.ExtractSuccess,
		Signature:       req.Signature,
		ClientTimestamp: req.ClientTimestamp,
	}
	if err := s.battles.InsertRecord(ctx, rec); err != nil {
		return nil, err
	}

	if err := s.battles.UpsertBestScore(ctx, req.PlayerID, req.MapID, req.Score); err != nil {
		return nil, err
	}

	rewards := model.BattleReward{
		Gold: req.Score / rewardGoldDivisor,
		Exp:  req.Score / rewardExpDivisor,
	}
	if err := s.accounts.GrantRewards(ctx, req.PlayerID, rewards.Gold, rewards.Exp); err != nil {
		return nil, err
	}

	// Invalidate only once every write has committed, before the
	// response. A read landing mid-pipeline could otherwise repopulate
	// player:data with the pre-grant balance and keep it for a full TTL.
	s.cache.InvalidateAfterScore(ctx, req.PlayerID, req.MapID)

	rank, err := s.battles.GetRank(ctx, req.PlayerID, req.MapID)
	if err != nil {
		return nil, err
	}

	metrics.ScoresSubmitted.Inc()
	logger.Info("Score %d accepted for player %s on map %s (rank %d)", req.Score, req.PlayerID, req.MapID, rank.Rank)

	return &model.SubmitScoreResponse{Rank: rank.Rank, Rewards: rewards}, nil
}

// GetRankings returns one leaderboard page, cache-aside per map. Only the
// first page is cached; deep pages are rare and cheap to recompute.
func (s *BattleService) GetRankings(ctx context.Context, mapID string, limit, offset int) (*model.RankingsResponse, error) {
	if mapID == "" {
		return nil, apperr.Validation("MISSING_MAP_ID", "mapId is required")
	}
	limit = clampLimit(limit, 50, 100)
	if offset < 0 {
		offset = 0
	}

	key := cache.KeyLeaderboard(mapID)
	if offset == 0 {
		var cached model.RankingsResponse
		if s.cache.GetJSON(ctx, key, &cached) && cached.Limit == limit {
			return &cached, nil
		}
	}

	entries, total, err := s.battles.GetRankings(ctx, mapID, limit, offset)
	if err != nil {
		return nil, err
	}
	resp := &model.RankingsResponse{Rankings: entries, Total: total, Limit: limit, Offset: offset}
	if offset == 0 {
		s.cache.SetJSON(ctx, key, resp, cache.TTLLeaderboard)
	}
	return resp, nil
}

// GetPlayerRank returns a player's rank on one map, cache-aside.
func (s *BattleService) GetPlayerRank(ctx context.Context, playerID, mapID string) (*model.PlayerRank, error) {
	if playerID == "" || mapID == "" {
		return nil, apperr.Validation("MISSING_PARAMS", "playerId and mapId are required")
	}

	key := cache.KeyPlayerRank(playerID, mapID)
	var cached model.PlayerRank
	if s.cache.GetJSON(ctx, key, &cached) {
		return &cached, nil
	}

	rank, err := s.battles.GetRank(ctx, playerID, mapID)
	if err != nil {
		return nil, err
	}
	s.cache.SetJSON(ctx, key, rank, cache.TTLPlayerRank)
	return rank, nil
}

// GetHistory returns a page of the player's battle log, cache-aside per
// (limit, offset) page.
func (s *BattleService) GetHistory(ctx context.Context, playerID string, limit, offset int) ([]model.BattleRecord, error) {
	if playerID == "" {
		return nil, apperr.Validation("MISSING_PLAYER_ID", "playerId is required")
	}
	limit = clampLimit(limit, 20, 100)
	if offset < 0 {
		offset = 0
	}

	key := cache.KeyBattleHistory(playerID, limit, offset)
	var cached []model.BattleRecord
	if s.cache.GetJSON(ctx, key, &cached) {
		return cached, nil
	}

	records, err := s.battles.GetHistory(ctx, playerID, limit, offset)
	if err != nil {
		return nil, err
	}
	s.cache.SetJSON(ctx, key, records, cache.TTLBattleHistory)
	return records, nil
}

func validateSubmission(req *model.SubmitScoreRequest) error {
	switch {
	case req.PlayerID == "":
		return apperr.Validation("MISSING_PLAYER_ID", "playerId is required")
	case req.MapID == "":
		return apperr.Validation("MISSING_MAP_ID", "mapId is required")
	case req.Score < 0 || req.Score > model.MaxScore:
		return apperr.Validation("SCORE_OUT_OF_RANGE", "score is out of range")
	case req.DamageDealt < 0 || req.DamageReceived < 0 || req.ClearTime < 0:
		return apperr.Validation("INVALID_BATTLE_STATS", "battle stats must be non-negative")
	}
	return nil
}

func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
