package service

import (
	"context"
	"fmt"
	"time"

	"github.com/hageshiame/light-heart/internal/apperr"
	"github.com/hageshiame/light-heart/internal/cache"
	"github.com/hageshiame/light-heart/internal/logger"
	model "github.com/hageshiame/light-heart/internal/models"
	"github.com/hageshiame/light-heart/internal/repository"
)

const (
	rescueLifetime   = 24 * time.Hour
	rescueRewardGold = 500
	rescueRewardExp  = 200
	// recoveryRate is the fraction of each lost item stack returned to
	// the requester, rounded up per stack.
	recoveryRate = 0.6
)

type RescueService struct {
	accounts repository.AccountRepo
	rescues  repository.RescueRepo
	cache    *cache.Strategy
	baseURL  string
}

func NewRescueService(
	accounts repository.AccountRepo,
	rescues repository.RescueRepo,
	strategy *cache.Strategy,
	baseURL string,
) *RescueService {
	return &RescueService{accounts: accounts, rescues: rescues, cache: strategy, baseURL: baseURL}
}

// Create opens a rescue request after a failed battle. The request stays
// claimable for 24 hours, then expires.
func (s *RescueService) Create(ctx context.Context, req *model.CreateRescueRequest) (*model.CreateRescueResponse, error) {
	switch {
	case req.PlayerID == "":
		return nil, apperr.Validation("MISSING_PLAYER_ID", "playerId is required")
	case req.MapID == "":
		return nil, apperr.Validation("MISSING_MAP_ID", "mapId is required")
	case len(req.LostItems) == 0:
		return nil, apperr.Validation("NO_LOST_ITEMS", "lostItems must not be empty")
	}
	if _, err := s.accounts.GetByID(ctx, req.PlayerID); err != nil {
		return nil, err
	}

	rescue := &model.RescueRequest{
		RequesterID: req.PlayerID,
		MapID:       req.MapID,
		LostItems:   req.LostItems,
		TotalValue:  req.TotalValue,
		Status:      model.RescuePending,
		RewardGold:  rescueRewardGold,
		RewardExp:   rescueRewardExp,
		ExpiresAt:   time.Now().Add(rescueLifetime),
	}
	if err := s.rescues.Insert(ctx, rescue); err != nil {
		return nil, err
	}

	logger.Info("Rescue request %s created by player %s", rescue.ID, req.PlayerID)
	return &model.CreateRescueResponse{
		RequestID: rescue.ID,
		RescueURL: fmt.Sprintf("%s/rescue/%s", s.baseURL, rescue.ID),
		ExpiresAt: rescue.ExpiresAt,
	}, nil
}

// Get returns a rescue request, expiring it lazily: a pending request
// past its deadline is flipped to expired before it is returned.
func (s *RescueService) Get(ctx context.Context, id string) (*model.RescueRequest, error) {
	rescue, err := s.rescues.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rescue.Status == model.RescuePending && time.Now().After(rescue.ExpiresAt) {
		if err := s.rescues.MarkExpired(ctx, id); err != nil {
			return nil, err
		}
		rescue.Status = model.RescueExpired
	}
	return rescue, nil
}

// Complete lets a hero claim a pending request. The claim is a single
// conditional update, so of two concurrent heroes exactly one wins; the
// loser gets the terminal-state error for whatever the winner left.
func (s *RescueService) Complete(ctx context.Context, req *model.CompleteRescueRequest) (*model.CompleteRescueResponse, error) {
	switch {
	case req.RequestID == "":
		return nil, apperr.Validation("MISSING_REQUEST_ID", "requestId is required")
	case req.HeroID == "":
		return nil, apperr.Validation("MISSING_HERO_ID", "heroId is required")
	}
	if _, err := s.accounts.GetByID(ctx, req.HeroID); err != nil {
		return nil, err
	}

	rescue, err := s.Get(ctx, req.RequestID)
	if err != nil {
		return nil, err
	}
	switch rescue.Status {
	case model.RescueExpired:
		return nil, apperr.Gone("RESCUE_EXPIRED", "rescue request has expired")
	case model.RescueCompleted:
		return nil, apperr.Conflict("RESCUE_ALREADY_COMPLETED", "rescue request was already completed")
	case model.RescueCancelled:
		return nil, apperr.Conflict("RESCUE_CANCELLED", "rescue request was cancelled")
	}
	if rescue.RequesterID == req.HeroID {
		return nil, apperr.Forbidden("SELF_RESCUE", "cannot rescue yourself")
	}

	claimed, err := s.rescues.ClaimComplete(ctx, req.RequestID, req.HeroID, time.Now())
	if err != nil {
		return nil, err
	}
	if !claimed {
		// Lost the race; re-read for the accurate terminal error.
		current, err := s.Get(ctx, req.RequestID)
		if err != nil {
			return nil, err
		}
		if current.Status == model.RescueExpired {
			return nil, apperr.Gone("RESCUE_EXPIRED", "rescue request has expired")
		}
		return nil, apperr.Conflict("RESCUE_ALREADY_COMPLETED", "rescue request was already completed")
	}

	recovered := recoverItems(rescue.LostItems)
	if err := s.accounts.GrantRewards(ctx, req.HeroID, rescue.RewardGold, rescue.RewardExp); err != nil {
		return nil, err
	}
	s.cache.InvalidateAfterRescue(ctx, rescue.RequesterID, req.HeroID)

	logger.Info("Rescue %s completed by hero %s", req.RequestID, req.HeroID)
	return &model.CompleteRescueResponse{
		HeroReward:     model.BattleReward{Gold: rescue.RewardGold, Exp: rescue.RewardExp},
		RecoveredItems: recovered,
	}, nil
}

// Cancel withdraws a pending request. Only the requester may cancel, and
// a request that already reached a terminal state stays there.
func (s *RescueService) Cancel(ctx context.Context, req *model.CancelRescueRequest) error {
	rescue, err := s.Get(ctx, req.RequestID)
	if err != nil {
		return err
	}
	if rescue.RequesterID != req.PlayerID {
		return apperr.Forbidden("NOT_REQUESTER", "only the requester can cancel a rescue request")
	}
	if rescue.Status.Terminal() {
		if rescue.Status == model.RescueExpired {
			return apperr.Gone("RESCUE_EXPIRED", "rescue request has expired")
		}
		return apperr.Conflict("RESCUE_NOT_PENDING", "rescue request is no longer pending")
	}

	ok, err := s.rescues.Cancel(ctx, req.RequestID, req.PlayerID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Conflict("RESCUE_NOT_PENDING", "rescue request is no longer pending")
	}
	logger.Info("Rescue %s cancelled by player %s", req.RequestID, req.PlayerID)
	return nil
}

// ListPending returns the player's open requests, lazily expiring any
// that ran out while listed.
func (s *RescueService) ListPending(ctx context.Context, playerID string) ([]model.RescueRequest, error) {
	pending, err := s.rescues.ListPending(ctx, playerID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	live := pending[:0]
	for _, rescue := range pending {
		if now.After(rescue.ExpiresAt) {
			if err := s.rescues.MarkExpired(ctx, rescue.ID); err != nil {
				return nil, err
			}
			continue
		}
		live = append(live, rescue)
	}
	return live, nil
}

func (s *RescueService) Stats(ctx context.Context, playerID string) (*model.RescueStats, error) {
	return s.rescues.Stats(ctx, playerID)
}

// recoverItems applies the recovery rate per stack, rounding up so a
// single lost item always comes back.
func recoverItems(lost []model.Item) []model.Item {
	recovered := make([]model.Item, 0, len(lost))
	for _, item := range lost {
		count := (item.Count*6 + 9) / 10 // ceil(count * 0.6) in integers
		if count == 0 {
			continue
		}
		item.Count = count
		recovered = append(recovered, item)
	}
	return recovered
}
