package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hageshiame/light-heart/internal/logger"
	"github.com/hageshiame/light-heart/internal/metrics"
)

// TTLs per key family. Leaderboards move fast, sessions do not.
const (
	TTLLeaderboard   = 5 * time.Minute
	TTLPlayerData    = 10 * time.Minute
	TTLPlayerRank    = 5 * time.Minute
	TTLBattleHistory = 15 * time.Minute
	TTLSession       = 24 * time.Hour
)

func KeyLeaderboard(mapID string) string {
	return fmt.Sprintf("leaderboard:map:%s", mapID)
}

func KeyPlayerData(playerID string) string {
	return fmt.Sprintf("player:data:%s", playerID)
}

func KeyPlayerRank(playerID, mapID string) string {
	return fmt.Sprintf("player:rank:%s:map:%s", playerID, mapID)
}

func KeyBattleHistory(playerID string, limit, offset int) string {
	return fmt.Sprintf("battle:history:%s:limit:%d:offset:%d", playerID, limit, offset)
}

// KeyBattleHistoryPrefix covers every (limit, offset) page for a player.
func KeyBattleHistoryPrefix(playerID string) string {
	return fmt.Sprintf("battle:history:%s:", playerID)
}

func KeySession(playerID string) string {
	return fmt.Sprintf("session:%s", playerID)
}

// Strategy wraps a Backend with JSON encoding and fail-open semantics: a
// backend failure is logged and treated as a miss, never surfaced to the
// request path.
type Strategy struct {
	backend Backend
}

func NewStrategy(backend Backend) *Strategy {
	return &Strategy{backend: backend}
}

// GetJSON loads key into dest. It returns false on a miss, an expired
// entry, a backend failure or a corrupt entry; true only when dest holds
// a usable value.
func (s *Strategy) GetJSON(ctx context.Context, key string, dest any) bool {
	raw, err := s.backend.Get(ctx, key)
	if errors.Is(err, ErrMiss) {
		metrics.CacheMisses.Inc()
		return false
	}
	if err != nil {
		metrics.CacheErrors.Inc()
		logger.Warning("Cache get failed for %s: %v", key, err)
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		metrics.CacheErrors.Inc()
		logger.Warning("Cache entry for %s is corrupt, dropping: %v", key, err)
		_ = s.backend.Delete(ctx, key)
		return false
	}
	metrics.CacheHits.Inc()
	return true
}

// SetJSON stores value under key. Failures are logged and swallowed.
func (s *Strategy) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) {
	raw, err := json.Marshal(value)
	if err != nil {
		logger.Warning("Cache marshal failed for %s: %v", key, err)
		return
	}
	if err := s.backend.Set(ctx, key, raw, ttl); err != nil {
		metrics.CacheErrors.Inc()
		logger.Warning("Cache set failed for %s: %v", key, err)
	}
}

// Delete removes keys, swallowing backend failures.
func (s *Strategy) Delete(ctx context.Context, keys ...string) {
	if err := s.backend.Delete(ctx, keys...); err != nil {
		metrics.CacheErrors.Inc()
		logger.Warning("Cache delete failed: %v", err)
	}
}

// InvalidateAfterScore drops every entry a committed score submission can
// have made stale, in dependency order: the map leaderboard first, then
// the player's rank on that map, then the player profile, then every
// cached page of the player's battle history.
func (s *Strategy) InvalidateAfterScore(ctx context.Context, playerID, mapID string) {
	s.Delete(ctx, KeyLeaderboard(mapID))
	s.Delete(ctx, KeyPlayerRank(playerID, mapID))
	s.Delete(ctx, KeyPlayerData(playerID))
	if err := s.backend.DeleteByPrefix(ctx, KeyBattleHistoryPrefix(playerID)); err != nil {
		metrics.CacheErrors.Inc()
		logger.Warning("Cache prefix delete failed for player %s: %v", playerID, err)
	}
}

// InvalidateAfterRescue drops the profiles of both parties after a rescue
// completes; rewards changed their gold and exp.
func (s *Strategy) InvalidateAfterRescue(ctx context.Context, requesterID, rescuerID string) {
	s.Delete(ctx, KeyPlayerData(requesterID))
	if rescuerID != "" && rescuerID != requesterID {
		s.Delete(ctx, KeyPlayerData(rescuerID))
	}
}
