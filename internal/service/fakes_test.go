package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hageshiame/light-heart/internal/apperr"
	model "github.com/hageshiame/light-heart/internal/models"
)

type grant struct {
	playerID  string
	gold, exp int
}

type fakeAccounts struct {
	mu       sync.Mutex
	accounts map[string]*model.Account
	grants   []grant
	onGrant  func() // runs after each grant commits, outside the lock
}

func newFakeAccounts(ids ...string) *fakeAccounts {
	f := &fakeAccounts{accounts: make(map[string]*model.Account)}
	for _, id := range ids {
		f.accounts[id] = &model.Account{ID: id, WechatOpenID: "open_" + id, Level: 1}
	}
	return f
}

func (f *fakeAccounts) FindOrCreateByOpenID(_ context.Context, openID, nickname, _ string) (*model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if a.WechatOpenID == openID {
			return a, nil
		}
	}
	a := &model.Account{ID: "acct_" + openID, WechatOpenID: openID, WechatNickname: nickname, Level: 1}
	f.accounts[a.ID] = a
	return a, nil
}

func (f *fakeAccounts) GetByID(_ context.Context, id string) (*model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[id]
	if !ok {
		return nil, apperr.NotFound("PLAYER_NOT_FOUND", "player not found")
	}
	clone := *a
	return &clone, nil
}

func (f *fakeAccounts) GrantRewards(_ context.Context, playerID string, gold, exp int) error {
	f.mu.Lock()
	a, ok := f.accounts[playerID]
	if !ok {
		f.mu.Unlock()
		return apperr.NotFound("PLAYER_NOT_FOUND", "player not found")
	}
	a.Gold += gold
	a.Exp += exp
	f.grants = append(f.grants, grant{playerID: playerID, gold: gold, exp: exp})
	f.mu.Unlock()
	if f.onGrant != nil {
		f.onGrant()
	}
	return nil
}

func (f *fakeAccounts) TouchLogin(_ context.Context, _ string) error { return nil }
func (f *fakeAccounts) TouchSync(_ context.Context, _ string) error  { return nil }

type bestScore struct {
	playerID   string
	score      int
	achievedAt time.Time
}

type fakeBattles struct {
	mu           sync.Mutex
	records      []model.BattleRecord
	best         map[string][]bestScore // mapID -> scores
	rankingCalls int
	historyCalls int
}

func newFakeBattles() *fakeBattles {
	return &fakeBattles{best: make(map[string][]bestScore)}
}

func (f *fakeBattles) InsertRecord(_ context.Context, rec *model.BattleRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec.ID = "rec"
	rec.CreatedAt = time.Now()
	f.records = append(f.records, *rec)
	return nil
}

func (f *fakeBattles) UpsertBestScore(_ context.Context, playerID, mapID string, score int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, b := range f.best[mapID] {
		if b.playerID == playerID {
			if score > b.score {
				f.best[mapID][i].score = score
				f.best[mapID][i].achievedAt = time.Now()
			}
			return nil
		}
	}
	f.best[mapID] = append(f.best[mapID], bestScore{playerID: playerID, score: score, achievedAt: time.Now()})
	return nil
}

func (f *fakeBattles) GetRank(_ context.Context, playerID, mapID string) (*model.PlayerRank, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var mine *bestScore
	for i := range f.best[mapID] {
		if f.best[mapID][i].playerID == playerID {
			mine = &f.best[mapID][i]
		}
	}
	if mine == nil {
		return nil, apperr.NotFound("RANK_NOT_FOUND", "player has no score on this map")
	}
	rank := 1
	for _, b := range f.best[mapID] {
		if b.score > mine.score || (b.score == mine.score && b.achievedAt.Before(mine.achievedAt)) {
			rank++
		}
	}
	return &model.PlayerRank{PlayerID: playerID, MapID: mapID, Rank: rank, Score: mine.score}, nil
}

func (f *fakeBattles) GetRankings(_ context.Context, mapID string, limit, offset int) ([]model.LeaderboardEntry, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rankingCalls++
	scores := append([]bestScore(nil), f.best[mapID]...)
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].score != scores[j].score {
			return scores[i].score > scores[j].score
		}
		return scores[i].achievedAt.Before(scores[j].achievedAt)
	})
	entries := []model.LeaderboardEntry{}
	for i, b := range scores {
		if i < offset || len(entries) >= limit {
			continue
		}
		entries = append(entries, model.LeaderboardEntry{
			Rank: i + 1, PlayerID: b.playerID, Score: b.score, MapID: mapID, Timestamp: b.achievedAt,
		})
	}
	return entries, len(scores), nil
}

func (f *fakeBattles) GetHistory(_ context.Context, playerID string, limit, offset int) ([]model.BattleRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.historyCalls++
	out := []model.BattleRecord{}
	for _, rec := range f.records {
		if rec.PlayerID == playerID {
			out = append(out, rec)
		}
	}
	if offset >= len(out) {
		return []model.BattleRecord{}, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeRescues struct {
	mu      sync.Mutex
	nextID  int
	rescues map[string]*model.RescueRequest
}

func newFakeRescues() *fakeRescues {
	return &fakeRescues{rescues: make(map[string]*model.RescueRequest)}
}

func (f *fakeRescues) Insert(_ context.Context, req *model.RescueRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	req.ID = fmt.Sprintf("rescue_%d", f.nextID)
	req.CreatedAt = time.Now()
	clone := *req
	f.rescues[req.ID] = &clone
	return nil
}

func (f *fakeRescues) GetByID(_ context.Context, id string) (*model.RescueRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rescues[id]
	if !ok {
		return nil, apperr.NotFound("RESCUE_NOT_FOUND", "rescue request not found")
	}
	clone := *r
	return &clone, nil
}

func (f *fakeRescues) ClaimComplete(_ context.Context, id, rescuerID string, completedAt time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rescues[id]
	if !ok || r.Status != model.RescuePending || time.Now().After(r.ExpiresAt) {
		return false, nil
	}
	r.Status = model.RescueCompleted
	r.RescuerID = &rescuerID
	r.CompletedAt = &completedAt
	return true, nil
}

func (f *fakeRescues) MarkExpired(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.rescues[id]; ok && r.Status == model.RescuePending {
		r.Status = model.RescueExpired
	}
	return nil
}

func (f *fakeRescues) Cancel(_ context.Context, id, requesterID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rescues[id]
	if !ok || r.RequesterID != requesterID || r.Status != model.RescuePending {
		return false, nil
	}
	r.Status = model.RescueCancelled
	return true, nil
}

func (f *fakeRescues) ListPending(_ context.Context, requesterID string) ([]model.RescueRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.RescueRequest{}
	for _, r := range f.rescues {
		if r.RequesterID == requesterID && r.Status == model.RescuePending {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeRescues) Stats(_ context.Context, playerID string) (*model.RescueStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := &model.RescueStats{}
	for _, r := range f.rescues {
		if r.RequesterID == playerID {
			s.TotalRequested++
			if r.Status == model.RescueCompleted {
				s.TotalCompleted++
			}
		}
		if r.RescuerID != nil && *r.RescuerID == playerID && r.Status == model.RescueCompleted {
			s.TotalRescued++
		}
	}
	return s, nil
}

type fakeSyncs struct {
	mu        sync.Mutex
	snapshots map[string][]byte
	syncedAt  map[string]time.Time
	anomalies []model.AnomalyReport
}

func newFakeSyncs() *fakeSyncs {
	return &fakeSyncs{snapshots: make(map[string][]byte), syncedAt: make(map[string]time.Time)}
}

func (f *fakeSyncs) SaveSnapshot(_ context.Context, playerID string, data []byte, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots[playerID] = data
	f.syncedAt[playerID] = at
	return nil
}

func (f *fakeSyncs) GetSnapshot(_ context.Context, playerID string) ([]byte, time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshots[playerID], f.syncedAt[playerID], nil
}

func (f *fakeSyncs) InsertAnomaly(_ context.Context, report *model.AnomalyReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.anomalies = append(f.anomalies, *report)
	return nil
}

type fakeEnqueuer struct {
	mu   sync.Mutex
	jobs []string
}

func (f *fakeEnqueuer) Enqueue(_ context.Context, jobType string, _ any) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs = append(f.jobs, jobType)
	return "job-1", nil
}
