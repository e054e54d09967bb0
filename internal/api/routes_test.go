package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hageshiame/light-heart/internal/apperr"
	"github.com/hageshiame/light-heart/internal/cache"
	"github.com/hageshiame/light-heart/internal/config"
	"github.com/hageshiame/light-heart/internal/handler"
	model "github.com/hageshiame/light-heart/internal/models"
	"github.com/hageshiame/light-heart/internal/service"
	"github.com/hageshiame/light-heart/internal/sign"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "routes-test-secret"

type memAccounts struct {
	accounts map[string]*model.Account
}

func (m *memAccounts) FindOrCreateByOpenID(_ context.Context, openID, nickname, _ string) (*model.Account, error) {
	for _, a := range m.accounts {
		if a.WechatOpenID == openID {
			return a, nil
		}
	}
	a := &model.Account{ID: fmt.Sprintf("p%d", len(m.accounts)+1), WechatOpenID: openID, WechatNickname: nickname, Level: 1}
	m.accounts[a.ID] = a
	return a, nil
}

func (m *memAccounts) GetByID(_ context.Context, id string) (*model.Account, error) {
	a, ok := m.accounts[id]
	if !ok {
		return nil, apperr.NotFound("PLAYER_NOT_FOUND", "player not found")
	}
	return a, nil
}

func (m *memAccounts) GrantRewards(_ context.Context, id string, gold, exp int) error {
	a, ok := m.accounts[id]
	if !ok {
		return apperr.NotFound("PLAYER_NOT_FOUND", "player not found")
	}
	a.Gold += gold
	a.Exp += exp
	return nil
}

func (m *memAccounts) TouchLogin(context.Context, string) error { return nil }
func (m *memAccounts) TouchSync(context.Context, string) error  { return nil }

type memBattles struct {
	records []model.BattleRecord
	best    map[string]map[string]int // mapID -> playerID -> score
}

func (m *memBattles) InsertRecord(_ context.Context, rec *model.BattleRecord) error {
	rec.ID = fmt.Sprintf("r%d", len(m.records)+1)
	rec.CreatedAt = time.Now()
	m.records = append(m.records, *rec)
	return nil
}

func (m *memBattles) UpsertBestScore(_ context.Context, playerID, mapID string, score int) error {
	if m.best[mapID] == nil {
		m.best[mapID] = map[string]int{}
	}
	if score > m.best[mapID][playerID] {
		m.best[mapID][playerID] = score
	}
	return nil
}

func (m *memBattles) GetRank(_ context.Context, playerID, mapID string) (*model.PlayerRank, error) {
	mine, ok := m.best[mapID][playerID]
	if !ok {
		return nil, apperr.NotFound("RANK_NOT_FOUND", "player has no score on this map")
	}
	rank := 1
	for _, s := range m.best[mapID] {
		if s > mine {
			rank++
		}
	}
	return &model.PlayerRank{PlayerID: playerID, MapID: mapID, Rank: rank, Score: mine}, nil
}

func (m *memBattles) GetRankings(_ context.Context, mapID string, _, _ int) ([]model.LeaderboardEntry, int, error) {
	entries := []model.LeaderboardEntry{}
	for playerID, score := range m.best[mapID] {
		entries = append(entries, model.LeaderboardEntry{PlayerID: playerID, Score: score, MapID: mapID})
	}
	return entries, len(entries), nil
}

func (m *memBattles) GetHistory(_ context.Context, playerID string, _, _ int) ([]model.BattleRecord, error) {
	out := []model.BattleRecord{}
	for _, rec := range m.records {
		if rec.PlayerID == playerID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	backend := cache.NewMemory(time.Minute)
	t.Cleanup(func() { backend.Close() })
	strategy := cache.NewStrategy(backend)

	accounts := &memAccounts{accounts: map[string]*model.Account{}}
	battles := &memBattles{best: map[string]map[string]int{}}

	accountSvc := service.NewAccountService(accounts, strategy, testSecret, time.Hour, "", "")
	battleSvc := service.NewBattleService(accounts, battles, strategy, testSecret)

	h := handler.New(accountSvc, battleSvc, nil, nil, nil)

	cfg := &config.Config{
		CORSOrigin:        "*",
		IPRateLimit:       1000,
		IPRateWindow:      time.Minute,
		PlayerRateLimit:   1000,
		PlayerRateWindow:  time.Minute,
		CriticalRateLimit: 1000,
		CriticalRateWin:   time.Minute,
	}
	return SetupRouter(h, accountSvc, cfg)
}

type wireEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body any) (*httptest.ResponseRecorder, wireEnvelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env wireEnvelope
	if rec.Body.Len() > 0 {
		_ = json.Unmarshal(rec.Body.Bytes(), &env)
	}
	return rec, env
}

func login(t *testing.T, router http.Handler, code string) model.LoginResponse {
	t.Helper()
	rec, env := doJSON(t, router, http.MethodPost, "/api/auth/wechat-login", "", model.LoginRequest{Code: code})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp model.LoginResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	return resp
}

func TestLoginAndMe(t *testing.T) {
	router := newTestRouter(t)
	session := login(t, router, "wx-code")

	rec, env := doJSON(t, router, http.MethodGet, "/api/account/me", session.SessionToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var account model.Account
	require.NoError(t, json.Unmarshal(env.Data, &account))
	assert.Equal(t, session.PlayerID, account.ID)
}

func TestMeWithoutToken(t *testing.T) {
	router := newTestRouter(t)

	rec, env := doJSON(t, router, http.MethodGet, "/api/account/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "MISSING_TOKEN", env.Error)
}

func TestSubmitScoreEndToEnd(t *testing.T) {
	router := newTestRouter(t)
	session := login(t, router, "wx-code")

	ts := time.Now().UnixMilli()
	req := model.SubmitScoreRequest{
		PlayerID:        session.PlayerID,
		MapID:           "m1",
		Score:           400,
		ClientTimestamp: ts,
		Signature:       sign.Score(testSecret, session.PlayerID, "m1", 400, ts),
	}
	rec, env := doJSON(t, router, http.MethodPost, "/api/leaderboard/submit-score", session.SessionToken, req)
	require.Equal(t, http.StatusOK, rec.Code, env.Message)

	var resp model.SubmitScoreResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Equal(t, 1, resp.Rank)
	assert.Equal(t, 40, resp.Rewards.Gold)

	rec, env = doJSON(t, router, http.MethodGet, "/api/leaderboard/get-rankings?mapId=m1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var rankings model.RankingsResponse
	require.NoError(t, json.Unmarshal(env.Data, &rankings))
	assert.Equal(t, 1, rankings.Total)
}

func TestSubmitScoreOwnershipEnforced(t *testing.T) {
	router := newTestRouter(t)
	session := login(t, router, "wx-code")

	req := model.SubmitScoreRequest{PlayerID: "someone-else", MapID: "m1", Score: 400}
	rec, env := doJSON(t, router, http.MethodPost, "/api/leaderboard/submit-score", session.SessionToken, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "NOT_OWNER", env.Error)
}

func TestSubmitScoreBadSignature(t *testing.T) {
	router := newTestRouter(t)
	session := login(t, router, "wx-code")

	req := model.SubmitScoreRequest{
		PlayerID:        session.PlayerID,
		MapID:           "m1",
		Score:           400,
		ClientTimestamp: time.Now().UnixMilli(),
		Signature:       "forged",
	}
	rec, env := doJSON(t, router, http.MethodPost, "/api/leaderboard/submit-score", session.SessionToken, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "INVALID_SIGNATURE", env.Error)
}

func TestRefreshTokenFlow(t *testing.T) {
	router := newTestRouter(t)
	session := login(t, router, "wx-code")

	rec, env := doJSON(t, router, http.MethodPost, "/api/auth/refresh-token", session.SessionToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp model.RefreshTokenResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	require.NotEmpty(t, resp.SessionToken)

	rec, _ = doJSON(t, router, http.MethodGet, "/api/account/me", resp.SessionToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUnknownRoute(t *testing.T) {
	router := newTestRouter(t)
	rec, _ := doJSON(t, router, http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRejectsUnknownFields(t *testing.T) {
	router := newTestRouter(t)
	rec, env := doJSON(t, router, http.MethodPost, "/api/auth/wechat-login", "", map[string]any{
		"code": "x", "unexpected": true,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_BODY", env.Error)
}
