package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hageshiame/light-heart/internal/apperr"
	"github.com/hageshiame/light-heart/internal/cache"
	"github.com/hageshiame/light-heart/internal/logger"
	model "github.com/hageshiame/light-heart/internal/models"
	"github.com/hageshiame/light-heart/internal/repository"
)

// refreshGrace is how long after expiry a token may still be exchanged
// for a fresh one. Past it the player logs in again.
const refreshGrace = 7 * 24 * time.Hour

// SessionClaims is the JWT payload carried by every authenticated request.
type SessionClaims struct {
	PlayerID string `json:"playerId"`
	jwt.RegisteredClaims
}

type AccountService struct {
	accounts  repository.AccountRepo
	cache     *cache.Strategy
	jwtSecret []byte
	jwtExpire time.Duration

	wechatAppID  string
	wechatSecret string
	httpClient   *http.Client
}

func NewAccountService(
	accounts repository.AccountRepo,
	strategy *cache.Strategy,
	jwtSecret string,
	jwtExpire time.Duration,
	wechatAppID, wechatSecret string,
) *AccountService {
	return &AccountService{
		accounts:     accounts,
		cache:        strategy,
		jwtSecret:    []byte(jwtSecret),
		jwtExpire:    jwtExpire,
		wechatAppID:  wechatAppID,
		wechatSecret: wechatSecret,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Login exchanges a WeChat login code for a session token, creating the
// account on first login.
func (s *AccountService) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	if req.Code == "" {
		return nil, apperr.Validation("MISSING_CODE", "code is required")
	}

	openID, err := s.exchangeCode(ctx, req.Code)
	if err != nil {
		return nil, err
	}

	account, err := s.accounts.FindOrCreateByOpenID(ctx, openID, "", "")
	if err != nil {
		return nil, err
	}

	token, err := s.issueToken(account.ID)
	if err != nil {
		return nil, err
	}

	s.cache.SetJSON(ctx, cache.KeySession(account.ID), token, cache.TTLSession)

	logger.Info("Player %s logged in", account.ID)
	return &model.LoginResponse{SessionToken: token, PlayerID: account.ID}, nil
}

// RefreshToken exchanges a valid or recently expired token for a fresh
// one. A token expired past the grace window forces a new login.
func (s *AccountService) RefreshToken(ctx context.Context, token string) (*model.RefreshTokenResponse, error) {
	claims, err := s.parseToken(token, true)
	if err != nil {
		return nil, err
	}
	if claims.ExpiresAt != nil && time.Since(claims.ExpiresAt.Time) > refreshGrace {
		return nil, apperr.Auth("TOKEN_EXPIRED", "token expired too long ago, log in again")
	}

	// The account must still exist; a deleted player cannot refresh.
	if _, err := s.accounts.GetByID(ctx, claims.PlayerID); err != nil {
		return nil, err
	}

	fresh, err := s.issueToken(claims.PlayerID)
	if err != nil {
		return nil, err
	}
	s.cache.SetJSON(ctx, cache.KeySession(claims.PlayerID), fresh, cache.TTLSession)

	return &model.RefreshTokenResponse{SessionToken: fresh}, nil
}

// Authenticate validates a session token and returns its claims. Expiry
// is enforced; the caller refreshes through RefreshToken.
func (s *AccountService) Authenticate(token string) (*SessionClaims, error) {
	return s.parseToken(token, false)
}

// GetProfile returns the player profile, cache-aside.
func (s *AccountService) GetProfile(ctx context.Context, playerID string) (*model.Account, error) {
	key := cache.KeyPlayerData(playerID)
	var cached model.Account
	if s.cache.GetJSON(ctx, key, &cached) {
		return &cached, nil
	}

	account, err := s.accounts.GetByID(ctx, playerID)
	if err != nil {
		return nil, err
	}
	s.cache.SetJSON(ctx, key, account, cache.TTLPlayerData)
	return account, nil
}

func (s *AccountService) issueToken(playerID string) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		PlayerID: playerID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtExpire)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", apperr.Internal("could not sign session token").Wrap(err)
	}
	return signed, nil
}

func (s *AccountService) parseToken(raw string, allowExpired bool) (*SessionClaims, error) {
	if raw == "" {
		return nil, apperr.Auth("MISSING_TOKEN", "authorization token is required")
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if allowExpired {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}

	var claims SessionClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return s.jwtSecret, nil
	}, opts...)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, apperr.Auth("TOKEN_EXPIRED", "session token has expired")
	default:
		return nil, apperr.Auth("INVALID_TOKEN", "session token is invalid")
	}
	if claims.PlayerID == "" {
		return nil, apperr.Auth("INVALID_TOKEN", "session token is invalid")
	}
	return &claims, nil
}

// exchangeCode resolves a login code to a WeChat openid. Without app
// credentials configured it derives a deterministic development openid
// so the flow works against a local stack.
func (s *AccountService) exchangeCode(ctx context.Context, code string) (string, error) {
	if s.wechatAppID == "" || s.wechatSecret == "" {
		sum := sha256.Sum256([]byte(code))
		return "dev_" + hex.EncodeToString(sum[:8]), nil
	}

	endpoint := fmt.Sprintf(
		"https://api.weixin.qq.com/sns/jscode2session?appid=%s&secret=%s&js_code=%s&grant_type=authorization_code",
		url.QueryEscape(s.wechatAppID), url.QueryEscape(s.wechatSecret), url.QueryEscape(code),
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", apperr.Internal("could not build wechat request").Wrap(err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", apperr.Transient("WECHAT_UNAVAILABLE", "wechat login service unavailable").Wrap(err)
	}
	defer resp.Body.Close()

	var payload struct {
		OpenID  string `json:"openid"`
		ErrCode int    `json:"errcode"`
		ErrMsg  string `json:"errmsg"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", apperr.Transient("WECHAT_UNAVAILABLE", "wechat login response unreadable").Wrap(err)
	}
	if payload.OpenID == "" {
		return "", apperr.Auth("INVALID_CODE", fmt.Sprintf("wechat rejected code: %s", payload.ErrMsg))
	}
	return payload.OpenID, nil
}
