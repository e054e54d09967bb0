package service

import (
	"context"
	"testing"
	"time"

	"github.com/hageshiame/light-heart/internal/apperr"
	"github.com/hageshiame/light-heart/internal/cache"
	model "github.com/hageshiame/light-heart/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-jwt-secret"

func newAccountFixture(t *testing.T, expire time.Duration, playerIDs ...string) (*AccountService, *fakeAccounts) {
	t.Helper()
	accounts := newFakeAccounts(playerIDs...)
	backend := cache.NewMemory(time.Minute)
	t.Cleanup(func() { backend.Close() })
	svc := NewAccountService(accounts, cache.NewStrategy(backend), testJWTSecret, expire, "", "")
	return svc, accounts
}

func TestLoginCreatesAccountAndToken(t *testing.T) {
	svc, _ := newAccountFixture(t, time.Hour)
	ctx := context.Background()

	resp, err := svc.Login(ctx, &model.LoginRequest{Code: "wx-code-1"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.SessionToken)
	require.NotEmpty(t, resp.PlayerID)

	claims, err := svc.Authenticate(resp.SessionToken)
	require.NoError(t, err)
	assert.Equal(t, resp.PlayerID, claims.PlayerID)

	// The same code resolves to the same account.
	again, err := svc.Login(ctx, &model.LoginRequest{Code: "wx-code-1"})
	require.NoError(t, err)
	assert.Equal(t, resp.PlayerID, again.PlayerID)
}

func TestLoginMissingCode(t *testing.T) {
	svc, _ := newAccountFixture(t, time.Hour)
	_, err := svc.Login(context.Background(), &model.LoginRequest{})
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestAuthenticateRejectsGarbage(t *testing.T) {
	svc, _ := newAccountFixture(t, time.Hour)

	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := svc.Authenticate(token)
		require.Error(t, err)
		assert.Equal(t, apperr.KindAuth, apperr.KindOf(err))
	}
}

func TestAuthenticateExpiredToken(t *testing.T) {
	// Negative expiry issues tokens that are already expired.
	expiredSvc, _ := newAccountFixture(t, -time.Hour)
	resp, err := expiredSvc.Login(context.Background(), &model.LoginRequest{Code: "wx-code"})
	require.NoError(t, err)

	_, err = expiredSvc.Authenticate(resp.SessionToken)
	require.Error(t, err)
	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "TOKEN_EXPIRED", ae.Code)
}

func TestRefreshAcceptsRecentlyExpiredToken(t *testing.T) {
	accounts := newFakeAccounts()
	backend := cache.NewMemory(time.Minute)
	t.Cleanup(func() { backend.Close() })
	strategy := cache.NewStrategy(backend)

	expiredSvc := NewAccountService(accounts, strategy, testJWTSecret, -time.Hour, "", "")
	login, err := expiredSvc.Login(context.Background(), &model.LoginRequest{Code: "wx-code"})
	require.NoError(t, err)

	// Same secret, sane expiry: the fresh token must be usable.
	svc := NewAccountService(accounts, strategy, testJWTSecret, time.Hour, "", "")
	refreshed, err := svc.RefreshToken(context.Background(), login.SessionToken)
	require.NoError(t, err)

	claims, err := svc.Authenticate(refreshed.SessionToken)
	require.NoError(t, err)
	assert.Equal(t, login.PlayerID, claims.PlayerID)
}

func TestRefreshRejectsLongExpiredToken(t *testing.T) {
	accounts := newFakeAccounts()
	backend := cache.NewMemory(time.Minute)
	t.Cleanup(func() { backend.Close() })
	strategy := cache.NewStrategy(backend)

	ancientSvc := NewAccountService(accounts, strategy, testJWTSecret, -(refreshGrace + time.Hour), "", "")
	login, err := ancientSvc.Login(context.Background(), &model.LoginRequest{Code: "wx-code"})
	require.NoError(t, err)

	svc := NewAccountService(accounts, strategy, testJWTSecret, time.Hour, "", "")
	_, err = svc.RefreshToken(context.Background(), login.SessionToken)
	require.Error(t, err)
	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "TOKEN_EXPIRED", ae.Code)
}

func TestRefreshRejectsForgedToken(t *testing.T) {
	svc, _ := newAccountFixture(t, time.Hour)
	otherSvc, _ := newAccountFixture(t, time.Hour)
	otherSvc.jwtSecret = []byte("different-secret")

	login, err := otherSvc.Login(context.Background(), &model.LoginRequest{Code: "wx-code"})
	require.NoError(t, err)

	_, err = svc.RefreshToken(context.Background(), login.SessionToken)
	require.Error(t, err)
	assert.Equal(t, apperr.KindAuth, apperr.KindOf(err))
}

func TestGetProfileCacheAside(t *testing.T) {
	svc, accounts := newAccountFixture(t, time.Hour, "p1")
	ctx := context.Background()

	first, err := svc.GetProfile(ctx, "p1")
	require.NoError(t, err)

	// Mutate behind the cache: the cached copy is served until it is
	// invalidated or expires.
	require.NoError(t, accounts.GrantRewards(ctx, "p1", 100, 0))
	cached, err := svc.GetProfile(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, first.Gold, cached.Gold)
}
