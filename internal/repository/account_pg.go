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

type AccountPG struct {
	pool *pgxpool.Pool
}

func NewAccountPG(pool *pgxpool.Pool) *AccountPG {
	return &AccountPG{pool: pool}
}

const accountColumns = `
	id, wechat_open_id,
	COALESCE(wechat_nickname, '') AS wechat_nickname,
	COALESCE(wechat_avatar_url, '') AS wechat_avatar_url,
	level, exp, gold, created_at, last_login, last_sync`

func scanAccount(row pgx.Row) (*model.Account, error) {
	var a model.Account
	err := row.Scan(
		&a.ID, &a.WechatOpenID, &a.WechatNickname, &a.WechatAvatarURL,
		&a.Level, &a.Exp, &a.Gold, &a.CreatedAt, &a.LastLogin, &a.LastSync,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("PLAYER_NOT_FOUND", "player not found")
	}
	if err != nil {
		return nil, fmt.Errorf("scan account: %w", err)
	}
	return &a, nil
}

func (r *AccountPG) FindOrCreateByOpenID(ctx context.Context, openID, nickname, avatarURL string) (*model.Account, error) {
	// The upsert refreshes profile fields WeChat may have changed since
	// the last login.
	row := r.pool.QueryRow(ctx, `
		INSERT INTO accounts (wechat_open_id, wechat_nickname, wechat_avatar_url, last_login)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NOW())
		ON CONFLICT (wechat_open_id) DO UPDATE SET
			wechat_nickname   = COALESCE(NULLIF(EXCLUDED.wechat_nickname, ''), accounts.wechat_nickname),
			wechat_avatar_url = COALESCE(NULLIF(EXCLUDED.wechat_avatar_url, ''), accounts.wechat_avatar_url),
			last_login        = NOW()
		RETURNING `+accountColumns,
		openID, nickname, avatarURL,
	)
	return scanAccount(row)
}

func (r *AccountPG) GetByID(ctx context.Context, id string) (*model.Account, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	return scanAccount(row)
}

func (r *AccountPG) GrantRewards(ctx context.Context, playerID string, gold, exp int) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE accounts SET gold = gold + $1, exp = exp + $2 WHERE id = $3
	`, gold, exp, playerID)
	if err != nil {
		return fmt.Errorf("grant rewards: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("PLAYER_NOT_FOUND", "player not found")
	}
	return nil
}

func (r *AccountPG) TouchLogin(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `UPDATE accounts SET last_login = NOW() WHERE id = $1`, id)
	return err
}

func (r *AccountPG) TouchSync(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `UPDATE accounts SET last_sync = NOW() WHERE id = $1`, id)
	return err
}
