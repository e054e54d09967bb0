package model

import "time"

// Account is a player account created from the WeChat login exchange.
type Account struct {
	ID              string     `json:"id"`
	WechatOpenID    string     `json:"wechatOpenId"`
	WechatNickname  string     `json:"wechatNickname,omitempty"`
	WechatAvatarURL string     `json:"wechatAvatarUrl,omitempty"`
	Level           int        `json:"level"`
	Exp             int        `json:"exp"`
	Gold            int        `json:"gold"`
	CreatedAt       time.Time  `json:"createdAt"`
	LastLogin       *time.Time `json:"lastLogin,omitempty"`
	LastSync        *time.Time `json:"lastSync,omitempty"`
}

type LoginRequest struct {
	Code          string `json:"code"`
	EncryptedData string `json:"encryptedData,omitempty"`
	IV            string `json:"iv,omitempty"`
}

type LoginResponse struct {
	SessionToken string `json:"sessionToken"`
	PlayerID     string `json:"playerId"`
}

type RefreshTokenResponse struct {
	SessionToken string `json:"sessionToken"`
}
