package model

import "time"

// MaxScore bounds a single battle score; anything above is rejected as
// out of range before the signature check.
const MaxScore = 1_000_000

// BattleRecord is one accepted score submission. Records are append-only:
// a resubmission creates a new row, the leaderboard takes the best score.
type BattleRecord struct {
	ID              string    `json:"id"`
	PlayerID        string    `json:"playerId"`
	MapID           string    `json:"mapId"`
	Score           int       `json:"score"`
	DamageDealt     int       `json:"damageDealt"`
	DamageReceived  int       `json:"damageReceived"`
	ClearTime       int       `json:"clearTime"`
	ExtractSuccess  bool      `json:"extractSuccess"`
	Signature       string    `json:"signature,omitempty"`
	ClientTimestamp int64     `json:"clientTimestamp,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

type SubmitScoreRequest struct {
	PlayerID        string `json:"playerId"`
	MapID           string `json:"mapId"`
	Score           int    `json:"score"`
	DamageDealt     int    `json:"damageDealt"`
	DamageReceived  int    `json:"damageReceived"`
	ClearTime       int    `json:"clearTime"`
	ExtractSuccess  bool   `json:"extractSuccess"`
	Signature       string `json:"signature,omitempty"`
	ClientTimestamp int64  `json:"clientTimestamp,omitempty"`
}

type SubmitScoreResponse struct {
	Rank    int          `json:"rank"`
	Rewards BattleReward `json:"rewards"`
}

type BattleReward struct {
	Gold int `json:"gold"`
	Exp  int `json:"exp"`
}

// Item is a carried or lost inventory item.
type Item struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Value int    `json:"value"`
	Count int    `json:"count"`
}
