package model

import "time"

type RescueStatus string

const (
	RescuePending   RescueStatus = "pending"
	RescueCompleted RescueStatus = "completed"
	RescueExpired   RescueStatus = "expired"
	RescueCancelled RescueStatus = "cancelled"
)

// Terminal reports whether no transition may leave this status.
func (s RescueStatus) Terminal() bool {
	return s == RescueCompleted || s == RescueExpired || s == RescueCancelled
}

// RescueRequest is created by a player on battle failure and moves exactly
// once from pending to a terminal state.
type RescueRequest struct {
	ID          string       `json:"id"`
	RequesterID string       `json:"requesterId"`
	RescuerID   *string      `json:"rescuerId,omitempty"`
	MapID       string       `json:"mapId"`
	LostItems   []Item       `json:"lostItems"`
	TotalValue  int          `json:"totalValue"`
	Status      RescueStatus `json:"status"`
	RewardGold  int          `json:"rewardGold"`
	RewardExp   int          `json:"rewardExp"`
	CreatedAt   time.Time    `json:"createdAt"`
	ExpiresAt   time.Time    `json:"expiresAt"`
	CompletedAt *time.Time   `json:"completedAt,omitempty"`
}

type CreateRescueRequest struct {
	PlayerID   string `json:"playerId"`
	MapID      string `json:"mapId"`
	FailedTime int64  `json:"failedTime"`
	LostItems  []Item `json:"lostItems"`
	TotalValue int    `json:"totalValue"`
}

type CreateRescueResponse struct {
	RequestID string    `json:"requestId"`
	RescueURL string    `json:"rescueUrl"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type CompleteRescueRequest struct {
	RequestID     string `json:"requestId"`
	HeroID        string `json:"heroId"`
	CompletedTime int64  `json:"completedTime"`
	Signature     string `json:"signature,omitempty"`
}

type CompleteRescueResponse struct {
	HeroReward     BattleReward `json:"heroReward"`
	RecoveredItems []Item       `json:"recoveredItems"`
}

type CancelRescueRequest struct {
	RequestID string `json:"requestId"`
	PlayerID  string `json:"playerId"`
}

type RescueStats struct {
	TotalRequested int `json:"totalRequested"`
	TotalCompleted int `json:"totalCompleted"`
	TotalRescued   int `json:"totalRescued"`
}
