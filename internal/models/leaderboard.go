package model

import "time"

type LeaderboardEntry struct {
	Rank      int       `json:"rank"`
	PlayerID  string    `json:"playerId"`
	Nickname  string    `json:"nickname"`
	Score     int       `json:"score"`
	MapID     string    `json:"mapId"`
	Timestamp time.Time `json:"timestamp"`
}

type RankingsResponse struct {
	Rankings []LeaderboardEntry `json:"rankings"`
	Total    int                `json:"total"`
	Limit    int                `json:"limit"`
	Offset   int                `json:"offset"`
}

type PlayerRank struct {
	PlayerID string `json:"playerId"`
	MapID    string `json:"mapId"`
	Rank     int    `json:"rank"`
	Score    int    `json:"score"`
}
