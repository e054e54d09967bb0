package model

import (
	"encoding/json"
	"time"
)

// SyncData is the auxiliary batch payload: characters, equipment and
// achievements are opaque to the sync layer, it only moves them.
type SyncData struct {
	Characters   []json.RawMessage `json:"characters"`
	Equipment    []json.RawMessage `json:"equipment"`
	Achievements []json.RawMessage `json:"achievements"`
	Timestamp    int64             `json:"timestamp"`
}

type BatchSyncRequest struct {
	PlayerID string   `json:"playerId"`
	Data     SyncData `json:"data"`
}

type BatchSyncResponse struct {
	SyncedAt     time.Time `json:"syncedAt"`
	NextSyncTime time.Time `json:"nextSyncTime"`
}

type AnomalyReport struct {
	PlayerID    string          `json:"playerId"`
	AnomalyType string          `json:"anomalyType"`
	Details     json.RawMessage `json:"details,omitempty"`
	Timestamp   int64           `json:"timestamp"`
}
