package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hageshiame/light-heart/internal/apperr"
	"github.com/hageshiame/light-heart/internal/logger"
	model "github.com/hageshiame/light-heart/internal/models"
	"github.com/hageshiame/light-heart/internal/repository"
)

// JobAnomaly is the deferred job type for anti-cheat anomaly reports.
const JobAnomaly = "anomaly_report"

// auxSyncInterval is the cadence the client is told to come back at.
const auxSyncInterval = 5 * time.Minute

// JobEnqueuer is the slice of the job scheduler the sync service needs.
type JobEnqueuer interface {
	Enqueue(ctx context.Context, jobType string, payload any) (string, error)
}

type SyncService struct {
	accounts repository.AccountRepo
	syncs    repository.SyncRepo
	jobs     JobEnqueuer
}

func NewSyncService(accounts repository.AccountRepo, syncs repository.SyncRepo, jobs JobEnqueuer) *SyncService {
	return &SyncService{accounts: accounts, syncs: syncs, jobs: jobs}
}

// BatchSync stores an auxiliary data snapshot. The payload is opaque; the
// sync layer validates only the envelope and stamps the account.
func (s *SyncService) BatchSync(ctx context.Context, req *model.BatchSyncRequest) (*model.BatchSyncResponse, error) {
	if req.PlayerID == "" {
		return nil, apperr.Validation("MISSING_PLAYER_ID", "playerId is required")
	}
	if _, err := s.accounts.GetByID(ctx, req.PlayerID); err != nil {
		return nil, err
	}

	raw, err := json.Marshal(req.Data)
	if err != nil {
		return nil, apperr.Validation("INVALID_SYNC_DATA", "sync data is not encodable")
	}

	now := time.Now()
	if err := s.syncs.SaveSnapshot(ctx, req.PlayerID, raw, now); err != nil {
		return nil, err
	}
	if err := s.accounts.TouchSync(ctx, req.PlayerID); err != nil {
		return nil, err
	}

	return &model.BatchSyncResponse{SyncedAt: now, NextSyncTime: now.Add(auxSyncInterval)}, nil
}

// PullLatest returns the newest stored snapshot for a player, used by a
// fresh install or a second device to catch up.
func (s *SyncService) PullLatest(ctx context.Context, playerID string) (*model.SyncData, time.Time, error) {
	if playerID == "" {
		return nil, time.Time{}, apperr.Validation("MISSING_PLAYER_ID", "playerId is required")
	}
	if _, err := s.accounts.GetByID(ctx, playerID); err != nil {
		return nil, time.Time{}, err
	}

	raw, syncedAt, err := s.syncs.GetSnapshot(ctx, playerID)
	if err != nil {
		return nil, time.Time{}, err
	}
	if raw == nil {
		return nil, time.Time{}, nil
	}

	var data model.SyncData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, time.Time{}, apperr.Internal("stored sync snapshot is corrupt").Wrap(err)
	}
	return &data, syncedAt, nil
}

// ReportAnomaly accepts an anti-cheat report and defers it to the job
// queue. The endpoint always succeeds once the report is queued; the
// client never blocks on anomaly processing.
func (s *SyncService) ReportAnomaly(ctx context.Context, report *model.AnomalyReport) error {
	switch {
	case report.PlayerID == "":
		return apperr.Validation("MISSING_PLAYER_ID", "playerId is required")
	case report.AnomalyType == "":
		return apperr.Validation("MISSING_ANOMALY_TYPE", "anomalyType is required")
	}
	if report.Timestamp == 0 {
		report.Timestamp = time.Now().UnixMilli()
	}

	if _, err := s.jobs.Enqueue(ctx, JobAnomaly, report); err != nil {
		logger.Warning("Could not enqueue anomaly report for %s: %v", report.PlayerID, err)
		return apperr.Transient("QUEUE_UNAVAILABLE", "anomaly queue unavailable").Wrap(err)
	}
	return nil
}

// AnomalyHandler persists a queued anomaly report. Registered with the
// job scheduler at startup.
func (s *SyncService) AnomalyHandler(ctx context.Context, payload json.RawMessage) error {
	var report model.AnomalyReport
	if err := json.Unmarshal(payload, &report); err != nil {
		return err
	}
	return s.syncs.InsertAnomaly(ctx, &report)
}
