package handler

import (
	"net/http"
	"time"

	"github.com/hageshiame/light-heart/internal/apperr"
	"github.com/hageshiame/light-heart/internal/middleware"
	model "github.com/hageshiame/light-heart/internal/models"
	"github.com/hageshiame/light-heart/internal/utils"
)

// BatchSync stores an auxiliary data snapshot for the authenticated player.
func (h *Handler) BatchSync(w http.ResponseWriter, r *http.Request) {
	var req model.BatchSyncRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}
	if err := middleware.RequireOwnership(r, req.PlayerID); err != nil {
		utils.WriteError(w, err)
		return
	}

	resp, err := h.Syncs.BatchSync(r.Context(), &req)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.Success(w, resp)
}

// PullLatest returns the authenticated player's latest stored snapshot.
func (h *Handler) PullLatest(w http.ResponseWriter, r *http.Request) {
	claims := middleware.PlayerFromContext(r)
	if claims == nil {
		utils.WriteError(w, apperr.Auth("MISSING_TOKEN", "authorization token is required"))
		return
	}

	data, syncedAt, err := h.Syncs.PullLatest(r.Context(), claims.PlayerID)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.Success(w, struct {
		Data     *model.SyncData `json:"data"`
		SyncedAt *time.Time      `json:"syncedAt,omitempty"`
	}{Data: data, SyncedAt: nonZeroTime(syncedAt)})
}

// ReportAnomaly queues an anti-cheat report for deferred processing.
func (h *Handler) ReportAnomaly(w http.ResponseWriter, r *http.Request) {
	var report model.AnomalyReport
	if err := utils.DecodeJSON(r, &report); err != nil {
		utils.WriteError(w, err)
		return
	}
	if err := middleware.RequireOwnership(r, report.PlayerID); err != nil {
		utils.WriteError(w, err)
		return
	}

	if err := h.Syncs.ReportAnomaly(r.Context(), &report); err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.Message(w, "anomaly report queued")
}

func nonZeroTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
