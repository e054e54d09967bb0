package handler

import (
	"net/http"

	"github.com/hageshiame/light-heart/internal/apperr"
	"github.com/hageshiame/light-heart/internal/middleware"
	model "github.com/hageshiame/light-heart/internal/models"
	"github.com/hageshiame/light-heart/internal/utils"
)

// CreateRescueRequest opens a rescue request after a failed battle.
func (h *Handler) CreateRescueRequest(w http.ResponseWriter, r *http.Request) {
	var req model.CreateRescueRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}
	if err := middleware.RequireOwnership(r, req.PlayerID); err != nil {
		utils.WriteError(w, err)
		return
	}

	resp, err := h.Rescues.Create(r.Context(), &req)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.Success(w, resp)
}

// GetRescueTask returns a rescue request so a hero can inspect it before
// attempting the run. Expired requests report their expiry here.
func (h *Handler) GetRescueTask(w http.ResponseWriter, r *http.Request) {
	requestID := r.URL.Query().Get("requestId")
	if requestID == "" {
		utils.WriteError(w, apperr.Validation("MISSING_REQUEST_ID", "requestId is required"))
		return
	}

	rescue, err := h.Rescues.Get(r.Context(), requestID)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.Success(w, rescue)
}

// CompleteRescueTask claims a pending rescue for the authenticated hero.
func (h *Handler) CompleteRescueTask(w http.ResponseWriter, r *http.Request) {
	var req model.CompleteRescueRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}
	if err := middleware.RequireOwnership(r, req.HeroID); err != nil {
		utils.WriteError(w, err)
		return
	}

	resp, err := h.Rescues.Complete(r.Context(), &req)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.Success(w, resp)
}

// CancelRescueRequest withdraws a pending request of the authenticated player.
func (h *Handler) CancelRescueRequest(w http.ResponseWriter, r *http.Request) {
	var req model.CancelRescueRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}
	if err := middleware.RequireOwnership(r, req.PlayerID); err != nil {
		utils.WriteError(w, err)
		return
	}

	if err := h.Rescues.Cancel(r.Context(), &req); err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.Message(w, "rescue request cancelled")
}

// GetPendingRescues lists the authenticated player's open requests.
func (h *Handler) GetPendingRescues(w http.ResponseWriter, r *http.Request) {
	claims := middleware.PlayerFromContext(r)
	if claims == nil {
		utils.WriteError(w, apperr.Auth("MISSING_TOKEN", "authorization token is required"))
		return
	}

	pending, err := h.Rescues.ListPending(r.Context(), claims.PlayerID)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.Success(w, pending)
}

// GetRescueStats reports the authenticated player's lifetime rescue counters.
func (h *Handler) GetRescueStats(w http.ResponseWriter, r *http.Request) {
	claims := middleware.PlayerFromContext(r)
	if claims == nil {
		utils.WriteError(w, apperr.Auth("MISSING_TOKEN", "authorization token is required"))
		return
	}

	stats, err := h.Rescues.Stats(r.Context(), claims.PlayerID)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.Success(w, stats)
}
