package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/hageshiame/light-heart/internal/apperr"
	"github.com/hageshiame/light-heart/internal/middleware"
	model "github.com/hageshiame/light-heart/internal/models"
	"github.com/hageshiame/light-heart/internal/utils"
)

// SubmitScore records a battle result for the authenticated player.
func (h *Handler) SubmitScore(w http.ResponseWriter, r *http.Request) {
	var req model.SubmitScoreRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}
	if err := middleware.RequireOwnership(r, req.PlayerID); err != nil {
		utils.WriteError(w, err)
		return
	}

	resp, err := h.Battles.SubmitScore(r.Context(), &req)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.Success(w, resp)
}

// GetRankings returns one page of a map leaderboard.
func (h *Handler) GetRankings(w http.ResponseWriter, r *http.Request) {
	mapID := r.URL.Query().Get("mapId")
	limit := utils.QueryInt(r, "limit", 50)
	offset := utils.QueryInt(r, "offset", 0)

	resp, err := h.Battles.GetRankings(r.Context(), mapID, limit, offset)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.Success(w, resp)
}

// GetPersonalHistory returns a page of the authenticated player's battle log.
func (h *Handler) GetPersonalHistory(w http.ResponseWriter, r *http.Request) {
	playerID := r.URL.Query().Get("playerId")
	if playerID == "" {
		if claims := middleware.PlayerFromContext(r); claims != nil {
			playerID = claims.PlayerID
		}
	}
	if err := middleware.RequireOwnership(r, playerID); err != nil {
		utils.WriteError(w, err)
		return
	}

	limit := utils.QueryInt(r, "limit", 20)
	offset := utils.QueryInt(r, "offset", 0)

	records, err := h.Battles.GetHistory(r.Context(), playerID, limit, offset)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.Success(w, records)
}

// GetPlayerRank returns a player's rank on one map.
func (h *Handler) GetPlayerRank(w http.ResponseWriter, r *http.Request) {
	playerID := mux.Vars(r)["playerId"]
	mapID := r.URL.Query().Get("mapId")
	if mapID == "" {
		utils.WriteError(w, apperr.Validation("MISSING_MAP_ID", "mapId is required"))
		return
	}

	rank, err := h.Battles.GetPlayerRank(r.Context(), playerID, mapID)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.Success(w, rank)
}
