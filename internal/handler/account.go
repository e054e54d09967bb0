package handler

import (
	"net/http"

	"github.com/hageshiame/light-heart/internal/apperr"
	"github.com/hageshiame/light-heart/internal/middleware"
	"github.com/hageshiame/light-heart/internal/utils"
)

// Me returns the authenticated player's profile.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	claims := middleware.PlayerFromContext(r)
	if claims == nil {
		utils.WriteError(w, apperr.Auth("MISSING_TOKEN", "authorization token is required"))
		return
	}

	account, err := h.Accounts.GetProfile(r.Context(), claims.PlayerID)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.Success(w, account)
}
