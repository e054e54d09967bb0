package handler

import (
	"net/http"

	model "github.com/hageshiame/light-heart/internal/models"
	"github.com/hageshiame/light-heart/internal/utils"
)

// WechatLogin exchanges a WeChat login code for a session token.
func (h *Handler) WechatLogin(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}

	resp, err := h.Accounts.Login(r.Context(), &req)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.Success(w, resp)
}

// RefreshToken issues a fresh session token for a valid or recently
// expired one carried in the Authorization header.
func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	resp, err := h.Accounts.RefreshToken(r.Context(), utils.BearerToken(r))
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.Success(w, resp)
}
