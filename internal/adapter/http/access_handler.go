package http

import (
	"encoding/json"
	"net/http"

	"github.com/launchdeck-platform/market-engine/internal/service"
)

type AccessHandler struct {
	svc *service.AccessService
}

func NewAccessHandler(svc *service.AccessService) *AccessHandler {
	return &AccessHandler{svc: svc}
}

// Launch 签发跳转入口：{url, token}，前端拼接后 redirect。
func (h *AccessHandler) Launch(w http.ResponseWriter, r *http.Request) {
	id, err := appID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	result, err := h.svc.Launch(r.Context(), currentUser(r), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// VerifyToken 是给被托管应用调用的公开端点，不挂用户鉴权。
func (h *AccessHandler) VerifyToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, err)
		return
	}
	result, err := h.svc.VerifyToken(r.Context(), req.Token)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
