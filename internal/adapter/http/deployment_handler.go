package http

import (
	"encoding/json"
	"net/http"

	"github.com/launchdeck-platform/market-engine/internal/domain"
	"github.com/launchdeck-platform/market-engine/internal/service"
)

type DeploymentHandler struct {
	svc *service.DeployService
}

func NewDeploymentHandler(svc *service.DeployService) *DeploymentHandler {
	return &DeploymentHandler{svc: svc}
}

func (h *DeploymentHandler) Deploy(w http.ResponseWriter, r *http.Request) {
	id, err := appID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		Provider domain.Provider `json:"provider"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, err)
		return
	}
	if req.Provider == "" {
		req.Provider = domain.ProviderVercel
	}
	result, err := h.svc.Deploy(r.Context(), currentUser(r), id, req.Provider)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, result)
}

func (h *DeploymentHandler) Redeploy(w http.ResponseWriter, r *http.Request) {
	id, err := appID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	result, err := h.svc.Redeploy(r.Context(), currentUser(r), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, result)
}

func (h *DeploymentHandler) GetLogs(w http.ResponseWriter, r *http.Request) {
	id, err := appID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	logs, err := h.svc.GetLogs(r.Context(), currentUser(r), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

// Webhook 接收 provider 的部署回调，不走用户鉴权。
func (h *DeploymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	id, err := appID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		Event   string `json:"event"`
		LiveURL string `json:"live_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.svc.HandleWebhook(r.Context(), id, req.Event, req.LiveURL); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"received": req.Event})
}
