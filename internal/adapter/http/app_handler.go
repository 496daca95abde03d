package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/launchdeck-platform/market-engine/internal/domain"
	"github.com/launchdeck-platform/market-engine/internal/service"
)

type AppHandler struct {
	svc *service.AppService
}

func NewAppHandler(svc *service.AppService) *AppHandler {
	return &AppHandler{svc: svc}
}

// appID 解析路径里的 {id}。非数字一律按 not found 处理。
func appID(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, domain.ErrAppNotFound
	}
	return uint(id), nil
}

func (h *AppHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateAppRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, err)
		return
	}
	app, err := h.svc.CreateApp(r.Context(), currentUser(r), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, app)
}

func (h *AppHandler) List(w http.ResponseWriter, r *http.Request) {
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	apps, err := h.svc.ListApps(r.Context(), currentUser(r), offset, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apps)
}

func (h *AppHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := appID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	app, err := h.svc.GetApp(r.Context(), currentUser(r), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (h *AppHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := appID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req service.UpdateAppRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, err)
		return
	}
	app, err := h.svc.UpdateApp(r.Context(), currentUser(r), id, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (h *AppHandler) UpdatePricing(w http.ResponseWriter, r *http.Request) {
	id, err := appID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req service.PricingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, err)
		return
	}
	app, err := h.svc.UpdatePricing(r.Context(), currentUser(r), id, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (h *AppHandler) UpdateStep(w http.ResponseWriter, r *http.Request) {
	id, err := appID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		Step int `json:"step"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, err)
		return
	}
	app, err := h.svc.UpdateStep(r.Context(), currentUser(r), id, req.Step)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

// UploadSource 接收 multipart 表单里的 file 字段（ZIP）。
func (h *AppHandler) UploadSource(w http.ResponseWriter, r *http.Request) {
	id, err := appID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, domain.ErrInvalidInput)
		return
	}
	defer file.Close()

	result, err := h.svc.UploadSource(r.Context(), currentUser(r), id, file)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *AppHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := appID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.svc.DeleteApp(r.Context(), currentUser(r), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint{"deleted": id})
}
