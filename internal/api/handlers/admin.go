package handlers

import (
	"net/http"

	"github.com/wonny/vigil/backend/internal/report"
	"github.com/wonny/vigil/backend/pkg/logger"
)

// AdminHandler handles operator-only endpoints
// 인증은 라우터의 admin 미들웨어가 담당한다.
type AdminHandler struct {
	reports *report.Service
	logger  *logger.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(reports *report.Service, log *logger.Logger) *AdminHandler {
	return &AdminHandler{reports: reports, logger: log}
}

// Overview returns system counters and baseline info
// GET /api/admin/overview
func (h *AdminHandler) Overview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.reports.Overview(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to build admin overview")
		respondError(w, http.StatusInternalServerError, "Failed to build overview")
		return
	}

	respondJSON(w, http.StatusOK, overview)
}

// ClearLogs empties the prediction log
// POST /api/admin/logs/clear
func (h *AdminHandler) ClearLogs(w http.ResponseWriter, r *http.Request) {
	if err := h.reports.ClearLog(r.Context()); err != nil {
		h.logger.WithError(err).Error("Failed to clear prediction log")
		respondError(w, http.StatusInternalServerError, "Failed to clear prediction log")
		return
	}

	h.logger.Info("Prediction log cleared by operator")
	respondJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}
