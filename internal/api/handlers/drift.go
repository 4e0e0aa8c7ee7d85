package handlers

import (
	"net/http"
	"time"

	"github.com/wonny/vigil/backend/internal/contracts"
	"github.com/wonny/vigil/backend/internal/report"
	"github.com/wonny/vigil/backend/pkg/logger"
	"github.com/wonny/vigil/backend/pkg/redis"
)

// DriftHandler handles drift analysis API endpoints
// ⭐ SSOT: 드리프트 API 핸들러는 이 구조체에서만
type DriftHandler struct {
	reports  *report.Service
	cache    *redis.Cache
	cacheTTL time.Duration
	logger   *logger.Logger
}

// NewDriftHandler creates a new drift handler. cache는 nil일 수 있다.
func NewDriftHandler(reports *report.Service, cache *redis.Cache, cacheTTL time.Duration, log *logger.Logger) *DriftHandler {
	return &DriftHandler{reports: reports, cache: cache, cacheTTL: cacheTTL, logger: log}
}

// Status returns the standing drift status view
// GET /api/drift/status
func (h *DriftHandler) Status(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.cache != nil {
		var cached contracts.DriftStatus
		err := h.cache.GetOrSet(ctx, redis.DriftStatusKey(), &cached, h.cacheTTL, func() (interface{}, error) {
			return h.reports.DriftStatus(ctx)
		})
		if err == nil {
			respondJSON(w, http.StatusOK, cached)
			return
		}
		h.logger.WithError(err).Warn("Drift status cache failed, computing directly")
	}

	status, err := h.reports.DriftStatus(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to compute drift status")
		respondError(w, http.StatusInternalServerError, "Failed to compute drift status")
		return
	}

	respondJSON(w, http.StatusOK, status)
}

// Unsupervised returns the label-free drift breakdown for one week
// GET /api/drift/unsupervised?week=N
func (h *DriftHandler) Unsupervised(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	week, ok := weekParam(r, 4)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid 'week' parameter")
		return
	}

	resp, err := h.reports.UnsupervisedDrift(ctx, week)
	if err != nil {
		h.logger.WithError(err).Error("Failed to compute unsupervised drift")
		respondError(w, http.StatusInternalServerError, "Failed to compute unsupervised drift")
		return
	}

	respondJSON(w, http.StatusOK, resp)
}
