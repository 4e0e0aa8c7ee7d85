package handlers

import (
	"net/http"
	"time"

	"github.com/wonny/vigil/backend/internal/report"
	"github.com/wonny/vigil/backend/pkg/logger"
	"github.com/wonny/vigil/backend/pkg/redis"
)

// WeeksHandler handles week comparison and degradation endpoints
type WeeksHandler struct {
	reports  *report.Service
	cache    *redis.Cache
	cacheTTL time.Duration
	logger   *logger.Logger
}

// NewWeeksHandler creates a new weeks handler. cache는 nil일 수 있다.
func NewWeeksHandler(reports *report.Service, cache *redis.Cache, cacheTTL time.Duration, log *logger.Logger) *WeeksHandler {
	return &WeeksHandler{reports: reports, cache: cache, cacheTTL: cacheTTL, logger: log}
}

// Compare returns per-week snapshots with degradation evidence
// GET /api/weeks
func (h *WeeksHandler) Compare(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.cache != nil {
		var cached report.WeekComparisonResponse
		err := h.cache.GetOrSet(ctx, redis.WeekComparisonKey(), &cached, h.cacheTTL, func() (interface{}, error) {
			return h.reports.WeekComparison(ctx)
		})
		if err == nil {
			respondJSON(w, http.StatusOK, cached)
			return
		}
		h.logger.WithError(err).Warn("Week comparison cache failed, computing directly")
	}

	resp, err := h.reports.WeekComparison(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to compare weeks")
		respondError(w, http.StatusInternalServerError, "Failed to compare weeks")
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

// Degradation returns the silent degradation evidence
// GET /api/degradation?week=N
func (h *WeeksHandler) Degradation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	week, ok := weekParam(r, 4)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid 'week' parameter")
		return
	}

	resp, err := h.reports.SilentDegradation(ctx, week)
	if err != nil {
		h.logger.WithError(err).Error("Failed to compute degradation report")
		respondError(w, http.StatusInternalServerError, "Failed to compute degradation report")
		return
	}

	respondJSON(w, http.StatusOK, resp)
}
