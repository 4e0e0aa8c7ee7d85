package handlers

import (
	"errors"
	"net/http"

	"github.com/wonny/vigil/backend/internal/contracts"
	"github.com/wonny/vigil/backend/internal/report"
	"github.com/wonny/vigil/backend/pkg/logger"
)

// SubgroupHandler handles subgroup analysis endpoints
type SubgroupHandler struct {
	reports *report.Service
	logger  *logger.Logger
}

// NewSubgroupHandler creates a new subgroup handler
func NewSubgroupHandler(reports *report.Service, log *logger.Logger) *SubgroupHandler {
	return &SubgroupHandler{reports: reports, logger: log}
}

// Analyze returns the per-subgroup drift report for one week
// GET /api/subgroups?week=N
func (h *SubgroupHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	week, ok := weekParam(r, 4)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid 'week' parameter")
		return
	}

	resp, err := h.reports.Subgroups(ctx, week)
	if err != nil {
		var insufficient *contracts.InsufficientDataError
		if errors.As(err, &insufficient) {
			respondError(w, http.StatusUnprocessableEntity, insufficient.Error())
			return
		}
		h.logger.WithError(err).Error("Failed to analyze subgroups")
		respondError(w, http.StatusInternalServerError, "Failed to analyze subgroups")
		return
	}

	respondJSON(w, http.StatusOK, resp)
}
