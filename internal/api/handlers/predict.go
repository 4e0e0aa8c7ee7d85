package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/wonny/vigil/backend/internal/contracts"
	"github.com/wonny/vigil/backend/internal/guard"
	"github.com/wonny/vigil/backend/pkg/logger"
)

// PredictHandler handles single-prediction API endpoints
// ⭐ SSOT: 예측 API 핸들러는 이 구조체에서만
type PredictHandler struct {
	guard  *guard.Guard
	notify func()
	logger *logger.Logger
}

// NewPredictHandler creates a new predict handler.
// notify는 예측이 로그에 남을 때마다 호출된다 (스트림 구독자 깨우기).
func NewPredictHandler(g *guard.Guard, notify func(), log *logger.Logger) *PredictHandler {
	if notify == nil {
		notify = func() {}
	}
	return &PredictHandler{guard: g, notify: notify, logger: log}
}

// Predict runs the model with the real-time drift guard
// POST /api/predict
func (h *PredictHandler) Predict(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var features contracts.FeatureVector
	if err := json.NewDecoder(r.Body).Decode(&features); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.guard.Predict(ctx, features)
	if err != nil {
		h.logger.WithError(err).Error("Prediction failed")
		respondError(w, http.StatusBadGateway, "Prediction failed")
		return
	}

	h.notify()
	respondJSON(w, http.StatusOK, result)
}
