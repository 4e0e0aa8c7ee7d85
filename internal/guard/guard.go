// Package guard 요청 단위 실시간 드리프트 가드
// 배치 분석과 독립적으로 예측 한 건마다 기준 분포 대비 z-score를 검사한다.
package guard

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/wonny/vigil/backend/internal/contracts"
)

// Result is the per-request prediction envelope returned to callers.
type Result struct {
	Prediction   int       `json:"prediction"`
	Score        float64   `json:"score"`
	Confidence   float64   `json:"confidence"`
	Timestamp    time.Time `json:"timestamp"`
	DriftWarning *string   `json:"drift_warning,omitempty"`
}

// Guard scores a single input against the baseline and attaches a drift
// warning when the input is statistically extreme.
// 호출 간 공유 상태는 읽기 전용 BaselineProfile뿐이다.
type Guard struct {
	baseline   *contracts.BaselineProfile
	thresholds contracts.Thresholds
	runner     contracts.ModelRunner
	store      contracts.LogStore
	log        zerolog.Logger
}

func NewGuard(
	baseline *contracts.BaselineProfile,
	thresholds contracts.Thresholds,
	runner contracts.ModelRunner,
	store contracts.LogStore,
	log zerolog.Logger,
) *Guard {
	return &Guard{
		baseline:   baseline,
		thresholds: thresholds,
		runner:     runner,
		store:      store,
		log:        log.With().Str("component", "prediction_guard").Logger(),
	}
}

// Predict 모델을 호출하고 드리프트 경고를 붙인 뒤 로그에 남긴다.
// 로그 기록 실패는 사이드 채널이므로 응답을 실패시키지 않는다.
func (g *Guard) Predict(ctx context.Context, features contracts.FeatureVector) (*Result, error) {
	pred, err := g.runner.Predict(ctx, features)
	if err != nil {
		return nil, fmt.Errorf("model predict: %w", err)
	}

	result := &Result{
		Prediction:   pred.Label,
		Score:        pred.Score,
		Confidence:   pred.Confidence,
		Timestamp:    time.Now().UTC(),
		DriftWarning: g.Warning(features.Amount),
	}

	entry := contracts.PredictionLogEntry{
		Timestamp:    result.Timestamp,
		Input:        features,
		Prediction:   result.Prediction,
		Score:        result.Score,
		Confidence:   result.Confidence,
		DriftWarning: result.DriftWarning,
	}
	if err := g.store.Append(ctx, entry); err != nil {
		g.log.Warn().Err(err).Msg("prediction log append failed")
	}

	return result, nil
}

// Warning z-score 정책 평가
// |z| > 3: extreme, 2 < |z| <= 3: moderate, |z| <= 2: 경고 없음 (빈 문자열이 아니라 nil)
func (g *Guard) Warning(amount float64) *string {
	stats, ok := g.baseline.Feature("amount")
	mean, std := g.baseline.AmountMean, g.baseline.AmountStd
	if ok {
		mean, std = stats.Mean, stats.Std
	}

	z := zScore(amount, mean, std)
	switch {
	case z > g.thresholds.GuardExtremeZ:
		w := fmt.Sprintf("extreme deviation from baseline distribution (z=%.2f, baseline mean=%.2f)", z, mean)
		return &w
	case z > g.thresholds.GuardModerateZ:
		w := fmt.Sprintf("moderate deviation from baseline (z=%.2f)", z)
		return &w
	default:
		return nil
	}
}

func zScore(value, mean, std float64) float64 {
	diff := math.Abs(value - mean)
	if std > 0 {
		return diff / std
	}
	if diff == 0 {
		return 0
	}
	return math.Inf(1)
}
