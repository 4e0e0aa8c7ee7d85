// Package divergence 주차 간 정확도/신뢰도 괴리 추적
// ⭐ SSOT: silent degradation 판정 로직은 전부 여기서만 수행
package divergence

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/wonny/vigil/backend/internal/contracts"
	"github.com/wonny/vigil/backend/internal/drift"
)

// 신뢰도 변화가 이 폭 이내면 flat으로 본다
const trendFlatBand = 0.01

// 상태 계산에 쓰는 최근 예측 로그 윈도우
const recentWindow = 20

// Tracker compares accuracy against confidence across weekly snapshots
// and derives the standing drift status from the prediction log.
type Tracker struct {
	thresholds contracts.Thresholds
	baseline   *contracts.BaselineProfile
	log        zerolog.Logger
}

func NewTracker(baseline *contracts.BaselineProfile, thresholds contracts.Thresholds, log zerolog.Logger) *Tracker {
	return &Tracker{
		thresholds: thresholds,
		baseline:   baseline,
		log:        log.With().Str("component", "divergence_tracker").Logger(),
	}
}

// Snapshot 라벨이 포함된 배치로부터 주 단위 스냅샷을 만든다.
// level은 해당 주 amount 분포의 종합 드리프트 레벨 (호출자가 계산).
func (t *Tracker) Snapshot(batch *contracts.SampleBatch, level contracts.DriftLevel) contracts.WeekSnapshot {
	n := len(batch.Predictions)
	snap := contracts.WeekSnapshot{
		Week:          batch.Week,
		SampleSize:    batch.Len(),
		DriftDetected: level.AtLeast(contracts.LevelWarning),
	}

	if amounts, ok := batch.Features["amount"]; ok {
		snap.AmountMean = drift.Mean(amounts)
		snap.AmountStd = drift.StdDev(amounts)
	}

	if n == 0 {
		return snap
	}

	positive := 0
	confSum := 0.0
	for _, p := range batch.Predictions {
		if p.Label == 1 {
			positive++
		}
		confSum += p.Confidence
	}
	snap.PredictionRate = float64(positive) / float64(n)
	snap.Confidence = confSum / float64(n)

	if batch.HasLabels() {
		rows := n
		if len(batch.TrueLabels) < rows {
			rows = len(batch.TrueLabels)
		}
		correct, truePositive := 0, 0
		for i := 0; i < rows; i++ {
			if batch.Predictions[i].Label == batch.TrueLabels[i] {
				correct++
			}
			if batch.TrueLabels[i] == 1 {
				truePositive++
			}
		}
		if rows > 0 {
			snap.Accuracy = float64(correct) / float64(rows)
			snap.TrueLabelRate = float64(truePositive) / float64(rows)
		}
	}

	return snap
}

// Degrade 기준 주와 현재 주의 차이를 계산한다. 순수 산술이고 저장하지 않는다.
func (t *Tracker) Degrade(baselineWeek, currentWeek contracts.WeekSnapshot) contracts.DegradationReport {
	return contracts.DegradationReport{
		AccuracyDrop:     baselineWeek.Accuracy - currentWeek.Accuracy,
		ConfidenceChange: currentWeek.Confidence - baselineWeek.Confidence,
		DataShift:        currentWeek.AmountMean - baselineWeek.AmountMean,
	}
}

// Trend 연속된 두 스냅샷의 신뢰도 추세
func (t *Tracker) Trend(prev, curr contracts.WeekSnapshot) contracts.ConfidenceTrend {
	delta := curr.Confidence - prev.Confidence
	switch {
	case delta > trendFlatBand:
		return contracts.TrendRising
	case delta < -trendFlatBand:
		return contracts.TrendFalling
	default:
		return contracts.TrendFlat
	}
}

// TrendOver 스냅샷 시퀀스의 마지막 두 주를 비교한다. 2개 미만이면 flat.
func (t *Tracker) TrendOver(snapshots []contracts.WeekSnapshot) contracts.ConfidenceTrend {
	if len(snapshots) < 2 {
		return contracts.TrendFlat
	}
	return t.Trend(snapshots[len(snapshots)-2], snapshots[len(snapshots)-1])
}

// Status 예측 로그에서 상시 드리프트 상태를 계산한다.
// 로그가 비어 있으면 waiting_data. 점수 필드는 0이 아니라 부재.
func (t *Tracker) Status(entries []contracts.PredictionLogEntry, trend contracts.ConfidenceTrend) contracts.DriftStatus {
	if len(entries) == 0 {
		return contracts.DriftStatus{
			Status:          "waiting_data",
			ConfidenceTrend: trend,
			DriftIndicators: []string{},
		}
	}

	recent := entries
	if len(recent) > recentWindow {
		recent = recent[len(recent)-recentWindow:]
	}

	amountSum, confSum := 0.0, 0.0
	for _, e := range recent {
		amountSum += e.Input.Amount
		confSum += e.Confidence
	}
	n := float64(len(recent))

	return t.statusFrom(amountSum/n, confSum/n, len(recent), trend)
}

// StatusFromWeeks 주 스냅샷 쌍으로 같은 상태 뷰를 계산한다 (배치 분석 경로).
func (t *Tracker) StatusFromWeeks(baselineWeek, currentWeek contracts.WeekSnapshot) contracts.DriftStatus {
	trend := t.Trend(baselineWeek, currentWeek)
	return t.statusFrom(currentWeek.AmountMean, currentWeek.Confidence, currentWeek.SampleSize, trend)
}

// statusFrom 종합 점수 = min(1, 0.3*confDrift + 0.7*min(z/3, 1))
// 지표 규칙은 선언 순서대로 평가하고 절대 중복 제거하지 않는다.
// 두 규칙이 같은 증상을 독립적으로 잡으면 둘 다 나가야 한다.
func (t *Tracker) statusFrom(avgAmount, avgConf float64, n int, trend contracts.ConfidenceTrend) contracts.DriftStatus {
	confDrift := math.Abs(avgConf - t.baseline.Confidence)
	amountZ := zScore(avgAmount, t.baseline.AmountMean, t.baseline.AmountStd)

	score := 0.3*confDrift + 0.7*math.Min(amountZ/3.0, 1.0)
	if score > 1 {
		score = 1
	}
	level := t.thresholds.LevelForScore(score)

	indicators := []string{}
	if amountZ > t.thresholds.GuardModerateZ {
		indicators = append(indicators,
			fmt.Sprintf("amount z-score %.2f exceeds %.0f (baseline mean %.2f, recent mean %.2f)",
				amountZ, t.thresholds.GuardModerateZ, t.baseline.AmountMean, avgAmount))
	}
	if amountZ > t.thresholds.GuardExtremeZ {
		indicators = append(indicators,
			fmt.Sprintf("amount distribution is extremely far from baseline (z=%.2f)", amountZ))
	}
	if confDrift < 0.05 && amountZ > t.thresholds.GuardModerateZ {
		indicators = append(indicators,
			"confidence did not decline despite a shifted input distribution (silent degradation signal)")
	}
	if trend == contracts.TrendRising && amountZ > t.thresholds.GuardModerateZ {
		indicators = append(indicators,
			"confidence is rising while inputs drift away from baseline")
	}

	t.log.Debug().
		Float64("score", score).
		Str("level", string(level)).
		Float64("amount_z", amountZ).
		Float64("conf_drift", confDrift).
		Int("indicators", len(indicators)).
		Msg("drift status computed")

	lvl := level
	return contracts.DriftStatus{
		Status:          statusText(level),
		DriftScore:      &score,
		DriftLevel:      &lvl,
		ConfidenceTrend: trend,
		DriftIndicators: indicators,
		Details: map[string]interface{}{
			"recent_n":         n,
			"avg_amount":       avgAmount,
			"avg_confidence":   avgConf,
			"amount_z":         amountZ,
			"confidence_drift": confDrift,
		},
	}
}

// WhyDangerous silent degradation이 위험한 이유. 고정 서술 목록
func WhyDangerous() []string {
	return []string{
		"model confidence does not decrease alongside accuracy, so dashboards look healthy",
		"no ground truth is available in production, so accuracy collapse is invisible",
		"aggregate metrics can hide subgroup-level failures (localized bias)",
		"input distribution shift silently moves data outside the training regime",
	}
}

// DetectionMethods 사용 가능한 비지도 탐지 기법 목록
func DetectionMethods() []string {
	return []string{
		"Population Stability Index (PSI) on binned feature distributions",
		"Kolmogorov-Smirnov two-sample test with asymptotic p-value",
		"normalized 1-D Wasserstein distance",
		"subgroup decomposition against aggregate drift",
	}
}

func statusText(level contracts.DriftLevel) string {
	switch level {
	case contracts.LevelCritical:
		return "immediate_action"
	case contracts.LevelModerate:
		return "attention_required"
	case contracts.LevelWarning:
		return "monitoring_recommended"
	default:
		return "healthy"
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
	// 상수 기준 분포에서 벗어난 값은 무조건 극단값이다
	return math.Inf(1)
}
