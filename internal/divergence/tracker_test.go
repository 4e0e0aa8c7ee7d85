package divergence

import (
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/vigil/backend/internal/contracts"
)

func testBaseline() *contracts.BaselineProfile {
	return &contracts.BaselineProfile{
		Week:       1,
		Accuracy:   1.0,
		Confidence: 0.999,
		AmountMean: 100.14,
		AmountStd:  15.0,
		CreatedAt:  time.Now(),
	}
}

func testTracker() *Tracker {
	return NewTracker(testBaseline(), contracts.DefaultThresholds(), zerolog.Nop())
}

func TestDegrade_ReferenceFigures(t *testing.T) {
	tr := testTracker()

	week1 := contracts.WeekSnapshot{Week: 1, Accuracy: 1.0, Confidence: 0.999, AmountMean: 100.14}
	week4 := contracts.WeekSnapshot{Week: 4, Accuracy: 0.486, Confidence: 0.999, AmountMean: 199.30}

	report := tr.Degrade(week1, week4)
	assert.InDelta(t, 0.514, report.AccuracyDrop, 1e-9)
	assert.InDelta(t, 0.0, report.ConfidenceChange, 1e-9)
	assert.InDelta(t, 99.16, report.DataShift, 1e-9)
}

func TestStatusFromWeeks_SilentDegradation(t *testing.T) {
	tr := testTracker()

	week1 := contracts.WeekSnapshot{Week: 1, Accuracy: 1.0, Confidence: 0.999, AmountMean: 100.14, SampleSize: 500}
	week4 := contracts.WeekSnapshot{Week: 4, Accuracy: 0.486, Confidence: 0.999, AmountMean: 199.30, SampleSize: 500}

	status := tr.StatusFromWeeks(week1, week4)

	require.NotNil(t, status.DriftLevel)
	assert.Equal(t, contracts.LevelCritical, *status.DriftLevel)
	assert.Equal(t, "immediate_action", status.Status)
	require.NotNil(t, status.DriftScore)
	// confDrift=0, z=99.16/15>3 → 0.3*0 + 0.7*1
	assert.InDelta(t, 0.7, *status.DriftScore, 1e-9)

	require.NotEmpty(t, status.DriftIndicators)
	found := false
	for _, ind := range status.DriftIndicators {
		if strings.Contains(ind, "confidence did not decline") {
			found = true
		}
	}
	assert.True(t, found, "expected a 'confidence did not decline' indicator, got %v", status.DriftIndicators)
}

func TestStatus_EmptyLog(t *testing.T) {
	tr := testTracker()

	status := tr.Status(nil, contracts.TrendFlat)
	assert.Equal(t, "waiting_data", status.Status)
	assert.Nil(t, status.DriftScore)
	assert.Nil(t, status.DriftLevel)
	assert.NotNil(t, status.DriftIndicators)
	assert.Empty(t, status.DriftIndicators)
}

func TestStatus_HealthyLog(t *testing.T) {
	tr := testTracker()

	var entries []contracts.PredictionLogEntry
	for i := 0; i < 30; i++ {
		entries = append(entries, contracts.PredictionLogEntry{
			Input:      contracts.FeatureVector{Amount: 100 + float64(i%5)},
			Confidence: 0.99,
		})
	}

	status := tr.Status(entries, contracts.TrendFlat)
	assert.Equal(t, "healthy", status.Status)
	require.NotNil(t, status.DriftLevel)
	assert.Equal(t, contracts.LevelStable, *status.DriftLevel)
	assert.Empty(t, status.DriftIndicators)
	assert.Equal(t, recentWindow, status.Details["recent_n"])
}

func TestStatus_IndicatorsNotDeduplicated(t *testing.T) {
	tr := testTracker()

	// z > 3이면 moderate 규칙과 extreme 규칙이 둘 다 발화해야 한다
	entries := []contracts.PredictionLogEntry{
		{Input: contracts.FeatureVector{Amount: 300}, Confidence: 0.999},
	}

	status := tr.Status(entries, contracts.TrendFlat)
	assert.GreaterOrEqual(t, len(status.DriftIndicators), 2)
}

func TestStatus_ConstantBaselineStd(t *testing.T) {
	baseline := testBaseline()
	baseline.AmountStd = 0
	tr := NewTracker(baseline, contracts.DefaultThresholds(), zerolog.Nop())

	// 기준 분포가 상수일 때 같은 값은 z=0, 다른 값은 극단
	same := tr.Status([]contracts.PredictionLogEntry{
		{Input: contracts.FeatureVector{Amount: 100.14}, Confidence: 0.999},
	}, contracts.TrendFlat)
	assert.Equal(t, "healthy", same.Status)

	moved := tr.Status([]contracts.PredictionLogEntry{
		{Input: contracts.FeatureVector{Amount: 101}, Confidence: 0.999},
	}, contracts.TrendFlat)
	require.NotNil(t, moved.DriftLevel)
	assert.Equal(t, contracts.LevelCritical, *moved.DriftLevel)
}

func TestTrend(t *testing.T) {
	tr := testTracker()

	base := contracts.WeekSnapshot{Confidence: 0.95}
	assert.Equal(t, contracts.TrendRising, tr.Trend(base, contracts.WeekSnapshot{Confidence: 0.97}))
	assert.Equal(t, contracts.TrendFalling, tr.Trend(base, contracts.WeekSnapshot{Confidence: 0.92}))
	assert.Equal(t, contracts.TrendFlat, tr.Trend(base, contracts.WeekSnapshot{Confidence: 0.955}))
}

func TestTrendOver(t *testing.T) {
	tr := testTracker()

	assert.Equal(t, contracts.TrendFlat, tr.TrendOver(nil))
	assert.Equal(t, contracts.TrendFlat, tr.TrendOver([]contracts.WeekSnapshot{{Confidence: 0.9}}))

	snaps := []contracts.WeekSnapshot{
		{Week: 1, Confidence: 0.90},
		{Week: 2, Confidence: 0.95},
		{Week: 3, Confidence: 0.80},
	}
	assert.Equal(t, contracts.TrendFalling, tr.TrendOver(snaps))
}

func TestSnapshot(t *testing.T) {
	tr := testTracker()

	batch := &contracts.SampleBatch{
		Week:     4,
		Features: map[string][]float64{"amount": {90, 100, 110, 100}},
		Predictions: []contracts.Prediction{
			{Label: 1, Confidence: 0.99},
			{Label: 0, Confidence: 0.97},
			{Label: 1, Confidence: 0.98},
			{Label: 1, Confidence: 0.98},
		},
		TrueLabels: []int{1, 0, 0, 0},
	}

	snap := tr.Snapshot(batch, contracts.LevelModerate)
	assert.Equal(t, 4, snap.Week)
	assert.Equal(t, 4, snap.SampleSize)
	assert.True(t, snap.DriftDetected)
	assert.InDelta(t, 0.5, snap.Accuracy, 1e-9)
	assert.InDelta(t, 0.75, snap.PredictionRate, 1e-9)
	assert.InDelta(t, 0.25, snap.TrueLabelRate, 1e-9)
	assert.InDelta(t, 100.0, snap.AmountMean, 1e-9)
	assert.InDelta(t, 0.98, snap.Confidence, 1e-9)
}

func TestSnapshot_NoLabels(t *testing.T) {
	tr := testTracker()

	batch := &contracts.SampleBatch{
		Week:        2,
		Features:    map[string][]float64{"amount": {100, 100}},
		Predictions: []contracts.Prediction{{Label: 1, Confidence: 0.9}, {Label: 1, Confidence: 0.9}},
	}

	snap := tr.Snapshot(batch, contracts.LevelStable)
	assert.False(t, snap.DriftDetected)
	assert.Zero(t, snap.Accuracy)
	assert.Zero(t, snap.TrueLabelRate)
	assert.InDelta(t, 1.0, snap.PredictionRate, 1e-9)
}

func TestNarrativeLists(t *testing.T) {
	why := WhyDangerous()
	require.NotEmpty(t, why)
	assert.Contains(t, strings.Join(why, " "), "confidence does not decrease")

	methods := DetectionMethods()
	assert.Len(t, methods, 4)
}
