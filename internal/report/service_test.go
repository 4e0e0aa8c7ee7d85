package report

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/vigil/backend/internal/baseline"
	"github.com/wonny/vigil/backend/internal/contracts"
	"github.com/wonny/vigil/backend/internal/predlog"
)

type fakeLoader struct {
	batches map[int]*contracts.SampleBatch
}

func (f *fakeLoader) LoadWeek(_ context.Context, week int) (*contracts.SampleBatch, error) {
	b, ok := f.batches[week]
	if !ok {
		return nil, fmt.Errorf("week %d not found", week)
	}
	return b, nil
}

func (f *fakeLoader) Weeks(_ context.Context) ([]int, error) {
	var weeks []int
	for w := range f.batches {
		weeks = append(weeks, w)
	}
	sort.Ints(weeks)
	return weeks, nil
}

// weekBatch 주차 배치 생성: 금액 중심, 정확도 비율을 지정한다
func weekBatch(week int, amountCenter float64, correctRatio float64) *contracts.SampleBatch {
	const n = 100
	batch := &contracts.SampleBatch{
		Week:        week,
		Features:    map[string][]float64{"amount": make([]float64, n)},
		Categorical: map[string][]string{"category": make([]string, n), "user_type": make([]string, n), "region": make([]string, n)},
	}
	categories := []string{"A", "B", "C"}
	regions := []string{"north", "south"}
	userTypes := []string{"new", "old"}

	correct := int(correctRatio * n)
	for i := 0; i < n; i++ {
		batch.Features["amount"][i] = amountCenter + float64(i%21) - 10
		batch.Categorical["category"][i] = categories[i%3]
		batch.Categorical["user_type"][i] = userTypes[i%2]
		batch.Categorical["region"][i] = regions[i%2]

		pred := contracts.Prediction{Label: i % 2, Confidence: 0.999, Score: 0.999}
		batch.Predictions = append(batch.Predictions, pred)
		if i < correct {
			batch.TrueLabels = append(batch.TrueLabels, pred.Label)
		} else {
			batch.TrueLabels = append(batch.TrueLabels, 1-pred.Label)
		}
	}
	return batch
}

func testService(t *testing.T) (*Service, *fakeLoader, *predlog.MemoryStore) {
	t.Helper()

	loader := &fakeLoader{batches: map[int]*contracts.SampleBatch{
		1: weekBatch(1, 100, 1.0),
		2: weekBatch(2, 110, 0.9),
		3: weekBatch(3, 150, 0.7),
		4: weekBatch(4, 199, 0.486),
	}}

	builder := baseline.NewBuilder(contracts.DefaultThresholds(), zerolog.Nop())
	profile, err := builder.Build(loader.batches[1], DefaultSubgroupKeys)
	require.NoError(t, err)

	store := predlog.NewMemoryStore(zerolog.Nop())
	svc := NewService(profile, contracts.DefaultThresholds(), loader, store, zerolog.Nop())
	return svc, loader, store
}

func TestWeekComparison(t *testing.T) {
	svc, _, _ := testService(t)

	resp, err := svc.WeekComparison(context.Background())
	require.NoError(t, err)
	require.Len(t, resp.Weeks, 4)

	first, last := resp.Weeks[0], resp.Weeks[3]
	assert.Equal(t, 1, first.Week)
	assert.False(t, first.DriftDetected)
	assert.InDelta(t, 1.0, first.Accuracy, 1e-9)

	assert.Equal(t, 4, last.Week)
	assert.True(t, last.DriftDetected)
	assert.InDelta(t, 0.48, last.Accuracy, 0.02)

	// 신뢰도는 그대로, 정확도는 추락: silent degradation의 서명
	assert.True(t, resp.Evidence.ConfidenceStable)
	assert.True(t, resp.Evidence.AccuracyDeclining)
}

func TestDriftStatus_EmptyLog(t *testing.T) {
	svc, _, _ := testService(t)

	status, err := svc.DriftStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "waiting_data", status.Status)
	assert.Nil(t, status.DriftScore)
}

func TestDriftStatus_ShiftedPredictions(t *testing.T) {
	svc, _, store := testService(t)
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		require.NoError(t, store.Append(ctx, contracts.PredictionLogEntry{
			Input:      contracts.FeatureVector{Amount: 200},
			Confidence: 0.999,
		}))
	}

	status, err := svc.DriftStatus(ctx)
	require.NoError(t, err)
	require.NotNil(t, status.DriftLevel)
	assert.Equal(t, contracts.LevelCritical, *status.DriftLevel)
	assert.NotEmpty(t, status.DriftIndicators)
}

func TestSubgroups(t *testing.T) {
	svc, _, _ := testService(t)

	resp, err := svc.Subgroups(context.Background(), 4)
	require.NoError(t, err)
	require.NotNil(t, resp.Analysis)
	assert.Equal(t, "amount", resp.Analysis.Feature)
	assert.Len(t, resp.Analysis.Keys, 3)

	require.NotNil(t, resp.Accuracy)
	north := resp.Accuracy["region"]["north"]
	assert.Equal(t, 50, north.SampleCount)
}

func TestUnsupervisedDrift(t *testing.T) {
	svc, _, _ := testService(t)

	resp, err := svc.UnsupervisedDrift(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, 4, resp.Week)
	assert.Equal(t, 1, resp.BaselineWeek)
	require.Len(t, resp.Methods, 3)

	// 같은 범주 구성이므로 범주 이동은 0에 가깝다
	assert.InDelta(t, 0.0, resp.CategoricalShift["region"], 0.01)

	assert.True(t, resp.OverallLevel.AtLeast(contracts.LevelModerate))
	assert.NotEmpty(t, resp.Interpretation)

	for _, m := range resp.Methods {
		if m.Method == contracts.MethodKS {
			require.NotNil(t, m.PValue)
			require.NotNil(t, m.Significant)
			assert.True(t, *m.Significant)
		}
		if m.Method == contracts.MethodPSI {
			assert.NotEmpty(t, m.Bins)
			assert.NotEmpty(t, m.Interpretation)
		}
	}
}

func TestUnsupervisedDrift_SameWeek(t *testing.T) {
	svc, _, _ := testService(t)

	resp, err := svc.UnsupervisedDrift(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, contracts.LevelStable, resp.OverallLevel)
	assert.InDelta(t, 0.0, resp.OverallScore, 0.05)
}

func TestSilentDegradation(t *testing.T) {
	svc, _, _ := testService(t)

	resp, err := svc.SilentDegradation(context.Background(), 4)
	require.NoError(t, err)

	assert.InDelta(t, 0.514, resp.Degradation.AccuracyDrop, 0.02)
	assert.InDelta(t, 0.0, resp.Degradation.ConfidenceChange, 1e-6)
	assert.InDelta(t, 99.0, resp.Degradation.DataShift, 1.0)

	assert.NotEmpty(t, resp.WhyDangerous)
	assert.NotEmpty(t, resp.DetectionMethods)
}

func TestOverview(t *testing.T) {
	svc, _, store := testService(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, contracts.PredictionLogEntry{
		Input: contracts.FeatureVector{Amount: 100}, Confidence: 0.99,
	}))

	overview, err := svc.Overview(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, overview.TotalPredictions)
	assert.Equal(t, []int{1, 2, 3, 4}, overview.LoadedWeeks)
	assert.Equal(t, 1, overview.BaselineWeek)
	assert.NotEmpty(t, overview.Detectors)

	require.NoError(t, svc.ClearLog(ctx))
	overview, err = svc.Overview(ctx)
	require.NoError(t, err)
	assert.Zero(t, overview.TotalPredictions)
}

func TestTotalVariation(t *testing.T) {
	assert.InDelta(t, 0.0, totalVariation([]string{"a", "b"}, []string{"a", "b"}), 1e-9)
	assert.InDelta(t, 1.0, totalVariation([]string{"a", "a"}, []string{"b", "b"}), 1e-9)
	assert.InDelta(t, 0.5, totalVariation([]string{"a", "a"}, []string{"a", "b"}), 1e-9)
}
