package drift

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/vigil/backend/internal/contracts"
)

func testComparator() *Comparator {
	return NewComparator(contracts.DefaultThresholds(), zerolog.Nop())
}

func normalSample(n int, mean, std float64, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	for i := range out {
		out[i] = mean + std*rng.NormFloat64()
	}
	return out
}

func TestCompare_IdenticalSamples(t *testing.T) {
	c := testComparator()
	base := normalSample(500, 100, 20, 1)

	cmp, err := c.Compare(base, base)
	require.NoError(t, err)

	// 동일 표본이면 모든 방법이 드리프트 없음을 보고해야 한다
	assert.InDelta(t, 0, cmp.PSI, 1e-9)
	assert.InDelta(t, 0, cmp.KSStatistic, 1e-9)
	assert.InDelta(t, 1.0, cmp.KSPValue, 1e-6)
	assert.False(t, cmp.KSSignificant)
	assert.InDelta(t, 0, cmp.Wasserstein, 1e-9)
	assert.InDelta(t, 0, cmp.WassersteinNorm, 1e-9)
}

func TestCompare_ShiftedDistribution(t *testing.T) {
	c := testComparator()
	base := normalSample(500, 100, 20, 1)
	shifted := normalSample(500, 200, 20, 2)

	cmp, err := c.Compare(base, shifted)
	require.NoError(t, err)

	// 평균이 5σ 이동했으면 모든 신호가 강하게 떠야 한다
	assert.Greater(t, cmp.PSI, contracts.PSIBandSignificant)
	assert.Greater(t, cmp.KSStatistic, 0.5)
	assert.Less(t, cmp.KSPValue, 0.05)
	assert.True(t, cmp.KSSignificant)
	assert.Greater(t, cmp.WassersteinNorm, 0.2)

	t.Logf("shifted: psi=%.3f ks=%.3f p=%.6f w=%.3f wn=%.3f",
		cmp.PSI, cmp.KSStatistic, cmp.KSPValue, cmp.Wasserstein, cmp.WassersteinNorm)
}

func TestCompare_EmptyInput(t *testing.T) {
	c := testComparator()

	_, err := c.Compare(nil, []float64{1, 2, 3})
	require.Error(t, err)

	var insufficient *contracts.InsufficientDataError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, "baseline", insufficient.Side)

	_, err = c.Compare([]float64{1, 2, 3}, nil)
	require.Error(t, err)
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, "current", insufficient.Side)
}

func TestCompare_ConstantBaseline(t *testing.T) {
	c := testComparator()
	constant := []float64{5, 5, 5, 5, 5, 5}

	// 양쪽 다 같은 값에 상수: 문서화된 특례로 PSI=0
	cmp, err := c.Compare(constant, []float64{5, 5, 5})
	require.NoError(t, err)
	assert.Equal(t, 0.0, cmp.PSI)

	// 기준은 상수인데 현재가 아니면 센티널로 클리핑
	cmp, err = c.Compare(constant, []float64{5, 6, 7})
	require.NoError(t, err)
	assert.Equal(t, contracts.DefaultThresholds().PSIMax, cmp.PSI)
}

func TestCompare_Idempotent(t *testing.T) {
	c := testComparator()
	base := normalSample(300, 100, 20, 3)
	curr := normalSample(300, 130, 25, 4)

	first, err := c.Compare(base, curr)
	require.NoError(t, err)
	second, err := c.Compare(base, curr)
	require.NoError(t, err)

	// 같은 입력이면 비트 단위로 같은 결과. 숨은 상태가 없어야 한다
	assert.Equal(t, first.PSI, second.PSI)
	assert.Equal(t, first.KSStatistic, second.KSStatistic)
	assert.Equal(t, first.KSPValue, second.KSPValue)
	assert.Equal(t, first.Wasserstein, second.Wasserstein)
}

func TestCompare_DoesNotMutateInput(t *testing.T) {
	c := testComparator()
	base := []float64{9, 1, 5, 3, 7}
	curr := []float64{8, 2, 6, 4, 0}

	_, err := c.Compare(base, curr)
	require.NoError(t, err)

	assert.Equal(t, []float64{9, 1, 5, 3, 7}, base)
	assert.Equal(t, []float64{8, 2, 6, 4, 0}, curr)
}

func TestResults_NormalizedScores(t *testing.T) {
	c := testComparator()
	base := normalSample(400, 100, 20, 5)
	curr := normalSample(400, 180, 30, 6)

	cmp, err := c.Compare(base, curr)
	require.NoError(t, err)

	results := c.Results(cmp)
	require.Len(t, results, 3)

	for _, r := range results {
		assert.GreaterOrEqual(t, r.Score, 0.0, "method %s", r.Method)
		assert.LessOrEqual(t, r.Score, 1.0, "method %s", r.Method)
	}

	assert.Equal(t, contracts.MethodPSI, results[0].Method)
	assert.Equal(t, contracts.MethodKS, results[1].Method)
	assert.Equal(t, contracts.MethodWasserstein, results[2].Method)
}

func TestKSPValue_Bounds(t *testing.T) {
	assert.Equal(t, 1.0, ksPValue(0, 100, 100))
	p := ksPValue(0.9, 500, 500)
	assert.GreaterOrEqual(t, p, 0.0)
	assert.Less(t, p, 1e-6)
}

func TestPercentile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5}

	tests := []struct {
		p    float64
		want float64
	}{
		{0, 1},
		{25, 2},
		{50, 3},
		{75, 4},
		{100, 5},
	}

	for _, tt := range tests {
		got := percentile(sorted, tt.p)
		assert.InDelta(t, tt.want, got, 1e-9, "p=%v", tt.p)
	}
}

func TestMeanStdDev(t *testing.T) {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}

	assert.InDelta(t, 5.0, Mean(values), 1e-9)
	assert.InDelta(t, 2.0, StdDev(values), 1e-9)

	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 0.0, StdDev(nil))
}

func TestWasserstein_KnownShift(t *testing.T) {
	// 단순 평행이동: EMD는 이동 거리와 같다
	base := []float64{0, 1, 2, 3, 4}
	curr := []float64{10, 11, 12, 13, 14}

	d, norm := wasserstein(base, curr)
	assert.InDelta(t, 10.0, d, 1e-9)
	assert.False(t, math.IsNaN(norm))
	assert.LessOrEqual(t, norm, 1.0)
}
