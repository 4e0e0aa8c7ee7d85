package drift

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/vigil/backend/internal/contracts"
)

func results(psi, ks, w float64) []contracts.DriftResult {
	return []contracts.DriftResult{
		{Method: contracts.MethodPSI, Score: psi},
		{Method: contracts.MethodKS, Score: ks},
		{Method: contracts.MethodWasserstein, Score: w},
	}
}

func TestScore_LevelBands(t *testing.T) {
	s := NewScorer(contracts.DefaultThresholds())

	tests := []struct {
		name  string
		score float64
		want  contracts.DriftLevel
	}{
		{"zero", 0.0, contracts.LevelStable},
		{"just below warning", 0.19, contracts.LevelStable},
		{"warning boundary", 0.2, contracts.LevelWarning},
		{"just below moderate", 0.39, contracts.LevelWarning},
		{"moderate boundary", 0.4, contracts.LevelModerate},
		{"just below critical", 0.59, contracts.LevelModerate},
		{"critical boundary", 0.6, contracts.LevelCritical},
		{"max", 1.0, contracts.LevelCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// 세 방법 모두 같은 정규화 점수면 가중합도 같은 값
			score, level := s.Score(results(tt.score, tt.score, tt.score))
			assert.InDelta(t, tt.score, score, 1e-9)
			assert.Equal(t, tt.want, level)
		})
	}
}

func TestScore_WeightedCombination(t *testing.T) {
	s := NewScorer(contracts.DefaultThresholds())

	// 0.4*1.0 + 0.3*0.0 + 0.3*0.0 = 0.4 -> MODERATE
	score, level := s.Score(results(1.0, 0.0, 0.0))
	assert.InDelta(t, 0.4, score, 1e-9)
	assert.Equal(t, contracts.LevelModerate, level)
}

func TestScore_AlwaysInRange(t *testing.T) {
	s := NewScorer(contracts.DefaultThresholds())

	// 점수가 범위를 벗어난 입력도 [0,1]로 클램프된다
	score, level := s.Score(results(5.0, 3.0, -1.0))
	assert.GreaterOrEqual(t, score, 0.0)
	assert.LessOrEqual(t, score, 1.0)
	assert.NotEqual(t, -1, level.Rank())
}

func TestScore_PartialResults(t *testing.T) {
	s := NewScorer(contracts.DefaultThresholds())

	// 일부 방법만 있으면 존재하는 가중치로 재정규화
	score, level := s.Score([]contracts.DriftResult{
		{Method: contracts.MethodPSI, Score: 0.8},
	})
	assert.InDelta(t, 0.8, score, 1e-9)
	assert.Equal(t, contracts.LevelCritical, level)
}

func TestScore_Deterministic(t *testing.T) {
	s := NewScorer(contracts.DefaultThresholds())
	in := results(0.3, 0.5, 0.7)

	s1, l1 := s.Score(in)
	s2, l2 := s.Score(in)
	assert.Equal(t, s1, s2)
	assert.Equal(t, l1, l2)
}

func TestScore_EndToEndStable(t *testing.T) {
	// 표본이 동일하면 종합 판정은 STABLE이어야 한다
	c := NewComparator(contracts.DefaultThresholds(), zerolog.Nop())
	s := NewScorer(contracts.DefaultThresholds())

	base := normalSample(500, 100, 20, 7)
	cmp, err := c.Compare(base, base)
	require.NoError(t, err)

	score, level := s.Score(c.Results(cmp))
	assert.InDelta(t, 0, score, 1e-9)
	assert.Equal(t, contracts.LevelStable, level)
}

func TestLevelOrdering(t *testing.T) {
	assert.True(t, contracts.LevelCritical.AtLeast(contracts.LevelModerate))
	assert.True(t, contracts.LevelModerate.AtLeast(contracts.LevelWarning))
	assert.True(t, contracts.LevelWarning.AtLeast(contracts.LevelStable))
	assert.False(t, contracts.LevelStable.AtLeast(contracts.LevelWarning))
}
