package drift

import (
	"math"

	"github.com/wonny/vigil/backend/internal/contracts"
)

// Scorer 방법별 결과를 하나의 점수와 레벨로 종합한다
// 결정적이고 순수하다: 숨은 상태 없음.
type Scorer struct {
	thresholds contracts.Thresholds
}

// NewScorer 새 스코어러 생성
func NewScorer(thresholds contracts.Thresholds) *Scorer {
	return &Scorer{thresholds: thresholds}
}

// Score combines per-method normalized scores into one [0,1] score and level.
// 결합 규칙은 가중합 (PSI 0.4 / KS 0.3 / Wasserstein 0.3). 보정 선택이며
// Thresholds에 기록되어 있다. 점수 대역과 PSI 자체 해석 대역은 별개다.
func (s *Scorer) Score(results []contracts.DriftResult) (float64, contracts.DriftLevel) {
	var combined float64
	var weightSum float64

	for _, r := range results {
		w := s.weight(r.Method)
		if w == 0 {
			continue
		}
		combined += w * clamp01(r.Score)
		weightSum += w
	}

	// Missing methods: renormalize over the weights actually present so a
	// partial result set still maps onto [0,1].
	if weightSum > 0 && weightSum < 1 {
		combined /= weightSum
	}

	combined = clamp01(combined)
	return combined, s.thresholds.LevelForScore(combined)
}

func (s *Scorer) weight(m contracts.DriftMethod) float64 {
	switch m {
	case contracts.MethodPSI:
		return s.thresholds.WeightPSI
	case contracts.MethodKS:
		return s.thresholds.WeightKS
	case contracts.MethodWasserstein:
		return s.thresholds.WeightWasserstein
	default:
		return 0
	}
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
