package contracts

// Thresholds 드리프트 판정 임계값 모음
// ⭐ SSOT: 모든 보정 상수는 여기서만. 알고리즘 코드에 숫자를 박지 않는다
type Thresholds struct {
	// PSI binning
	PSIBins int     // quantile bins built from the baseline (기본: 10)
	Epsilon float64 // zero-proportion floor, ln(0) 방지용 (기본: 1e-4)
	PSIMax  float64 // degenerate-distribution sentinel, 정규화 전 클리핑 (기본: 25)

	// Combined score weights (PSI / KS / Wasserstein)
	WeightPSI         float64
	WeightKS          float64
	WeightWasserstein float64
	PSINormScale      float64 // PSI > PSINormScale 은 극단으로 취급 (기본: 0.5)

	// Combined score -> level bands
	WarningScore  float64 // >= 0.2
	ModerateScore float64 // >= 0.4
	CriticalScore float64 // >= 0.6

	// KS significance
	KSAlpha float64 // p < KSAlpha 면 유의미한 차이 (기본: 0.05)

	// PredictionGuard z-score bands
	GuardModerateZ float64 // |z| > 2: moderate deviation
	GuardExtremeZ  float64 // |z| > 3: extreme deviation

	// Subgroup analysis
	MinSubgroupN int // 이보다 적으면 MISSING_DATA (기본: 5)
}

// DefaultThresholds 문서화된 기본 보정값
func DefaultThresholds() Thresholds {
	return Thresholds{
		PSIBins: 10,
		Epsilon: 1e-4,
		PSIMax:  25.0,

		WeightPSI:         0.4,
		WeightKS:          0.3,
		WeightWasserstein: 0.3,
		PSINormScale:      0.5,

		WarningScore:  0.2,
		ModerateScore: 0.4,
		CriticalScore: 0.6,

		KSAlpha: 0.05,

		GuardModerateZ: 2.0,
		GuardExtremeZ:  3.0,

		MinSubgroupN: 5,
	}
}

// LevelForScore maps a combined [0,1] score to its unique drift level.
// 구간은 겹치지도 비지도 않는다: STABLE <0.2, WARNING [0.2,0.4),
// MODERATE [0.4,0.6), CRITICAL >=0.6
func (t Thresholds) LevelForScore(score float64) DriftLevel {
	switch {
	case score >= t.CriticalScore:
		return LevelCritical
	case score >= t.ModerateScore:
		return LevelModerate
	case score >= t.WarningScore:
		return LevelWarning
	default:
		return LevelStable
	}
}
