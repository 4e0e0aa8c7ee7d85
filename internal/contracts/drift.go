package contracts

// DriftMethod 드리프트 감지 방법
type DriftMethod string

const (
	MethodPSI         DriftMethod = "PSI"
	MethodKS          DriftMethod = "KS"
	MethodWasserstein DriftMethod = "WASSERSTEIN"
)

// DriftLevel 드리프트 심각도 (STABLE < WARNING < MODERATE < CRITICAL)
type DriftLevel string

const (
	LevelStable   DriftLevel = "STABLE"
	LevelWarning  DriftLevel = "WARNING"
	LevelModerate DriftLevel = "MODERATE"
	LevelCritical DriftLevel = "CRITICAL"
)

// Rank 레벨 순서 비교용 (STABLE=0 ... CRITICAL=3)
func (l DriftLevel) Rank() int {
	switch l {
	case LevelStable:
		return 0
	case LevelWarning:
		return 1
	case LevelModerate:
		return 2
	case LevelCritical:
		return 3
	default:
		return -1
	}
}

// AtLeast reports whether l is at or above other in severity.
func (l DriftLevel) AtLeast(other DriftLevel) bool {
	return l.Rank() >= other.Rank()
}

// DriftResult 단일 방법의 비교 결과
// Score는 항상 [0,1] 정규화 값, Statistic은 방법 고유의 원시 통계량
type DriftResult struct {
	Method    DriftMethod            `json:"method"`
	Score     float64                `json:"score"`
	Statistic float64                `json:"statistic"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// PSI interpretation bands (§ PSI 자체 해석 기준, 종합 레벨과는 별개)
const (
	PSIBandModerate    = 0.1
	PSIBandSignificant = 0.25
)

// InterpretPSI returns the PSI-specific interpretation band text.
func InterpretPSI(psi float64) string {
	switch {
	case psi < PSIBandModerate:
		return "no significant change"
	case psi < PSIBandSignificant:
		return "moderate change - monitoring recommended"
	default:
		return "significant change - investigation required"
	}
}
