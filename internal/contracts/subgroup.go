package contracts

// SubgroupStatus 서브그룹 분석 상태
type SubgroupStatus string

const (
	// SubgroupAnalyzed 표본이 충분해 정상 분석됨
	SubgroupAnalyzed SubgroupStatus = "ANALYZED"
	// SubgroupMissingData 표본 부족. 에러가 아니라 정상적인 결과다.
	// 이 상태에서는 모든 점수 필드가 nil이다 (0이 아니라 부재).
	SubgroupMissingData SubgroupStatus = "MISSING_DATA"
)

// SubgroupResult 서브그룹 하나의 분석 결과
// Status=MISSING_DATA iff 해당 조합의 표본 수가 MinSubgroupN 미만
type SubgroupResult struct {
	Feature       string         `json:"feature"`
	Key           string         `json:"subgroup_key"`
	Value         string         `json:"subgroup_value"`
	Status        SubgroupStatus `json:"status"`
	BaselineCount int            `json:"baseline_count"`
	CurrentCount  int            `json:"current_count"`
	DriftScore    *float64       `json:"drift_score,omitempty"`
	DriftLevel    *DriftLevel    `json:"drift_level,omitempty"`
	BaselineStats *GroupStats    `json:"baseline_stats,omitempty"`
	CurrentStats  *GroupStats    `json:"current_stats,omitempty"`
	Methods       []DriftResult  `json:"methods,omitempty"`
}

// SubgroupSummary 키(category 등) 단위 요약
// 불변식: Analyzed + count(MISSING_DATA) == TotalSubgroups
type SubgroupSummary struct {
	TotalSubgroups int      `json:"total_subgroups"`
	Analyzed       int      `json:"analyzed"`
	AvgDriftScore  *float64 `json:"avg_drift_score,omitempty"`
	MaxDriftScore  *float64 `json:"max_drift_score,omitempty"`
	CriticalCount  int      `json:"critical_count"`
	WarningCount   int      `json:"warning_count"`
	StableCount    int      `json:"stable_count"`
}

// SubgroupKeyReport 카테고리 키 하나의 전체 결과
type SubgroupKeyReport struct {
	Subgroups map[string]SubgroupResult `json:"subgroups"`
	Summary   SubgroupSummary           `json:"summary"`
}

// SubgroupAnalysis 피처 하나에 대한 전체 서브그룹 리포트
// LocalizedBiasDetected: 집계 레벨은 STABLE/WARNING인데 어떤 서브그룹이
// MODERATE 이상이면 true. 집계 지표가 국소 편향을 숨기고 있다는 신호.
type SubgroupAnalysis struct {
	Feature               string                       `json:"feature"`
	Week                  int                          `json:"week"`
	AggregateScore        float64                      `json:"aggregate_score"`
	AggregateLevel        DriftLevel                   `json:"aggregate_level"`
	Keys                  map[string]SubgroupKeyReport `json:"keys"`
	LocalizedBiasDetected bool                         `json:"localized_bias_detected"`
}
