// Package report 대시보드 응답 조립
// 계산 결과를 외부 응답 모양으로 바꾸는 것 외의 연산은 하지 않는다.
// 값이 없는 선택 필드는 0으로 채우지 않고 생략한다.
package report

import (
	"github.com/wonny/vigil/backend/internal/contracts"
	"github.com/wonny/vigil/backend/internal/drift"
	"github.com/wonny/vigil/backend/internal/subgroup"
)

// DegradationEvidence summarizes the silent-degradation signature across weeks.
type DegradationEvidence struct {
	ConfidenceStable  bool `json:"confidence_stable"`
	AccuracyDeclining bool `json:"accuracy_declining"`
}

// WeekComparisonResponse is the /api/weeks payload.
type WeekComparisonResponse struct {
	Weeks    []contracts.WeekSnapshot `json:"weeks"`
	Evidence DegradationEvidence      `json:"evidence"`
}

// MethodBreakdown is one detector's detail block.
type MethodBreakdown struct {
	Method         contracts.DriftMethod `json:"method"`
	Score          float64               `json:"score"`
	Statistic      float64               `json:"statistic"`
	PValue         *float64              `json:"p_value,omitempty"`
	Significant    *bool                 `json:"significant,omitempty"`
	Interpretation string                `json:"interpretation,omitempty"`
	Bins           []drift.PSIBin        `json:"bins,omitempty"`
}

// UnsupervisedDriftResponse is the /api/drift/unsupervised payload.
type UnsupervisedDriftResponse struct {
	Week             int                  `json:"week"`
	BaselineWeek     int                  `json:"baseline_week"`
	Feature          string               `json:"feature"`
	Methods          []MethodBreakdown    `json:"methods"`
	CategoricalShift map[string]float64   `json:"categorical_shift"`
	OverallScore     float64              `json:"overall_score"`
	OverallLevel     contracts.DriftLevel `json:"overall_level"`
	Interpretation   string               `json:"interpretation"`
}

// SubgroupResponse is the /api/subgroups payload.
type SubgroupResponse struct {
	Analysis *contracts.SubgroupAnalysis                  `json:"analysis"`
	Accuracy map[string]map[string]subgroup.AccuracyEntry `json:"subgroup_accuracy,omitempty"`
}

// SilentDegradationResponse is the /api/degradation payload.
type SilentDegradationResponse struct {
	Baseline         contracts.WeekSnapshot      `json:"baseline"`
	Current          contracts.WeekSnapshot      `json:"current"`
	Degradation      contracts.DegradationReport `json:"degradation"`
	WhyDangerous     []string                    `json:"why_this_is_dangerous"`
	DetectionMethods []string                    `json:"detection_methods"`
}

// AdminOverview is the /api/admin/overview payload.
type AdminOverview struct {
	TotalPredictions int      `json:"total_predictions"`
	LoadedWeeks      []int    `json:"loaded_weeks"`
	BaselineWeek     int      `json:"baseline_week"`
	BaselineAccuracy float64  `json:"baseline_accuracy"`
	BaselineCreated  string   `json:"baseline_created"`
	Detectors        []string `json:"detectors"`
}
