package contracts

// WeekSnapshot 주 단위 평가 스냅샷
// DriftDetected: 해당 주의 종합 드리프트 레벨이 WARNING 이상
type WeekSnapshot struct {
	Week           int     `json:"week"`
	Accuracy       float64 `json:"accuracy"`
	Confidence     float64 `json:"confidence"`
	PredictionRate float64 `json:"prediction_rate"`
	TrueLabelRate  float64 `json:"true_label_rate"`
	AmountMean     float64 `json:"amount_mean"`
	AmountStd      float64 `json:"amount_std"`
	DriftDetected  bool    `json:"drift_detected"`
	SampleSize     int     `json:"sample_size"`
}

// DegradationReport 파생 값. 저장하지 않는다
// AccuracyDrop = baseline.accuracy - current.accuracy
// ConfidenceChange = current.confidence - baseline.confidence
// DataShift = current.amount_mean - baseline.amount_mean
type DegradationReport struct {
	AccuracyDrop     float64 `json:"accuracy_drop"`
	ConfidenceChange float64 `json:"confidence_change"`
	DataShift        float64 `json:"data_shift"`
}

// ConfidenceTrend 연속된 주 스냅샷 간 신뢰도 추세
type ConfidenceTrend string

const (
	TrendRising  ConfidenceTrend = "rising"
	TrendFlat    ConfidenceTrend = "flat"
	TrendFalling ConfidenceTrend = "falling"
)

// DriftStatus 상시 노출되는 드리프트 상태 뷰
// 점수 필드는 데이터가 없으면 nil. 0과 부재를 구분한다.
type DriftStatus struct {
	Status          string                 `json:"status"`
	DriftScore      *float64               `json:"drift_score,omitempty"`
	DriftLevel      *DriftLevel            `json:"drift_level,omitempty"`
	ConfidenceTrend ConfidenceTrend        `json:"confidence_trend"`
	DriftIndicators []string               `json:"drift_indicators"`
	Details         map[string]interface{} `json:"details,omitempty"`
}
