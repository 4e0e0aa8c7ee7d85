package contracts

import "time"

// Prediction 모델 출력 (불투명 분류기의 결과)
type Prediction struct {
	Label      int     `json:"label"`
	Score      float64 `json:"score"`      // probability of class 1
	Confidence float64 `json:"confidence"` // max class probability
}

// FeatureVector 단일 예측 요청의 입력 특징
type FeatureVector struct {
	Amount   float64 `json:"amount"`
	Category string  `json:"category"`  // A, B, C
	UserType string  `json:"user_type"` // new, old
	Region   string  `json:"region"`    // north, south
	Week     int     `json:"week"`
}

// SampleBatch 한 주(또는 임시 요청)의 분석 대상 배치
// 생성 이후 불변. 외부 데이터 로딩 협력자가 만들어 준다.
type SampleBatch struct {
	Week        int                  `json:"week"`
	Features    map[string][]float64 `json:"features"`
	Categorical map[string][]string  `json:"categorical"`
	Predictions []Prediction         `json:"predictions"`
	TrueLabels  []int                `json:"true_labels,omitempty"` // nil when ground truth is unavailable
}

// Len returns the row count of the batch (first feature column length).
func (b *SampleBatch) Len() int {
	for _, vals := range b.Features {
		return len(vals)
	}
	for _, vals := range b.Categorical {
		return len(vals)
	}
	return 0
}

// HasLabels reports whether ground-truth labels are present.
func (b *SampleBatch) HasLabels() bool {
	return len(b.TrueLabels) > 0
}

// PredictionLogEntry 예측 로그 한 건 (append-only)
type PredictionLogEntry struct {
	Timestamp    time.Time     `json:"timestamp"`
	Input        FeatureVector `json:"input"`
	Prediction   int           `json:"prediction"`
	Score        float64       `json:"score"`
	Confidence   float64       `json:"confidence"`
	DriftWarning *string       `json:"drift_warning,omitempty"`
}
