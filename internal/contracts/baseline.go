package contracts

import "time"

// HistogramBin 히스토그램 한 구간 (Edge는 구간 하한)
type HistogramBin struct {
	Edge  float64 `json:"edge"`
	Count int     `json:"count"`
}

// BaselineStats 피처 하나의 기준 통계
// 기동 시 1회 계산되고 이후 절대 변경되지 않는다.
type BaselineStats struct {
	Mean      float64        `json:"mean"`
	Std       float64        `json:"std"`
	Histogram []HistogramBin `json:"histogram"`
	N         int            `json:"n"`
}

// GroupStats 서브그룹 요약 통계
type GroupStats struct {
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Count int     `json:"count"`
}

// BaselineProfile 프로세스 전역 기준 프로파일
// ⭐ 불변 값으로 생성해 모든 컴포넌트에 주입한다. 숨은 싱글턴 금지.
// 불변이므로 락 없이 동시 읽기에 안전하다.
type BaselineProfile struct {
	Week       int                             `json:"week"`
	Features   map[string]BaselineStats        `json:"features"`
	Accuracy   float64                         `json:"accuracy"`
	Confidence float64                         `json:"confidence"`
	AmountMean float64                         `json:"amount_mean"`
	AmountStd  float64                         `json:"amount_std"`
	Subgroups  map[string]map[string]GroupStats `json:"subgroups"` // key -> value -> stats
	CreatedAt  time.Time                       `json:"created_at"`
}

// Feature returns the baseline stats for a named feature.
func (p *BaselineProfile) Feature(name string) (BaselineStats, bool) {
	s, ok := p.Features[name]
	return s, ok
}
