package contracts

import "context"

// BatchLoader loads weekly sample batches
// ⭐ SSOT: 주차 배치 로딩 인터페이스. 코어는 저장 방식에 무관심
type BatchLoader interface {
	LoadWeek(ctx context.Context, week int) (*SampleBatch, error)
	Weeks(ctx context.Context) ([]int, error)
}

// ModelRunner runs the opaque classifier for one feature vector
// ⭐ SSOT: 모델 호출 인터페이스. 코어는 모델 내부를 모른다
type ModelRunner interface {
	Predict(ctx context.Context, features FeatureVector) (*Prediction, error)
}

// LogStore is the append-only prediction log
// Append 실패는 예측 응답을 실패시키면 안 된다 (사이드 채널)
type LogStore interface {
	Append(ctx context.Context, entry PredictionLogEntry) error
	Clear(ctx context.Context) error
	All(ctx context.Context) ([]PredictionLogEntry, error)
}
