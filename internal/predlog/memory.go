// Package predlog 예측 로그 저장소
// ⭐ SSOT: 예측 로그의 append/clear는 이 패키지에서만
package predlog

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/wonny/vigil/backend/internal/contracts"
)

// MemoryStore is the in-memory append-only prediction log.
// 핫패스 저장소. 모든 읽기는 복사본을 돌려준다.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []contracts.PredictionLogEntry
	log     zerolog.Logger
}

func NewMemoryStore(log zerolog.Logger) *MemoryStore {
	return &MemoryStore{
		log: log.With().Str("component", "prediction_log").Logger(),
	}
}

// Append adds one entry. O(1) amortized, never blocks on I/O.
func (s *MemoryStore) Append(_ context.Context, entry contracts.PredictionLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, entry)
	return nil
}

// Clear 로그 전체 비우기. 새 슬라이스로 교체한다.
// 진행 중인 All()이 들고 있는 복사본에는 영향이 없다.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	cleared := len(s.entries)
	s.entries = nil
	s.mu.Unlock()

	s.log.Info().Int("cleared", cleared).Msg("prediction log cleared")
	return nil
}

// All returns a copy of every entry in append order.
func (s *MemoryStore) All(_ context.Context) ([]contracts.PredictionLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]contracts.PredictionLogEntry, len(s.entries))
	copy(out, s.entries)
	return out, nil
}

// Len returns the number of logged predictions.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.entries)
}
