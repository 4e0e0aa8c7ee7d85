package predlog

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/wonny/vigil/backend/internal/contracts"
)

const mirrorTimeout = 5 * time.Second

// TeeStore writes to the in-memory hot path synchronously and mirrors
// each entry to a durable store off the critical path.
// 미러 실패는 예측 응답에 절대 전파되지 않는다.
type TeeStore struct {
	hot     *MemoryStore
	durable contracts.LogStore
	log     zerolog.Logger
}

func NewTeeStore(hot *MemoryStore, durable contracts.LogStore, log zerolog.Logger) *TeeStore {
	return &TeeStore{
		hot:     hot,
		durable: durable,
		log:     log.With().Str("component", "prediction_log_tee").Logger(),
	}
}

func (t *TeeStore) Append(ctx context.Context, entry contracts.PredictionLogEntry) error {
	if err := t.hot.Append(ctx, entry); err != nil {
		return err
	}

	// 요청 컨텍스트와 분리된 타임아웃으로 비동기 미러링
	go func() {
		mctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
		defer cancel()

		if err := t.durable.Append(mctx, entry); err != nil {
			t.log.Warn().Err(err).Msg("durable prediction log append failed")
		}
	}()

	return nil
}

// Clear empties both stores. The durable side is best effort.
func (t *TeeStore) Clear(ctx context.Context) error {
	if err := t.hot.Clear(ctx); err != nil {
		return err
	}
	if err := t.durable.Clear(ctx); err != nil {
		t.log.Warn().Err(err).Msg("durable prediction log clear failed")
	}
	return nil
}

// All reads from the hot path only.
func (t *TeeStore) All(ctx context.Context) ([]contracts.PredictionLogEntry, error) {
	return t.hot.All(ctx)
}
