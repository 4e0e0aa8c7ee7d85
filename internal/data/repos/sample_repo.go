package repos

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/vigil/backend/internal/contracts"
)

// SampleRepository implements contracts.BatchLoader
// ⭐ SSOT: 주차 샘플 데이터 저장/조회는 여기서만
type SampleRepository struct {
	pool *pgxpool.Pool
}

// NewSampleRepository creates a new sample repository
func NewSampleRepository(pool *pgxpool.Pool) *SampleRepository {
	return &SampleRepository{pool: pool}
}

// LoadWeek loads one week of samples into a batch.
// 행은 컬럼 단위로 같은 인덱스에 정렬되어 들어간다.
func (r *SampleRepository) LoadWeek(ctx context.Context, week int) (*contracts.SampleBatch, error) {
	query := `
		SELECT
			amount, category, user_type, region,
			label, prediction, score, confidence
		FROM monitor.samples
		WHERE week = $1
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query, week)
	if err != nil {
		return nil, fmt.Errorf("failed to query samples for week %d: %w", week, err)
	}
	defer rows.Close()

	batch := &contracts.SampleBatch{
		Week:        week,
		Features:    map[string][]float64{"amount": nil},
		Categorical: map[string][]string{"category": nil, "user_type": nil, "region": nil},
	}

	hasLabels := true
	for rows.Next() {
		var (
			amount                      float64
			category, userType, region  string
			label, prediction           *int
			score, confidence           *float64
		)

		if err := rows.Scan(&amount, &category, &userType, &region,
			&label, &prediction, &score, &confidence); err != nil {
			return nil, fmt.Errorf("failed to scan sample row: %w", err)
		}

		batch.Features["amount"] = append(batch.Features["amount"], amount)
		batch.Categorical["category"] = append(batch.Categorical["category"], category)
		batch.Categorical["user_type"] = append(batch.Categorical["user_type"], userType)
		batch.Categorical["region"] = append(batch.Categorical["region"], region)

		pred := contracts.Prediction{}
		if prediction != nil {
			pred.Label = *prediction
		}
		if score != nil {
			pred.Score = *score
		}
		if confidence != nil {
			pred.Confidence = *confidence
		}
		batch.Predictions = append(batch.Predictions, pred)

		// 라벨이 하나라도 빠지면 그 주 전체를 무라벨로 취급한다
		if label == nil {
			hasLabels = false
		} else if hasLabels {
			batch.TrueLabels = append(batch.TrueLabels, *label)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sample rows: %w", err)
	}

	if !hasLabels {
		batch.TrueLabels = nil
	}

	if batch.Len() == 0 {
		return nil, contracts.NewInsufficientDataError(fmt.Sprintf("week %d", week), 0)
	}

	return batch, nil
}

// Weeks returns the distinct weeks present, ascending.
func (r *SampleRepository) Weeks(ctx context.Context) ([]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT week FROM monitor.samples ORDER BY week`)
	if err != nil {
		return nil, fmt.Errorf("failed to query weeks: %w", err)
	}
	defer rows.Close()

	var weeks []int
	for rows.Next() {
		var w int
		if err := rows.Scan(&w); err != nil {
			return nil, fmt.Errorf("failed to scan week: %w", err)
		}
		weeks = append(weeks, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating weeks: %w", err)
	}

	return weeks, nil
}

// SaveBatch inserts a whole batch with a single pgx batch round trip.
func (r *SampleRepository) SaveBatch(ctx context.Context, batch *contracts.SampleBatch) error {
	query := `
		INSERT INTO monitor.samples (
			week, amount, category, user_type, region,
			label, prediction, score, confidence
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	amounts := batch.Features["amount"]
	pgxBatch := &pgx.Batch{}
	for i := 0; i < batch.Len(); i++ {
		var label *int
		if batch.HasLabels() && i < len(batch.TrueLabels) {
			label = &batch.TrueLabels[i]
		}

		var prediction *int
		var score, confidence *float64
		if i < len(batch.Predictions) {
			p := batch.Predictions[i]
			prediction, score, confidence = &p.Label, &p.Score, &p.Confidence
		}

		pgxBatch.Queue(query,
			batch.Week, amounts[i],
			batch.Categorical["category"][i],
			batch.Categorical["user_type"][i],
			batch.Categorical["region"][i],
			label, prediction, score, confidence,
		)
	}

	results := r.pool.SendBatch(ctx, pgxBatch)
	defer results.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to insert sample %d of week %d: %w", i, batch.Week, err)
		}
	}

	return nil
}
