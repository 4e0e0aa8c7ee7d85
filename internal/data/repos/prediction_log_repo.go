package repos

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/vigil/backend/internal/contracts"
)

// PredictionLogRepository implements contracts.LogStore on Postgres.
// 인메모리 핫패스의 내구성 미러로 쓰인다.
type PredictionLogRepository struct {
	pool *pgxpool.Pool
}

// NewPredictionLogRepository creates a new prediction log repository
func NewPredictionLogRepository(pool *pgxpool.Pool) *PredictionLogRepository {
	return &PredictionLogRepository{pool: pool}
}

// Append inserts one log entry.
func (r *PredictionLogRepository) Append(ctx context.Context, entry contracts.PredictionLogEntry) error {
	query := `
		INSERT INTO monitor.prediction_log (
			ts, amount, category, user_type, region, week,
			prediction, score, confidence, drift_warning
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.pool.Exec(ctx, query,
		entry.Timestamp,
		entry.Input.Amount, entry.Input.Category, entry.Input.UserType,
		entry.Input.Region, entry.Input.Week,
		entry.Prediction, entry.Score, entry.Confidence, entry.DriftWarning,
	)
	if err != nil {
		return fmt.Errorf("failed to insert prediction log entry: %w", err)
	}

	return nil
}

// Clear deletes every logged prediction.
func (r *PredictionLogRepository) Clear(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM monitor.prediction_log`); err != nil {
		return fmt.Errorf("failed to clear prediction log: %w", err)
	}
	return nil
}

// All returns every entry in insertion order.
func (r *PredictionLogRepository) All(ctx context.Context) ([]contracts.PredictionLogEntry, error) {
	query := `
		SELECT ts, amount, category, user_type, region, week,
		       prediction, score, confidence, drift_warning
		FROM monitor.prediction_log
		ORDER BY ts, id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query prediction log: %w", err)
	}
	defer rows.Close()

	var entries []contracts.PredictionLogEntry
	for rows.Next() {
		var e contracts.PredictionLogEntry
		if err := rows.Scan(&e.Timestamp,
			&e.Input.Amount, &e.Input.Category, &e.Input.UserType,
			&e.Input.Region, &e.Input.Week,
			&e.Prediction, &e.Score, &e.Confidence, &e.DriftWarning); err != nil {
			return nil, fmt.Errorf("failed to scan prediction log row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating prediction log rows: %w", err)
	}

	return entries, nil
}
