package repos

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/vigil/backend/internal/contracts"
)

// BaselineRepository persists baseline profiles
// ⭐ SSOT: 기준 프로파일 저장/조회는 여기서만
// 피처 하나가 한 행이고 프로파일 공통 필드는 행마다 중복 저장된다.
type BaselineRepository struct {
	pool *pgxpool.Pool
}

// NewBaselineRepository creates a new baseline repository
func NewBaselineRepository(pool *pgxpool.Pool) *BaselineRepository {
	return &BaselineRepository{pool: pool}
}

// Save writes the profile, replacing any previous profile for the week.
func (r *BaselineRepository) Save(ctx context.Context, profile *contracts.BaselineProfile) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM monitor.baselines WHERE week = $1`, profile.Week); err != nil {
		return fmt.Errorf("failed to delete previous baseline: %w", err)
	}

	subgroups, err := json.Marshal(profile.Subgroups)
	if err != nil {
		return fmt.Errorf("failed to marshal subgroups: %w", err)
	}

	query := `
		INSERT INTO monitor.baselines (
			week, feature, mean, std, histogram, n,
			accuracy, confidence, subgroups, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	for name, stats := range profile.Features {
		histogram, err := json.Marshal(stats.Histogram)
		if err != nil {
			return fmt.Errorf("failed to marshal histogram for %s: %w", name, err)
		}

		_, err = tx.Exec(ctx, query,
			profile.Week, name, stats.Mean, stats.Std, histogram, stats.N,
			profile.Accuracy, profile.Confidence, subgroups, profile.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert baseline feature %s: %w", name, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit baseline: %w", err)
	}

	return nil
}

// Latest loads the most recently created profile, or nil when none exists.
func (r *BaselineRepository) Latest(ctx context.Context) (*contracts.BaselineProfile, error) {
	query := `
		SELECT week, feature, mean, std, histogram, n,
		       accuracy, confidence, subgroups, created_at
		FROM monitor.baselines
		WHERE week = (
			SELECT week FROM monitor.baselines ORDER BY created_at DESC LIMIT 1
		)
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query baselines: %w", err)
	}
	defer rows.Close()

	var profile *contracts.BaselineProfile
	for rows.Next() {
		var (
			week, n              int
			feature              string
			mean, std            float64
			accuracy, confidence float64
			histogram, subgroups []byte
			createdAt            time.Time
		)

		if err := rows.Scan(&week, &feature, &mean, &std, &histogram, &n,
			&accuracy, &confidence, &subgroups, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan baseline row: %w", err)
		}

		if profile == nil {
			profile = &contracts.BaselineProfile{
				Week:       week,
				Features:   make(map[string]contracts.BaselineStats),
				Accuracy:   accuracy,
				Confidence: confidence,
				CreatedAt:  createdAt,
			}
			if err := json.Unmarshal(subgroups, &profile.Subgroups); err != nil {
				return nil, fmt.Errorf("failed to unmarshal subgroups: %w", err)
			}
		}

		stats := contracts.BaselineStats{Mean: mean, Std: std, N: n}
		if err := json.Unmarshal(histogram, &stats.Histogram); err != nil {
			return nil, fmt.Errorf("failed to unmarshal histogram for %s: %w", feature, err)
		}
		profile.Features[feature] = stats

		if feature == "amount" {
			profile.AmountMean = mean
			profile.AmountStd = std
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating baseline rows: %w", err)
	}

	return profile, nil
}
