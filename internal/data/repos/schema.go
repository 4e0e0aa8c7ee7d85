package repos

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates the monitor schema and tables when missing.
// 기동 시 1회 호출. 이미 있으면 아무것도 하지 않는다.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	statements := []string{
		`CREATE SCHEMA IF NOT EXISTS monitor`,
		`CREATE TABLE IF NOT EXISTS monitor.samples (
			id         BIGSERIAL PRIMARY KEY,
			week       INT NOT NULL,
			amount     DOUBLE PRECISION NOT NULL,
			category   TEXT NOT NULL,
			user_type  TEXT NOT NULL,
			region     TEXT NOT NULL,
			label      INT,
			prediction INT,
			score      DOUBLE PRECISION,
			confidence DOUBLE PRECISION
		)`,
		`CREATE INDEX IF NOT EXISTS idx_samples_week ON monitor.samples (week)`,
		`CREATE TABLE IF NOT EXISTS monitor.baselines (
			id         BIGSERIAL PRIMARY KEY,
			week       INT NOT NULL,
			feature    TEXT NOT NULL,
			mean       DOUBLE PRECISION NOT NULL,
			std        DOUBLE PRECISION NOT NULL,
			histogram  JSONB NOT NULL,
			n          INT NOT NULL,
			accuracy   DOUBLE PRECISION NOT NULL,
			confidence DOUBLE PRECISION NOT NULL,
			subgroups  JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS monitor.prediction_log (
			id            BIGSERIAL PRIMARY KEY,
			ts            TIMESTAMPTZ NOT NULL,
			amount        DOUBLE PRECISION NOT NULL,
			category      TEXT NOT NULL,
			user_type     TEXT NOT NULL,
			region        TEXT NOT NULL,
			week          INT NOT NULL,
			prediction    INT NOT NULL,
			score         DOUBLE PRECISION NOT NULL,
			confidence    DOUBLE PRECISION NOT NULL,
			drift_warning TEXT
		)`,
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure monitor schema: %w", err)
		}
	}

	return nil
}
