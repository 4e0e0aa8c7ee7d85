package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/vigil/backend/internal/report"
	"github.com/wonny/vigil/backend/pkg/logger"
	"github.com/wonny/vigil/backend/pkg/redis"
)

// DriftAnalysisJob runs the weekly batch analysis on a schedule.
// 분석 결과를 로그로 남기고 응답 캐시를 무효화한다.
type DriftAnalysisJob struct {
	reports  *report.Service
	cache    *redis.Cache
	schedule string
	logger   *logger.Logger
}

// NewDriftAnalysisJob creates a new drift analysis job. cache는 nil일 수 있다.
func NewDriftAnalysisJob(reports *report.Service, cache *redis.Cache, schedule string, log *logger.Logger) *DriftAnalysisJob {
	return &DriftAnalysisJob{
		reports:  reports,
		cache:    cache,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *DriftAnalysisJob) Name() string {
	return "drift_analysis"
}

// Schedule returns the configured cron expression
func (j *DriftAnalysisJob) Schedule() string {
	return j.schedule
}

// Run executes the batch analysis across all loaded weeks.
func (j *DriftAnalysisJob) Run(ctx context.Context) error {
	comparison, err := j.reports.WeekComparison(ctx)
	if err != nil {
		return fmt.Errorf("week comparison failed: %w", err)
	}

	drifted := 0
	for _, snap := range comparison.Weeks {
		if snap.DriftDetected {
			drifted++
		}
		j.logger.WithFields(map[string]interface{}{
			"week":        snap.Week,
			"accuracy":    snap.Accuracy,
			"confidence":  snap.Confidence,
			"amount_mean": snap.AmountMean,
			"drift":       snap.DriftDetected,
		}).Info("Weekly snapshot analyzed")
	}

	if comparison.Evidence.ConfidenceStable && comparison.Evidence.AccuracyDeclining {
		j.logger.WithField("weeks_drifted", drifted).
			Warn("Silent degradation signature detected: confidence stable while accuracy declines")
	}

	// 다음 조회가 새 결과를 계산하도록 응답 캐시를 비운다
	if j.cache != nil {
		if err := j.cache.Delete(ctx, redis.DriftStatusKey()); err != nil {
			j.logger.WithError(err).Warn("Failed to invalidate drift status cache")
		}
		if err := j.cache.Delete(ctx, redis.WeekComparisonKey()); err != nil {
			j.logger.WithError(err).Warn("Failed to invalidate week comparison cache")
		}
	}

	return nil
}
