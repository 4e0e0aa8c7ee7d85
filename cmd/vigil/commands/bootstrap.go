package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/vigil/backend/internal/baseline"
	"github.com/wonny/vigil/backend/internal/contracts"
	"github.com/wonny/vigil/backend/internal/data/repos"
	"github.com/wonny/vigil/backend/internal/model"
	"github.com/wonny/vigil/backend/internal/report"
	"github.com/wonny/vigil/backend/pkg/config"
	"github.com/wonny/vigil/backend/pkg/database"
	"github.com/wonny/vigil/backend/pkg/httputil"
	"github.com/wonny/vigil/backend/pkg/logger"
	"github.com/wonny/vigil/backend/pkg/redis"
)

// core holds the pieces every command needs: calibrated thresholds,
// the persisted (or freshly built) baseline profile, and the repositories.
type core struct {
	Thresholds contracts.Thresholds
	Baseline   *contracts.BaselineProfile
	Samples    *repos.SampleRepository
	Baselines  *repos.BaselineRepository
	LogRepo    *repos.PredictionLogRepository
}

func newLogger(cfg *config.Config) *logger.Logger {
	if verbose {
		cfg.LogLevel = "debug"
	}
	return logger.New(cfg)
}

// newThresholds applies the monitor calibration overrides on top of the defaults.
func newThresholds(cfg *config.Config) contracts.Thresholds {
	th := contracts.DefaultThresholds()
	th.PSIBins = cfg.Monitor.PSIBins
	th.MinSubgroupN = cfg.Monitor.MinSubgroupN
	return th
}

// buildCore prepares the schema, repositories and baseline profile.
// 베이스라인이 저장돼 있으면 그것을 쓰고, 없으면 BASELINE_WEEK 배치로 새로 만든다.
func buildCore(ctx context.Context, cfg *config.Config, log *logger.Logger, db *database.DB) (*core, error) {
	if err := repos.EnsureSchema(ctx, db.Pool); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	c := &core{
		Thresholds: newThresholds(cfg),
		Samples:    repos.NewSampleRepository(db.Pool),
		Baselines:  repos.NewBaselineRepository(db.Pool),
		LogRepo:    repos.NewPredictionLogRepository(db.Pool),
	}

	profile, err := c.Baselines.Latest(ctx)
	if err != nil {
		return nil, fmt.Errorf("load baseline: %w", err)
	}
	if profile == nil {
		profile, err = rebuildBaseline(ctx, c, cfg.Monitor.BaselineWeek, log)
		if err != nil {
			return nil, err
		}
	}
	c.Baseline = profile

	return c, nil
}

// rebuildBaseline builds the profile from the given week's batch and persists it.
func rebuildBaseline(ctx context.Context, c *core, week int, log *logger.Logger) (*contracts.BaselineProfile, error) {
	batch, err := c.Samples.LoadWeek(ctx, week)
	if err != nil {
		return nil, fmt.Errorf("load baseline week %d: %w", week, err)
	}

	builder := baseline.NewBuilder(c.Thresholds, log.Zerolog())
	profile, err := builder.Build(batch, report.DefaultSubgroupKeys)
	if err != nil {
		return nil, fmt.Errorf("build baseline: %w", err)
	}

	if err := c.Baselines.Save(ctx, profile); err != nil {
		return nil, fmt.Errorf("save baseline: %w", err)
	}

	log.WithFields(map[string]interface{}{
		"week": profile.Week,
		"n":    batch.Len(),
	}).Info("Baseline profile built and saved")

	return profile, nil
}

// newModelRunner picks the remote model service when configured,
// falling back to the built-in local classifier.
func newModelRunner(cfg *config.Config, log *logger.Logger, rdb *redis.Client) contracts.ModelRunner {
	if cfg.Model.BaseURL == "" {
		log.Info("MODEL_BASE_URL not set, using local classifier")
		return model.NewLocalRunner()
	}

	client := httputil.NewWithTimeout(cfg, log, cfg.Model.Timeout)
	if rdb != nil && rdb.Enabled() {
		limit := redis.RateLimitConfig{
			Key:    redis.ModelRateLimit.Key,
			Limit:  cfg.Model.RateLimit,
			Window: time.Second,
		}
		client = client.WithRateLimiter(redis.NewRateLimiter(rdb, "vigil"), limit)
	} else {
		client = client.WithLocalRateLimit(cfg.Model.RateLimit)
	}

	return model.NewRemoteRunner(cfg.Model.BaseURL, client, log.Zerolog())
}
