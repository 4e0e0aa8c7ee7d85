package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/vigil/backend/internal/data/repos"
	"github.com/wonny/vigil/backend/pkg/config"
	"github.com/wonny/vigil/backend/pkg/database"
)

// baselineCmd represents the baseline command
var baselineCmd = &cobra.Command{
	Use:   "baseline",
	Short: "베이스라인 프로파일 생성",
	Long: `지정한 주차 배치에서 베이스라인 프로파일을 만들어 저장합니다.

피처별 mean/std/히스토그램, 정확도, 확신도, 서브그룹 통계를 고정하고
이후 모든 드리프트 비교의 기준으로 사용합니다. 이미 저장된 프로파일이
있어도 덮어씁니다.

Example:
  go run ./cmd/vigil baseline --week 1`,
	RunE: runBaseline,
}

var baselineWeek int

func init() {
	rootCmd.AddCommand(baselineCmd)

	baselineCmd.Flags().IntVar(&baselineWeek, "week", 1, "베이스라인으로 고정할 주차")
}

func runBaseline(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := newLogger(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := repos.EnsureSchema(ctx, db.Pool); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	c := &core{
		Thresholds: newThresholds(cfg),
		Samples:    repos.NewSampleRepository(db.Pool),
		Baselines:  repos.NewBaselineRepository(db.Pool),
		LogRepo:    repos.NewPredictionLogRepository(db.Pool),
	}

	profile, err := rebuildBaseline(ctx, c, baselineWeek, log)
	if err != nil {
		return err
	}

	fmt.Printf("✅ Baseline built from week %d (%d features, accuracy %.4f, confidence %.4f)\n",
		profile.Week, len(profile.Features), profile.Accuracy, profile.Confidence)
	return nil
}
