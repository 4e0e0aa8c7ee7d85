package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wonny/vigil/backend/internal/report"
	"github.com/wonny/vigil/backend/pkg/config"
	"github.com/wonny/vigil/backend/pkg/database"
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "주차 배치 드리프트 분석 실행",
	Long: `지정한 주차 배치를 베이스라인과 비교해 전체 리포트를 JSON으로 출력합니다.

리포트 구성:
- weeks:        주차별 스냅샷 + silent degradation 증거
- unsupervised: 라벨 없이 계산한 PSI / KS / Wasserstein 리포트
- subgroups:    범주별 분해 + 정확도
- degradation:  베이스라인 대비 성능 저하 수치

Example:
  go run ./cmd/vigil analyze --week 4`,
	RunE: runAnalyze,
}

var analyzeWeek int

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().IntVar(&analyzeWeek, "week", 4, "분석할 주차")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
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
	core, err := buildCore(ctx, cfg, log, db)
	if err != nil {
		return err
	}

	reports := report.NewService(core.Baseline, core.Thresholds, core.Samples, core.LogRepo, log.Zerolog())

	weeks, err := reports.WeekComparison(ctx)
	if err != nil {
		return fmt.Errorf("week comparison: %w", err)
	}
	unsup, err := reports.UnsupervisedDrift(ctx, analyzeWeek)
	if err != nil {
		return fmt.Errorf("unsupervised drift: %w", err)
	}
	subs, err := reports.Subgroups(ctx, analyzeWeek)
	if err != nil {
		return fmt.Errorf("subgroups: %w", err)
	}
	degr, err := reports.SilentDegradation(ctx, analyzeWeek)
	if err != nil {
		return fmt.Errorf("degradation: %w", err)
	}

	out := map[string]interface{}{
		"week":         analyzeWeek,
		"weeks":        weeks,
		"unsupervised": unsup,
		"subgroups":    subs,
		"degradation":  degr,
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
