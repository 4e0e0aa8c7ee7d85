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

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "드리프트 상태 스냅샷 출력",
	Long: `저장된 예측 로그를 기반으로 현재 드리프트 상태를 JSON으로 출력합니다.

로그가 비어 있으면 status는 "waiting_data"가 됩니다.

Example:
  go run ./cmd/vigil status`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
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

	status, err := reports.DriftStatus(ctx)
	if err != nil {
		return fmt.Errorf("drift status: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(status)
}
