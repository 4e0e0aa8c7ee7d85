package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/vigil/backend/internal/api"
	"github.com/wonny/vigil/backend/internal/api/handlers"
	"github.com/wonny/vigil/backend/internal/guard"
	"github.com/wonny/vigil/backend/internal/predlog"
	"github.com/wonny/vigil/backend/internal/report"
	"github.com/wonny/vigil/backend/internal/scheduler"
	"github.com/wonny/vigil/backend/internal/scheduler/jobs"
	"github.com/wonny/vigil/backend/pkg/config"
	"github.com/wonny/vigil/backend/pkg/database"
	"github.com/wonny/vigil/backend/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "드리프트 모니터 API 서버 시작",
	Long: `REST API 서버를 시작합니다.

이 명령어는:
- 예측 프록시 + 드리프트 경고 엔드포인트 제공
- 주차별 비교 / 서브그룹 / 비지도 드리프트 리포트 제공
- 웹소켓 상태 스트림 제공
- 주기적 드리프트 분석 잡 실행

Endpoints:
  GET  /health                 - Health check
  POST /api/predict            - 예측 + 드리프트 경고
  GET  /api/drift/status       - 예측 로그 기반 드리프트 상태
  GET  /api/drift/unsupervised - 라벨 없는 드리프트 리포트
  GET  /api/drift/stream       - 웹소켓 상태 스트림
  GET  /api/weeks              - 주차별 베이스라인 비교
  GET  /api/degradation        - silent degradation 리포트
  GET  /api/subgroups          - 서브그룹 분해

Example:
  go run ./cmd/vigil api
  go run ./cmd/vigil api --port 8090`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: PORT env)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Vigil Drift Monitor API ===")

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Override port if flag is set
	if apiPort != "" {
		cfg.Port = apiPort
	}

	// 2. Initialize logger
	log := newLogger(cfg)

	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing drift monitor API")

	// 3. Connect to database and ensure the monitor schema
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

	log.WithField("baseline_week", core.Baseline.Week).Info("Baseline profile ready")

	// 4. Connect to Redis (optional, cache + rate limiting)
	rdb, err := redis.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer rdb.Close()

	cache := redis.NewCache(rdb, "vigil")
	if rdb.Enabled() {
		log.Info("Redis cache enabled")
	}

	// 5. Create the prediction log: in-memory hot path mirrored to Postgres
	zl := log.Zerolog()
	hot := predlog.NewMemoryStore(zl)
	logStore := predlog.NewTeeStore(hot, core.LogRepo, zl)

	// 6. Create the model runner (+ rate limiter when Redis is up)
	runner := newModelRunner(cfg, log, rdb)

	// 7. Create prediction guard and report service
	pg := guard.NewGuard(core.Baseline, core.Thresholds, runner, logStore, zl)
	reports := report.NewService(core.Baseline, core.Thresholds, core.Samples, logStore, zl)

	// 8. Create handlers
	hub := handlers.NewStatusHub()
	h := api.Handlers{
		Predict:  handlers.NewPredictHandler(pg, hub.Notify, log),
		Drift:    handlers.NewDriftHandler(reports, cache, cfg.Monitor.CacheTTL, log),
		Weeks:    handlers.NewWeeksHandler(reports, cache, cfg.Monitor.CacheTTL, log),
		Subgroup: handlers.NewSubgroupHandler(reports, log),
		Admin:    handlers.NewAdminHandler(reports, log),
		Stream:   handlers.NewStreamHandler(reports, hub, log),
	}

	// 9. Create router and server
	router := api.NewRouter(h, cfg.AdminKey, db, log)
	server := api.New(cfg, log, router)

	// 10. Start the analysis scheduler
	sched := scheduler.New(log)
	if err := sched.AddJob(jobs.NewDriftAnalysisJob(reports, cache, cfg.Monitor.AnalyzeSchedule, log)); err != nil {
		return fmt.Errorf("register analysis job: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	// 11. Start server with graceful shutdown
	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("\nAvailable endpoints:")
	fmt.Println("  GET  /health")
	fmt.Println("  POST /api/predict")
	fmt.Println("  GET  /api/drift/status")
	fmt.Println("  GET  /api/drift/unsupervised")
	fmt.Println("  GET  /api/drift/stream")
	fmt.Println("  GET  /api/weeks")
	fmt.Println("  GET  /api/degradation")
	fmt.Println("  GET  /api/subgroups")
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
