package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ssafy/baperang/backend/internal/api"
	"github.com/ssafy/baperang/backend/pkg/logger"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

Endpoints:
  GET  /health                       - Health check
  GET  /api/students                 - 학생 명단
  GET  /api/students/{id}            - 학생 상세 (BMI, 주간 잔반률)
  PUT  /api/students/{id}/physical   - 키/몸무게 갱신
  POST /api/students/import          - 명단 엑셀 업로드
  GET  /api/menu                     - 식단 달력
  POST /api/menu                     - 식단 게시
  GET  /api/menu/nutrient            - 영양 정보
  POST /api/nfc/tag                  - NFC 태깅
  GET  /api/nfc/students             - 태깅 현황
  POST /api/leftover                 - 잔반 측정 입력
  GET  /api/leftover/daily|weekly|monthly|ranking|preference
  GET  /api/completion               - 급식 완료율
  POST /api/satisfaction/vote        - 만족도 투표
  GET  /api/satisfaction/stream      - 만족도 실시간 (websocket)
  POST /api/inventory                - 재고 기록
  GET  /api/inventory                - 월별 재고

Example:
  go run ./cmd/baperang api
  go run ./cmd/baperang api --port 8080 --with-scheduler`,
	RunE: runAPIServer,
}

var (
	apiPort       string
	withScheduler bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: PORT)")
	apiCmd.Flags().BoolVar(&withScheduler, "with-scheduler", false, "같은 프로세스에서 스케줄러 실행")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== baperang API Server ===")

	// 1. Load config
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Override port if flag is set
	if apiPort != "" {
		cfg.Port = apiPort
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing API server")

	// 3. Wire components
	a, err := newApp(context.Background(), cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	// 4. Create router & server
	router := api.NewRouter(a.httpHandlers(), log)
	server := api.New(cfg, log, router)

	// 5. Optional in-process scheduler
	if withScheduler {
		sched, err := a.scheduler()
		if err != nil {
			return fmt.Errorf("init scheduler: %w", err)
		}
		sched.Start()
		defer sched.Stop()
	}

	// 6. Start server with graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
