package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/alphaforge/internal/api"
	"github.com/wonny/alphaforge/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

Endpoints:
  GET  /health                         - DB / Redis 상태 + 스코어링 설정 해시
  GET  /api/companies/{id}/screening   - 저장된 스크리닝 결과
  POST /api/companies/{id}/screening   - 회사 하나 재스크리닝
  POST /api/screening/run              - 전체 배치 실행 (SCREENING_BATCH_TIMEOUT)
  GET  /api/screening/results          - 결과 목록 (disqualified, min_score)

Example:
  go run ./cmd/alphaforge api
  go run ./cmd/alphaforge api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	screener, hash, err := a.screener()
	if err != nil {
		return err
	}
	batch, err := a.batchRunner(0)
	if err != nil {
		return err
	}

	screeningHandler := handlers.NewScreeningHandler(screener, batch, a.repo, a.cache(), a.log).
		WithBatchTimeout(a.cfg.Screening.BatchTimeout)
	health := api.NewHealth(hash).
		Add("database", a.pingDB).
		Add("redis", a.redis.Ping)

	server := api.New(a.cfg, a.log, api.NewRouter(screeningHandler, health, a.log))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("\n✅ Server running on http://localhost:%s (config %s)\n", a.cfg.Port, hash)
	fmt.Println("\nPress Ctrl+C to stop")

	if err := server.Run(ctx); err != nil {
		return fmt.Errorf("server: %w", err)
	}

	a.log.Info("Server stopped")
	return nil
}
