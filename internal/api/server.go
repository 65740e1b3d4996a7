package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/wonny/alphaforge/pkg/config"
	"github.com/wonny/alphaforge/pkg/logger"
)

const (
	// shutdownTimeout lets an in-flight company screen finish on Ctrl+C
	shutdownTimeout = 30 * time.Second

	// batchWriteSlack covers encoding the batch summary after the run
	batchWriteSlack = 30 * time.Second
)

// Server serves the screening API
// ⭐ SSOT: API 서버 설정은 이 파일에서만
type Server struct {
	httpServer *http.Server
	logger     *logger.Logger
}

// New creates the API server. The write timeout follows SCREENING_BATCH_TIMEOUT
// because POST /api/screening/run answers only after the whole batch.
func New(cfg *config.Config, log *logger.Logger, router http.Handler) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      cfg.Screening.BatchTimeout + batchWriteSlack,
			IdleTimeout:       60 * time.Second,
		},
		logger: log.WithFields(map[string]interface{}{
			"module": "api",
			"env":    cfg.Env,
		}),
	}
}

// WriteTimeout returns the per-response write deadline
func (s *Server) WriteTimeout() time.Duration {
	return s.httpServer.WriteTimeout
}

// Run listens until ctx is canceled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run over an existing listener
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", ln.Addr().String()).Info("Screening API listening")
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down screening API")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	s.logger.Info("Screening API stopped")
	return nil
}
