package server

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/atlvibes/atl-vibes-views/internal/pkg/background"
)

// GracefulShutdown stops accepting requests on SIGINT/SIGTERM, then gives detached
// tasks (notifications) a bounded window to finish.
func GracefulShutdown(srv *http.Server, runner *background.Runner, logger *zap.Logger, done chan bool) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info("Shutting down gracefully, press Ctrl+C again to force")

	stop() // Allow Ctrl+C to force shutdown

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	if runner != nil {
		if err := runner.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Detached tasks still running at shutdown", zap.Error(err))
		}
	}

	logger.Info("Server exiting")

	done <- true
}
