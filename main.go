package main

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/atlvibes/atl-vibes-views/internal/pkg/config"
	"github.com/atlvibes/atl-vibes-views/internal/routes"
	"github.com/atlvibes/atl-vibes-views/internal/server"
	"github.com/atlvibes/atl-vibes-views/pkg/logger"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	if err := logger.Init(level, cfg.IsProduction(), zap.String("service", "atl-vibes-views"), zap.String("version", version)); err != nil {
		return err
	}
	l := logger.Log
	defer func() { _ = l.Sync() }()

	otelShutdown, err := server.InitObservability(cfg.Server, version, l)
	if err != nil {
		return err
	}
	defer func() {
		if err := otelShutdown(context.Background()); err != nil {
			l.Error("Failed to shutdown OpenTelemetry", zap.Error(err))
		}
	}()

	srv, err := server.New(cfg, l)
	if err != nil {
		return err
	}
	defer srv.Close()

	deps := routes.Dependencies{
		Config: cfg,
		Writer: srv.WritePool(),
		Runner: srv.Runner(),
	}
	if rp := srv.ReadPool(); rp != nil {
		deps.Reader = rp
	}

	router, err := server.SetupRouter(deps, l)
	if err != nil {
		return err
	}
	srv.SetRouter(router)

	server.StartPprofServer(cfg.Server.PprofAddr, l)

	httpServer := srv.HTTPServer()

	done := make(chan bool, 1)
	go server.GracefulShutdown(httpServer, srv.Runner(), l, done)

	l.Info("Server starting", zap.String("port", cfg.Server.Port), zap.String("env", cfg.Server.Env))
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		l.Error("Server error", zap.Error(err))
		return err
	}

	<-done
	l.Info("Graceful shutdown complete")

	return nil
}
