package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/atlvibes/atl-vibes-views/internal/db"
	"github.com/atlvibes/atl-vibes-views/internal/pkg/background"
	"github.com/atlvibes/atl-vibes-views/internal/pkg/config"
)

// Server holds the dependencies for the HTTP server
type Server struct {
	cfg       *config.Config
	logger    *zap.Logger
	writePool *pgxpool.Pool
	readPool  *pgxpool.Pool
	runner    *background.Runner
	router    http.Handler
}

// New creates a new Server instance with all dependencies
func New(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	s := &Server{
		cfg:    cfg,
		logger: logger,
		runner: background.NewRunner(logger.Named("background"), cfg.Notifications.DetachTimeout),
	}

	ctx := context.Background()
	if err := s.setupDatabase(ctx); err != nil {
		return nil, fmt.Errorf("failed to setup database: %w", err)
	}

	return s, nil
}

// setupDatabase opens the service-role pool, runs migrations with it, and opens the
// anonymous read pool when credentials for it exist.
func (s *Server) setupDatabase(ctx context.Context) error {
	s.logger.Info("Setting up database connection and migrations")
	pg := s.cfg.Repositories.Postgres

	dbConfig, err := database.NewDatabaseConfig(s.cfg, s.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database configuration: %w", err)
	}

	writePool, err := database.Init(dbConfig.ServiceRoleURL, pg.MaxConns, pg.MinConns, s.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize service role pool: %w", err)
	}

	if !database.WaitForDB(ctx, writePool, s.logger) {
		writePool.Close()
		return fmt.Errorf("database did not become ready")
	}
	s.logger.Info("Connected to Postgres",
		zap.String("host", pg.Host),
		zap.String("port", pg.Port),
		zap.String("database", pg.DB))

	if err = database.RunMigrations(dbConfig.ServiceRoleURL, s.logger); err != nil {
		writePool.Close()
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	s.writePool = writePool

	if dbConfig.AnonURL == "" {
		s.logger.Warn("POSTGRES_ANON_PASSWORD not set, public status reads are disabled")
		return nil
	}
	readPool, err := database.Init(dbConfig.AnonURL, pg.MaxConns, pg.MinConns, s.logger)
	if err != nil {
		writePool.Close()
		return fmt.Errorf("failed to initialize anonymous pool: %w", err)
	}
	s.readPool = readPool

	s.logger.Info("Database setup completed successfully")
	return nil
}

// HTTPServer creates and configures the HTTP server
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         ":" + s.cfg.Server.Port,
		Handler:      s.router,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// SetRouter sets the HTTP router/handler
func (s *Server) SetRouter(router http.Handler) {
	s.router = router
}

func (s *Server) WritePool() *pgxpool.Pool {
	return s.writePool
}

// ReadPool returns the anonymous pool, or nil when it is not configured.
func (s *Server) ReadPool() *pgxpool.Pool {
	return s.readPool
}

func (s *Server) Runner() *background.Runner {
	return s.runner
}

func (s *Server) GetLogger() *zap.Logger {
	return s.logger
}

func (s *Server) GetConfig() *config.Config {
	return s.cfg
}

// Close closes all server resources
func (s *Server) Close() {
	if s.readPool != nil {
		s.readPool.Close()
	}
	if s.writePool != nil {
		s.writePool.Close()
	}
}
