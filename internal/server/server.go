package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yigit/resultsphere/internal/bootstrap"
	"github.com/yigit/resultsphere/internal/config"
)

// Server holds the state for the HTTP server.
type Server struct {
	config *config.Config
	router *gin.Engine
	deps   *bootstrap.Dependencies
	logger zerolog.Logger
	http   *http.Server
}

// NewServer creates and initializes a new server instance by calling bootstrap functions.
func NewServer(configPath string) (*Server, error) {
	cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config or setup logger: %w", err)
	}

	deps, err := bootstrap.BuildDependencies(context.Background(), cfg, lgr)
	if err != nil {
		return nil, fmt.Errorf("failed to setup dependencies: %w", err)
	}

	router, err := bootstrap.SetupRouter(cfg, deps, lgr)
	if err != nil {
		_ = deps.Close(context.Background())
		return nil, fmt.Errorf("failed to setup router: %w", err)
	}

	return &Server{
		config: cfg,
		router: router,
		deps:   deps,
		logger: lgr,
	}, nil
}

// Run starts the HTTP server and handles graceful shutdown.
func (s *Server) Run() error {
	s.logger.Info().Str("port", s.config.Server.Port).Msg("Starting server...")

	// Uploads can be slow; the write deadline must cover a full ingestion run
	s.http = &http.Server{
		Addr:              ":" + s.config.Server.Port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.http.Addr).Msg("HTTP server listening")
		serverErrors <- s.http.ListenAndServe()
	}()

	osSignals := make(chan os.Signal, 1)
	signal.Notify(osSignals, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			_ = s.deps.Close(context.Background())
			return fmt.Errorf("error starting server: %w", err)
		}
	case sig := <-osSignals:
		s.logger.Info().Str("signal", sig.String()).Msg("Received OS signal, initiating shutdown...")
	}

	return s.Shutdown(context.Background())
}

// Shutdown gracefully stops the server, waits for queued result emails and closes resources.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var errs []error

	if s.http != nil {
		s.logger.Info().Msg("Shutting down HTTP server...")
		if err := s.http.Shutdown(ctx); err != nil {
			s.logger.Error().Err(err).Msg("HTTP server shutdown error")
			errs = append(errs, err)
		} else {
			s.logger.Info().Msg("HTTP server gracefully stopped.")
		}
	}

	s.logger.Info().Msg("Draining mail queue and closing stores...")
	if err := s.deps.Close(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Dependency shutdown error")
		errs = append(errs, err)
	}

	s.logger.Info().Msg("Server shutdown process complete.")
	if len(errs) > 0 {
		return fmt.Errorf("server shutdown completed with errors: %w", errors.Join(errs...))
	}
	return nil
}
