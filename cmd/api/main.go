package main

import (
	"os"

	"github.com/yigit/resultsphere/internal/config"
	"github.com/yigit/resultsphere/internal/pkg/logger"
	"github.com/yigit/resultsphere/internal/server"
)

// @title ResultSphere API
// @version 1.0
// @description Grade-sheet ingestion and result lookup for the college result portal
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT token for authorization

func main() {
	srv, err := server.NewServer(config.GetEnv("CONFIG_PATH", ""))
	if err != nil {
		// Default logger from the logger package's init
		logger.Error().Err(err).Msg("Failed to initialize server")
		os.Exit(1)
	}

	if err := srv.Run(); err != nil {
		logger.Error().Err(err).Msg("Server execution failed or shutdown encountered errors")
		os.Exit(1)
	}

	logger.Info().Msg("Application finished gracefully.")
}
