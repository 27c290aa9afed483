package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	appMigrations "github.com/yigit/resultsphere/internal/app/migrations"
	"github.com/yigit/resultsphere/internal/config"
	"github.com/yigit/resultsphere/internal/db"
	"github.com/yigit/resultsphere/internal/pkg/logger"
)

// DefaultConfigPath is read when no other path is given
var DefaultConfigPath = filepath.Join("configs", "config.yaml")

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger(configPath string) (*config.Config, zerolog.Logger, error) {
	if configPath == "" {
		configPath = DefaultConfigPath
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.ParseLevel(cfg.Logging.Level)
	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: strings.ToLower(cfg.Logging.Format) == "text",
	})

	lgr := logger.Get()
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection and runs migrations.
func SetupDatabase(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*db.PostgresDB, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	migrationsDir := cfg.Database.MigrationsDir
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		database.Close()
		lgr.Error().Str("path", migrationsDir).Msg("Migrations directory not found")
		return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	lgr.Info().Str("path", migrationsDir).Msg("Running database migrations...")
	migrator := appMigrations.NewMigrator(database, lgr)
	if err := migrator.MigrateFromDirectory(ctx, migrationsDir); err != nil {
		database.Close()
		lgr.Error().Err(err).Msg("Database migration error")
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")

	return database, nil
}
