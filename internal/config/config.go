package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Store drivers
const (
	StoreDriverPostgres = "postgres"
	StoreDriverDynamoDB = "dynamodb"
	StoreDriverMemory   = "memory"
)

// Archive drivers
const (
	ArchiveDriverLocal = "local"
	ArchiveDriverS3    = "s3"
	ArchiveDriverNone  = "none"
)

// Mail drivers
const (
	MailDriverSMTP     = "smtp"
	MailDriverSendGrid = "sendgrid"
	MailDriverLog      = "log"
)

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port           string `yaml:"port" env:"SERVER_PORT"`
		Mode           string `yaml:"mode" env:"SERVER_MODE"`
		RequestTimeout string `yaml:"request_timeout" env:"SERVER_REQUEST_TIMEOUT"`
	} `yaml:"server"`

	Database struct {
		Host            string `yaml:"host" env:"DB_HOST"`
		Port            string `yaml:"port" env:"DB_PORT"`
		User            string `yaml:"user" env:"DB_USER"`
		Password        string `yaml:"password" env:"DB_PASSWORD"`
		DBName          string `yaml:"dbname" env:"DB_NAME"`
		SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE"`
		MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
		MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
		MigrationsDir   string `yaml:"migrations_dir" env:"DB_MIGRATIONS_DIR"`
	} `yaml:"database"`

	JWT struct {
		Secret                 string `yaml:"secret" env:"JWT_SECRET"`
		AccessTokenExpiration  string `yaml:"access_token_expiration" env:"JWT_ACCESS_TOKEN_EXPIRATION"`
		RefreshTokenExpiration string `yaml:"refresh_token_expiration" env:"JWT_REFRESH_TOKEN_EXPIRATION"`
		Issuer                 string `yaml:"issuer" env:"JWT_ISSUER"`
	} `yaml:"jwt"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`

	// Storage selects where student records and branch summaries live
	Storage struct {
		Driver         string `yaml:"driver" env:"STORAGE_DRIVER,lower"`
		DynamoTable    string `yaml:"dynamo_table" env:"STORAGE_DYNAMO_TABLE"`
		DynamoRegion   string `yaml:"dynamo_region" env:"STORAGE_DYNAMO_REGION"`
		DynamoEndpoint string `yaml:"dynamo_endpoint" env:"STORAGE_DYNAMO_ENDPOINT"`
	} `yaml:"storage"`

	// Archive keeps a copy of every uploaded grade sheet
	Archive struct {
		Driver    string `yaml:"driver" env:"ARCHIVE_DRIVER,lower"`
		LocalPath string `yaml:"local_path" env:"ARCHIVE_LOCAL_PATH"`
		S3Bucket  string `yaml:"s3_bucket" env:"ARCHIVE_S3_BUCKET"`
		S3Prefix  string `yaml:"s3_prefix" env:"ARCHIVE_S3_PREFIX"`
		S3Region  string `yaml:"s3_region" env:"ARCHIVE_S3_REGION"`
	} `yaml:"archive"`

	Mail struct {
		Driver         string `yaml:"driver" env:"MAIL_DRIVER,lower"`
		SMTPHost       string `yaml:"smtp_host" env:"MAIL_SMTP_HOST"`
		SMTPPort       int    `yaml:"smtp_port" env:"MAIL_SMTP_PORT"`
		SMTPUsername   string `yaml:"smtp_username" env:"MAIL_SMTP_USERNAME"`
		SMTPPassword   string `yaml:"smtp_password" env:"MAIL_SMTP_PASSWORD"`
		SMTPUseTLS     bool   `yaml:"smtp_use_tls" env:"MAIL_SMTP_USE_TLS"`
		SendGridAPIKey string `yaml:"sendgrid_api_key" env:"MAIL_SENDGRID_API_KEY"`
		FromName       string `yaml:"from_name" env:"MAIL_FROM_NAME"`
		FromEmail      string `yaml:"from_email" env:"MAIL_FROM_EMAIL"`
		QueueSize      int    `yaml:"queue_size" env:"MAIL_QUEUE_SIZE"`
		Workers        int    `yaml:"workers" env:"MAIL_WORKERS"`
		SendTimeout    string `yaml:"send_timeout" env:"MAIL_SEND_TIMEOUT"`
		SendAttempts   int    `yaml:"send_attempts" env:"MAIL_SEND_ATTEMPTS"`
		RetryBackoff   string `yaml:"retry_backoff" env:"MAIL_RETRY_BACKOFF"`
	} `yaml:"mail"`

	Ingestion struct {
		MaxUploadBytes     int64   `yaml:"max_upload_bytes" env:"INGESTION_MAX_UPLOAD_BYTES,bytes"`
		CellGap            float64 `yaml:"cell_gap" env:"INGESTION_CELL_GAP"`
		RunTimeout         string  `yaml:"run_timeout" env:"INGESTION_RUN_TIMEOUT"`
		StudentEmailDomain string  `yaml:"student_email_domain" env:"INGESTION_STUDENT_EMAIL_DOMAIN"`
	} `yaml:"ingestion"`

	// Admin is seeded at startup when Password is set
	Admin struct {
		Roll     string `yaml:"roll" env:"ADMIN_ROLL"`
		Email    string `yaml:"email" env:"ADMIN_EMAIL"`
		Password string `yaml:"password" env:"ADMIN_PASSWORD"`
	} `yaml:"admin"`
}

// LoadConfig loads configuration from a file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}
	setDefaults(config)

	// The file is optional; env vars alone can configure the service
	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := loadFromEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	// Server defaults
	config.Server.Port = "8080"
	config.Server.Mode = "development"
	config.Server.RequestTimeout = "60s"

	// Database defaults
	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.DBName = "resultsphere"
	config.Database.SSLMode = "disable"
	config.Database.MaxIdleConns = 5
	config.Database.MaxOpenConns = 20
	config.Database.ConnMaxLifetime = "1h"
	config.Database.MigrationsDir = "migrations"

	// JWT defaults
	config.JWT.AccessTokenExpiration = "1h"
	config.JWT.RefreshTokenExpiration = "720h"
	config.JWT.Issuer = "resultsphere.app"

	// Logging defaults
	config.Logging.Level = "info"
	config.Logging.Format = "json"

	config.Storage.Driver = StoreDriverPostgres
	config.Storage.DynamoTable = "resultsphere"
	config.Storage.DynamoRegion = "us-east-1"

	config.Archive.Driver = ArchiveDriverLocal
	config.Archive.LocalPath = "uploads/grade-sheets"
	config.Archive.S3Region = "us-east-1"

	config.Mail.Driver = MailDriverLog
	config.Mail.SMTPPort = 587
	config.Mail.SMTPUseTLS = true
	config.Mail.FromName = "Result Portal"
	config.Mail.QueueSize = 256
	config.Mail.Workers = 4
	config.Mail.SendTimeout = "30s"
	config.Mail.SendAttempts = 3
	config.Mail.RetryBackoff = "2s"

	config.Ingestion.MaxUploadBytes = 20 << 20
	config.Ingestion.CellGap = 6
	config.Ingestion.RunTimeout = "5m"
	config.Ingestion.StudentEmailDomain = "student-email-domain.com"
}

// loadFromEnv overrides configuration with environment variables
func loadFromEnv(config *Config) error {
	return applyEnv(config)
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	config.Storage.Driver = strings.ToLower(strings.TrimSpace(config.Storage.Driver))
	config.Archive.Driver = strings.ToLower(strings.TrimSpace(config.Archive.Driver))
	config.Mail.Driver = strings.ToLower(strings.TrimSpace(config.Mail.Driver))

	if config.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	durations := map[string]string{
		"JWT access token expiration":  config.JWT.AccessTokenExpiration,
		"JWT refresh token expiration": config.JWT.RefreshTokenExpiration,
		"server request timeout":       config.Server.RequestTimeout,
		"mail send timeout":            config.Mail.SendTimeout,
		"mail retry backoff":           config.Mail.RetryBackoff,
		"ingestion run timeout":        config.Ingestion.RunTimeout,
	}
	for name, value := range durations {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s format: %w", name, err)
		}
	}

	switch config.Storage.Driver {
	case StoreDriverPostgres:
		if config.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
	case StoreDriverDynamoDB:
		if config.Storage.DynamoTable == "" {
			return fmt.Errorf("dynamodb table is required")
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", config.Storage.Driver)
	}

	switch config.Archive.Driver {
	case ArchiveDriverLocal:
		if config.Archive.LocalPath == "" {
			return fmt.Errorf("archive local path is required")
		}
	case ArchiveDriverS3:
		if config.Archive.S3Bucket == "" {
			return fmt.Errorf("archive s3 bucket is required")
		}
	case ArchiveDriverNone:
	default:
		return fmt.Errorf("unknown archive driver %q", config.Archive.Driver)
	}

	switch config.Mail.Driver {
	case MailDriverSMTP:
		if config.Mail.SMTPHost == "" {
			return fmt.Errorf("smtp host is required")
		}
	case MailDriverSendGrid:
		if config.Mail.SendGridAPIKey == "" {
			return fmt.Errorf("sendgrid api key is required")
		}
	case MailDriverLog:
	default:
		return fmt.Errorf("unknown mail driver %q", config.Mail.Driver)
	}

	if config.Ingestion.MaxUploadBytes <= 0 {
		return fmt.Errorf("ingestion max upload bytes must be positive")
	}
	if config.Admin.Password != "" && config.Admin.Email == "" {
		return fmt.Errorf("admin email is required when an admin password is set")
	}

	return nil
}

// GetPostgresConnectionString returns postgres connection string
func (c *Config) GetPostgresConnectionString() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
		sslMode,
	)
}

// GetEnv gets an environment variable or returns a default value
func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
