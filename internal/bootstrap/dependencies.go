package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	appControllers "github.com/yigit/resultsphere/internal/app/controllers"
	appServices "github.com/yigit/resultsphere/internal/app/services"
	"github.com/yigit/resultsphere/internal/config"
	"github.com/yigit/resultsphere/internal/ingestion"
	appMiddleware "github.com/yigit/resultsphere/internal/middleware"
	pkgAuth "github.com/yigit/resultsphere/internal/pkg/auth"
	"github.com/yigit/resultsphere/internal/pkg/email"
	"github.com/yigit/resultsphere/internal/pkg/filestorage"
	"github.com/yigit/resultsphere/internal/pkg/helpers"
	"github.com/yigit/resultsphere/internal/pkg/pdftable"
	"github.com/yigit/resultsphere/internal/pkg/workqueue"
	"github.com/yigit/resultsphere/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	Stores     *Stores
	MailQueue  *workqueue.Queue
	Processor  *ingestion.Processor
	JWTService *pkgAuth.JWTService

	AuthService              appServices.AuthService
	UserService              appServices.UserService
	UpdateService            appServices.UpdateService
	ResultService            appServices.ResultService
	UploadService            appServices.UploadService
	BranchPerformanceService appServices.BranchPerformanceService

	AuthController              *appControllers.AuthController
	UserController              *appControllers.UserController
	UpdateController            *appControllers.UpdateController
	ResultController            *appControllers.ResultController
	BranchPerformanceController *appControllers.BranchPerformanceController
	AuthMiddleware              *appMiddleware.AuthMiddleware

	Logger zerolog.Logger
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*Dependencies, error) {
	stores, err := OpenStores(ctx, cfg, cfg.Storage.Driver, lgr)
	if err != nil {
		return nil, err
	}
	deps := &Dependencies{Stores: stores, Logger: lgr}

	if err := seed.CreateDefaultAdmin(ctx, stores.Users, seed.AdminAccount{
		Roll:     cfg.Admin.Roll,
		Email:    cfg.Admin.Email,
		Password: cfg.Admin.Password,
	}, lgr); err != nil {
		lgr.Error().Err(err).Msg("Failed to create default admin, proceeding anyway...")
	}

	archive, err := NewArchive(ctx, cfg)
	if err != nil {
		stores.Close()
		return nil, fmt.Errorf("failed to initialize grade sheet archive: %w", err)
	}

	deps.MailQueue = NewMailQueue(cfg, lgr)
	mailSender := NewMailSender(cfg, lgr)
	notifier := appServices.NewQueuedNotifier(
		deps.MailQueue,
		appServices.NewResultNotifier(stores.Directory, mailSender, lgr),
		lgr,
	)
	deps.Processor = NewProcessor(cfg, stores, notifier, lgr)

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:       cfg.JWT.Secret,
		AccessTokenExp:  helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, time.Hour),
		RefreshTokenExp: helpers.ParseDuration(cfg.JWT.RefreshTokenExpiration, 720*time.Hour),
		TokenIssuer:     cfg.JWT.Issuer,
	})

	deps.AuthService = appServices.NewAuthService(stores.Users, stores.Tokens, deps.JWTService, lgr)
	deps.ResultService = appServices.NewResultService(stores.Results, lgr)
	deps.UploadService = appServices.NewUploadService(deps.Processor, archive, lgr)
	deps.BranchPerformanceService = appServices.NewBranchPerformanceService(stores.Branches)
	deps.UserService = appServices.NewUserService(stores.Users, lgr)
	deps.UpdateService = appServices.NewUpdateService(stores.Updates, stores.Users, deps.MailQueue, mailSender, lgr)

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)
	deps.AuthController = appControllers.NewAuthController(deps.AuthService, lgr)
	deps.UserController = appControllers.NewUserController(deps.UserService, lgr)
	deps.UpdateController = appControllers.NewUpdateController(deps.UpdateService, lgr)
	deps.ResultController = appControllers.NewResultController(
		deps.UploadService,
		deps.ResultService,
		cfg.Ingestion.MaxUploadBytes,
		lgr,
	)
	deps.BranchPerformanceController = appControllers.NewBranchPerformanceController(deps.BranchPerformanceService)

	return deps, nil
}

// Close drains pending notifications and releases the stores
func (d *Dependencies) Close(ctx context.Context) error {
	var errs []error
	if d.MailQueue != nil {
		if err := d.MailQueue.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("mail queue: %w", err))
		}
	}
	if d.Stores != nil {
		d.Stores.Close()
	}
	return errors.Join(errs...)
}

// NewProcessor builds the ingestion pipeline over the given stores. A nil notifier disables mail.
func NewProcessor(cfg *config.Config, stores *Stores, notifier ingestion.Notifier, lgr zerolog.Logger) *ingestion.Processor {
	extractor := pdftable.NewExtractor(pdftable.Config{CellGap: cfg.Ingestion.CellGap}, lgr)
	return ingestion.NewProcessor(
		extractor,
		stores.Results,
		stores.Branches,
		notifier,
		ingestion.Options{EmailDomain: cfg.Ingestion.StudentEmailDomain},
		lgr,
	)
}

// NewArchive returns the grade sheet archive selected by configuration
func NewArchive(ctx context.Context, cfg *config.Config) (filestorage.Archive, error) {
	switch cfg.Archive.Driver {
	case config.ArchiveDriverLocal:
		archive, err := filestorage.NewLocalArchive(cfg.Archive.LocalPath)
		if err != nil {
			return nil, err
		}
		return archive, nil
	case config.ArchiveDriverS3:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Archive.S3Region))
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		return filestorage.NewS3Archive(s3.NewFromConfig(awsCfg), cfg.Archive.S3Bucket, cfg.Archive.S3Prefix), nil
	case config.ArchiveDriverNone, "":
		return filestorage.NopArchive{}, nil
	default:
		return nil, fmt.Errorf("unknown archive driver %q", cfg.Archive.Driver)
	}
}

// NewMailSender returns the mail transport selected by configuration, retried per the mail settings
func NewMailSender(cfg *config.Config, lgr zerolog.Logger) email.Sender {
	var sender email.Sender
	switch cfg.Mail.Driver {
	case config.MailDriverSendGrid:
		sender = email.NewSendGridSender(cfg.Mail.SendGridAPIKey, cfg.Mail.FromName, cfg.Mail.FromEmail)
	case config.MailDriverSMTP:
		sender = email.NewSMTPSender(email.SMTPConfig{
			Host:      cfg.Mail.SMTPHost,
			Port:      cfg.Mail.SMTPPort,
			Username:  cfg.Mail.SMTPUsername,
			Password:  cfg.Mail.SMTPPassword,
			FromName:  cfg.Mail.FromName,
			FromEmail: cfg.Mail.FromEmail,
			UseTLS:    cfg.Mail.SMTPUseTLS,
		}, lgr)
	default:
		return email.NewLogSender(lgr)
	}

	return email.NewRetrySender(sender, email.RetryPolicy{
		Attempts: cfg.Mail.SendAttempts,
		Backoff:  helpers.ParseDuration(cfg.Mail.RetryBackoff, email.DefaultRetryPolicy.Backoff),
	}, lgr.With().Str("component", "mail").Logger())
}

// NewMailQueue starts the background workers that deliver result and announcement emails
func NewMailQueue(cfg *config.Config, lgr zerolog.Logger) *workqueue.Queue {
	return workqueue.New(workqueue.Config{
		Workers:    cfg.Mail.Workers,
		QueueSize:  cfg.Mail.QueueSize,
		JobTimeout: helpers.ParseDuration(cfg.Mail.SendTimeout, 30*time.Second),
	}, lgr.With().Str("component", "mail-queue").Logger())
}
