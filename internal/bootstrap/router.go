package bootstrap

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	appRoutes "github.com/yigit/resultsphere/internal/app/routes"
	"github.com/yigit/resultsphere/internal/config"
	appMiddleware "github.com/yigit/resultsphere/internal/middleware"
	"github.com/yigit/resultsphere/internal/pkg/helpers"
	"github.com/yigit/resultsphere/internal/pkg/validation"
)

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) (*gin.Engine, error) {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	if err := validation.RegisterGinRules(); err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		appMiddleware.LoggerMiddleware(lgr.With().Str("component", "http").Logger()),
		appMiddleware.TimeoutMiddleware(helpers.ParseDuration(cfg.Server.RequestTimeout, 0)),
	)

	appRoutes.SetupRouter(router,
		deps.AuthController,
		deps.UserController,
		deps.ResultController,
		deps.BranchPerformanceController,
		deps.UpdateController,
		deps.AuthMiddleware,
	)

	return router, nil
}
