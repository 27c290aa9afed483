// Package controllers handles HTTP request handling
package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yigit/resultsphere/internal/app/models/dto"
	"github.com/yigit/resultsphere/internal/app/services"
	"github.com/yigit/resultsphere/internal/middleware"
)

// AuthController handles authentication related operations
type AuthController struct {
	authService services.AuthService
	logger      zerolog.Logger
}

// NewAuthController creates a new AuthController
func NewAuthController(authService services.AuthService, logger zerolog.Logger) *AuthController {
	return &AuthController{
		authService: authService,
		logger:      logger,
	}
}

// Register handles student registration
// @Summary Register a student
// @Description Creates a student account for a roll number and signs the student in
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "Registration information"
// @Success 201 {object} dto.APIResponse{data=dto.AuthResponse} "Student registered"
// @Failure 400 {object} dto.ErrorResponse "Invalid request format"
// @Failure 409 {object} dto.ErrorResponse "Roll number or email already registered"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /auth/register [post]
func (c *AuthController) Register(ctx *gin.Context) {
	var req dto.RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		c.logger.Warn().Err(err).Msg("Invalid registration request payload")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
		return
	}

	resp, err := c.authService.Register(ctx.Request.Context(), &req)
	if err != nil {
		c.logger.Warn().Err(err).Str("roll", req.Roll).Msg("Registration failed")
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(resp))
}

// Login handles user login
// @Summary User login
// @Description Authenticates a user by roll number or email and returns tokens
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login credentials"
// @Success 200 {object} dto.APIResponse{data=dto.AuthResponse} "Login successful"
// @Failure 400 {object} dto.ErrorResponse "Invalid request format or validation error"
// @Failure 401 {object} dto.ErrorResponse "Invalid credentials"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /auth/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req dto.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		c.logger.Warn().Err(err).Msg("Invalid login request payload")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
		return
	}

	resp, err := c.authService.Login(ctx.Request.Context(), &req)
	if err != nil {
		c.logger.Warn().Err(err).Str("roll", req.Roll).Str("email", req.Email).Msg("Login failed")
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Int64("userID", resp.User.ID).Msg("User logged in successfully")
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// RefreshToken handles refresh token request
// @Summary Refresh access token
// @Description Creates a new token pair using a valid refresh token. The old refresh token is revoked.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.RefreshTokenRequest true "Refresh token"
// @Success 200 {object} dto.APIResponse{data=dto.TokenResponse} "Token refreshed successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid request format"
// @Failure 401 {object} dto.ErrorResponse "Invalid refresh token"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /auth/refresh [post]
func (c *AuthController) RefreshToken(ctx *gin.Context) {
	var req dto.RefreshTokenRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		c.logger.Warn().Err(err).Msg("Invalid refresh token request payload")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
		return
	}

	tokenResponse, err := c.authService.RefreshToken(ctx.Request.Context(), req.RefreshToken)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Refresh token failed")
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(tokenResponse))
}

// GetProfile returns the authenticated user's account
// @Summary Current user profile
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.UserProfile}
// @Failure 401 {object} dto.ErrorResponse "Authentication required"
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Router /auth/profile [get]
func (c *AuthController) GetProfile(ctx *gin.Context) {
	profile, err := c.authService.GetProfile(ctx.Request.Context(), middleware.GetUserID(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(profile))
}
