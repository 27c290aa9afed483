package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yigit/resultsphere/internal/app/models/dto"
	"github.com/yigit/resultsphere/internal/app/services"
	"github.com/yigit/resultsphere/internal/middleware"
)

// UserController handles account management
type UserController struct {
	userService services.UserService
	logger      zerolog.Logger
}

// NewUserController creates a new UserController
func NewUserController(userService services.UserService, logger zerolog.Logger) *UserController {
	return &UserController{
		userService: userService,
		logger:      logger,
	}
}

// GetUsersByFilter lists accounts
// @Summary List accounts
// @Description Lists registered accounts with optional roll prefix, email and role filters
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param roll query string false "Roll number prefix"
// @Param email query string false "Partial email, case-insensitive"
// @Param role query string false "STUDENT or ADMIN"
// @Param page query int false "Page number" default(1) minimum(1)
// @Param pageSize query int false "Page size" default(10) minimum(1) maximum(100)
// @Success 200 {object} dto.APIResponse{data=dto.UserListResponse} "Accounts retrieved"
// @Failure 400 {object} dto.ErrorResponse "Invalid filter"
// @Failure 401 {object} dto.ErrorResponse "Authentication required"
// @Failure 403 {object} dto.ErrorResponse "Administrator access required"
// @Router /students [get]
func (c *UserController) GetUsersByFilter(ctx *gin.Context) {
	var filter dto.UserFilterRequest
	if err := ctx.ShouldBindQuery(&filter); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
		return
	}

	resp, err := c.userService.GetUsersByFilter(ctx.Request.Context(), &filter)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// UpdateUser edits an account
// @Summary Update an account
// @Description Changes the roll number, email or administrator flag of an account
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID" Format(int64) minimum(1)
// @Param request body dto.UpdateUserRequest true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=dto.UserProfile} "Account updated"
// @Failure 400 {object} dto.ErrorResponse "Invalid user ID or payload"
// @Failure 403 {object} dto.ErrorResponse "Administrator access required"
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Failure 409 {object} dto.ErrorResponse "Roll number or email already registered"
// @Router /students/{id} [put]
func (c *UserController) UpdateUser(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeBadRequest, "Invalid user ID")
		errorDetail = errorDetail.WithDetails("ID must be a positive number")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	var req dto.UpdateUserRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
		return
	}

	profile, err := c.userService.UpdateUser(ctx.Request.Context(), id, &req)
	if err != nil {
		c.logger.Warn().Err(err).Int64("userID", id).Msg("Account update failed")
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(profile))
}

// UpdateProfile edits the authenticated user's account
// @Summary Update own profile
// @Description Changes the caller's email. A new password needs the current one.
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.UpdateProfileRequest true "Profile changes"
// @Success 200 {object} dto.APIResponse{data=dto.UserProfile} "Profile updated"
// @Failure 400 {object} dto.ErrorResponse "Invalid payload"
// @Failure 401 {object} dto.ErrorResponse "Wrong current password"
// @Failure 409 {object} dto.ErrorResponse "Email already registered"
// @Router /auth/profile [put]
func (c *UserController) UpdateProfile(ctx *gin.Context) {
	var req dto.UpdateProfileRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
		return
	}

	profile, err := c.userService.UpdateUserProfile(ctx.Request.Context(), middleware.GetUserID(ctx), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(profile))
}
