package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yigit/resultsphere/internal/app/models/dto"
	"github.com/yigit/resultsphere/internal/app/services"
	"github.com/yigit/resultsphere/internal/middleware"
)

// UpdateController handles portal announcements
type UpdateController struct {
	updateService services.UpdateService
	logger        zerolog.Logger
}

// NewUpdateController creates a new UpdateController
func NewUpdateController(updateService services.UpdateService, logger zerolog.Logger) *UpdateController {
	return &UpdateController{
		updateService: updateService,
		logger:        logger,
	}
}

// CreateUpdate posts an announcement and emails it to every account
// @Summary Post an announcement
// @Description Stores an announcement and queues an email to every registered account
// @Tags updates
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateUpdateRequest true "Announcement"
// @Success 201 {object} dto.APIResponse{data=dto.CreateUpdateResponse} "Announcement posted"
// @Failure 400 {object} dto.ErrorResponse "Missing title, description or date"
// @Failure 403 {object} dto.ErrorResponse "Administrator access required"
// @Router /updates [post]
func (c *UpdateController) CreateUpdate(ctx *gin.Context) {
	var req dto.CreateUpdateRequest
	if err := ctx.ShouldBind(&req); err != nil {
		c.logger.Warn().Err(err).Msg("Invalid update payload")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
		return
	}

	resp, err := c.updateService.CreateUpdate(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(resp))
}

// ListUpdates returns every announcement
// @Summary List announcements
// @Description Returns every announcement, newest first
// @Tags updates
// @Produce json
// @Success 200 {object} dto.APIResponse{data=[]dto.UpdateResponse}
// @Router /updates [get]
func (c *UpdateController) ListUpdates(ctx *gin.Context) {
	updates, err := c.updateService.ListUpdates(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(updates))
}
