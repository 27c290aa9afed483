package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yigit/resultsphere/internal/app/models/dto"
	"github.com/yigit/resultsphere/internal/app/services"
	"github.com/yigit/resultsphere/internal/middleware"
)

// BranchPerformanceController serves branch summaries
type BranchPerformanceController struct {
	service services.BranchPerformanceService
}

// NewBranchPerformanceController creates a new BranchPerformanceController
func NewBranchPerformanceController(service services.BranchPerformanceService) *BranchPerformanceController {
	return &BranchPerformanceController{service: service}
}

// GetBranchPerformance returns the branch summary of a semester
// @Summary Branch performance
// @Description Pass statistics of Regular students per branch and subject, from the latest ingestion run of the semester
// @Tags branch-performance
// @Produce json
// @Param semester path string true "Semester token" example(1-1)
// @Success 200 {object} dto.APIResponse{data=models.BranchPerformanceRecord}
// @Failure 400 {object} dto.ErrorResponse "Invalid semester"
// @Failure 404 {object} dto.ErrorResponse "No data for the semester"
// @Router /branch-performance/{semester} [get]
func (c *BranchPerformanceController) GetBranchPerformance(ctx *gin.Context) {
	record, err := c.service.GetBranchPerformance(ctx.Request.Context(), ctx.Param("semester"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(record))
}
