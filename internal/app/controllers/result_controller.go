package controllers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yigit/resultsphere/internal/app/models/dto"
	"github.com/yigit/resultsphere/internal/app/services"
	"github.com/yigit/resultsphere/internal/middleware"
	"github.com/yigit/resultsphere/internal/pkg/apperrors"
)

// multipartOverhead is the allowance for form fields and boundaries on top of the file itself
const multipartOverhead = 1 << 20

// ResultController handles grade-sheet uploads and result queries
type ResultController struct {
	uploadService  services.UploadService
	resultService  services.ResultService
	maxUploadBytes int64
	logger         zerolog.Logger
}

// NewResultController creates a new ResultController
func NewResultController(
	uploadService services.UploadService,
	resultService services.ResultService,
	maxUploadBytes int64,
	logger zerolog.Logger,
) *ResultController {
	return &ResultController{
		uploadService:  uploadService,
		resultService:  resultService,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// UploadGradeSheet ingests a grade-sheet PDF for a semester
// @Summary Upload a grade sheet
// @Description Archives the PDF, extracts its result table and stores every student's record for the semester
// @Tags results
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param semester formData string true "Semester token" example(1-1)
// @Param file formData file true "Grade sheet PDF"
// @Success 200 {object} dto.APIResponse{data=dto.UploadGradeSheetResponse} "Ingestion summary"
// @Failure 400 {object} dto.ErrorResponse "Invalid semester or unreadable grade sheet"
// @Failure 403 {object} dto.ErrorResponse "Administrator access required"
// @Failure 413 {object} dto.ErrorResponse "File too large"
// @Failure 500 {object} dto.APIResponse{data=dto.UploadGradeSheetResponse} "Storage failure, partial summary attached"
// @Router /results/upload [post]
func (c *ResultController) UploadGradeSheet(ctx *gin.Context) {
	ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, c.maxUploadBytes+multipartOverhead)

	var req dto.UploadGradeSheetRequest
	if err := ctx.ShouldBind(&req); err != nil {
		if isTooLarge(err) {
			middleware.HandleAPIError(ctx, apperrors.ErrPayloadTooLarge)
			return
		}
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
		return
	}

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		if isTooLarge(err) {
			middleware.HandleAPIError(ctx, apperrors.ErrPayloadTooLarge)
			return
		}
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "file is required").WithField("file")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}
	if fileHeader.Size > c.maxUploadBytes {
		middleware.HandleAPIError(ctx, apperrors.ErrPayloadTooLarge)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		middleware.HandleAPIError(ctx, fmt.Errorf("failed to open uploaded file: %w", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, c.maxUploadBytes+1))
	if err != nil {
		middleware.HandleAPIError(ctx, fmt.Errorf("failed to read uploaded file: %w", err))
		return
	}
	if int64(len(data)) > c.maxUploadBytes {
		middleware.HandleAPIError(ctx, apperrors.ErrPayloadTooLarge)
		return
	}

	resp, err := c.uploadService.UploadGradeSheet(ctx.Request.Context(), req.Semester, fileHeader.Filename, data)
	if err != nil {
		c.logger.Error().Err(err).Str("semester", req.Semester).Str("filename", fileHeader.Filename).Msg("Grade sheet ingestion failed")
		if resp != nil {
			middleware.HandleAPIErrorWithData(ctx, err, resp)
			return
		}
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// GetStudentResults returns a student's results
// @Summary Student results
// @Description Returns the record for one semester, or every stored semester when semester is "all". Students can only read their own roll.
// @Tags results
// @Produce json
// @Security BearerAuth
// @Param roll path string true "Roll number" example(20HN1A0501)
// @Param semester path string true "Semester token or all" example(1-1)
// @Success 200 {object} dto.APIResponse{data=dto.StudentResultsResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid semester"
// @Failure 403 {object} dto.ErrorResponse "Not your roll number"
// @Failure 404 {object} dto.ErrorResponse "No results found"
// @Router /results/{roll}/{semester} [get]
func (c *ResultController) GetStudentResults(ctx *gin.Context) {
	resp, err := c.resultService.GetResults(ctx.Request.Context(), requesterFrom(ctx), ctx.Param("roll"), ctx.Param("semester"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// ListSemesterRolls lists the roll numbers stored for a semester
// @Summary Rolls of a semester
// @Tags results
// @Produce json
// @Security BearerAuth
// @Param semester path string true "Semester token" example(1-1)
// @Success 200 {object} dto.APIResponse{data=[]string}
// @Failure 400 {object} dto.ErrorResponse "Invalid semester"
// @Failure 403 {object} dto.ErrorResponse "Administrator access required"
// @Router /semesters/{semester}/rolls [get]
func (c *ResultController) ListSemesterRolls(ctx *gin.Context) {
	rolls, err := c.resultService.ListRolls(ctx.Request.Context(), ctx.Param("semester"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(rolls))
}

func requesterFrom(ctx *gin.Context) services.Requester {
	return services.Requester{
		UserID:  middleware.GetUserID(ctx),
		Roll:    ctx.GetString(middleware.ContextRoll),
		IsAdmin: middleware.IsAdmin(ctx),
	}
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
