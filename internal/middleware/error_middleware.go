package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yigit/resultsphere/internal/app/models/dto"
	"github.com/yigit/resultsphere/internal/pkg/apperrors"
)

// HandleAPIError handles common API errors and returns appropriate responses
func HandleAPIError(c *gin.Context, err error) {
	HandleAPIErrorWithData(c, err, nil)
}

// HandleAPIErrorWithData is HandleAPIError with a partial result attached to the response
func HandleAPIErrorWithData(c *gin.Context, err error, data interface{}) {
	status, detail := classify(err)
	_ = c.Error(err)
	c.JSON(status, dto.NewFailureResponse(detail, data))
}

func classify(err error) (int, *dto.ErrorDetail) {
	switch {
	// Persistence first: its cause may itself match one of the cases below
	case errors.Is(err, apperrors.ErrPersistence):
		return http.StatusInternalServerError,
			dto.NewErrorDetail(dto.ErrorCodePartialIngestion, "Ingestion stopped by a storage failure").
				WithSeverity(dto.ErrorSeverityCritical).
				WithDetails(err.Error())
	case errors.Is(err, apperrors.ErrGradeSheetFormat):
		return http.StatusBadRequest,
			dto.NewErrorDetail(dto.ErrorCodeInvalidGradeSheet, "Invalid grade sheet").WithDetails(err.Error())
	case errors.Is(err, apperrors.ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge,
			dto.NewErrorDetail(dto.ErrorCodePayloadTooLarge, "Uploaded file is too large")
	case errors.Is(err, apperrors.ErrValidationFailed):
		return http.StatusBadRequest,
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Validation failed").WithDetails(err.Error())
	case errors.Is(err, apperrors.ErrBadRequest):
		return http.StatusBadRequest,
			dto.NewErrorDetail(dto.ErrorCodeBadRequest, err.Error())
	case errors.Is(err, apperrors.ErrStudentNotFound):
		return http.StatusNotFound,
			dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, "No results found for this student")
	case errors.Is(err, apperrors.ErrBranchPerformanceNotFound):
		return http.StatusNotFound,
			dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, "No branch performance data for this semester")
	case errors.Is(err, apperrors.ErrResourceNotFound), errors.Is(err, apperrors.ErrUserNotFound):
		return http.StatusNotFound,
			dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, "Resource not found")
	case errors.Is(err, apperrors.ErrPermissionDenied):
		return http.StatusForbidden,
			dto.NewErrorDetail(dto.ErrorCodeForbidden, "Permission denied")
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		return http.StatusUnauthorized,
			dto.NewErrorDetail(dto.ErrorCodeInvalidCredentials, "Invalid credentials")
	case errors.Is(err, apperrors.ErrTokenExpired):
		return http.StatusUnauthorized,
			dto.NewErrorDetail(dto.ErrorCodeExpiredToken, "Token expired")
	case errors.Is(err, apperrors.ErrTokenNotFound):
		return http.StatusUnauthorized,
			dto.NewErrorDetail(dto.ErrorCodeTokenNotFound, "Token not found")
	case errors.Is(err, apperrors.ErrTokenRevoked):
		return http.StatusUnauthorized,
			dto.NewErrorDetail(dto.ErrorCodeInvalidToken, "Token revoked")
	case errors.Is(err, apperrors.ErrTokenInvalid):
		return http.StatusUnauthorized,
			dto.NewErrorDetail(dto.ErrorCodeInvalidToken, "Invalid token")
	case errors.Is(err, apperrors.ErrEmailAlreadyExists):
		return http.StatusConflict,
			dto.NewErrorDetail(dto.ErrorCodeResourceAlreadyExists, "Email already exists").WithField("email")
	case errors.Is(err, apperrors.ErrRollAlreadyExists):
		return http.StatusConflict,
			dto.NewErrorDetail(dto.ErrorCodeResourceAlreadyExists, "Roll number already registered").WithField("roll")
	case errors.Is(err, apperrors.ErrResourceAlreadyExists):
		return http.StatusConflict,
			dto.NewErrorDetail(dto.ErrorCodeResourceAlreadyExists, "Resource already exists")
	default:
		return http.StatusInternalServerError,
			dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error")
	}
}
