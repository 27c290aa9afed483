package dto

import "time"

// APIResponse is the envelope of every JSON response
type APIResponse struct {
	Success   bool         `json:"success" example:"true"`
	Message   string       `json:"message,omitempty"`
	Data      interface{}  `json:"data,omitempty"`
	Error     *ErrorDetail `json:"error,omitempty"`
	Timestamp time.Time    `json:"timestamp" example:"2025-04-23T12:01:05.123Z"`
}

// SuccessResponse represents a standard success response for API endpoints
type SuccessResponse struct {
	Message string `json:"message"`
}

// NewSuccessResponse wraps data in a successful APIResponse
func NewSuccessResponse(data interface{}) APIResponse {
	return APIResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now(),
	}
}

// NewFailureResponse wraps an error detail, optionally with partial data
func NewFailureResponse(detail *ErrorDetail, data interface{}) APIResponse {
	return APIResponse{
		Success:   false,
		Data:      data,
		Error:     detail,
		Timestamp: time.Now(),
	}
}
