package dto

import "time"

// UpdateDateLayout is the calendar date format of announcements
const UpdateDateLayout = "2006-01-02"

// CreateUpdateRequest is a new announcement. Accepted as JSON or form fields.
type CreateUpdateRequest struct {
	Title       string `json:"title" form:"title" binding:"required,max=200" example:"Revaluation results published"`
	Description string `json:"description" form:"description" binding:"required" example:"Results of the 2-1 revaluation are now available."`
	Date        string `json:"date" form:"date" binding:"required,datetime=2006-01-02" example:"2025-07-01"`
}

// UpdateResponse is an announcement as shown on the portal
type UpdateResponse struct {
	ID          int64     `json:"id" example:"1"`
	Title       string    `json:"title" example:"Revaluation results published"`
	Description string    `json:"description"`
	Date        string    `json:"date" example:"2025-07-01"`
	CreatedAt   time.Time `json:"createdAt"`
}

// CreateUpdateResponse reports a posted announcement and how many emails were queued for it
type CreateUpdateResponse struct {
	UpdateResponse
	QueuedEmails int `json:"queuedEmails" example:"240"`
}
