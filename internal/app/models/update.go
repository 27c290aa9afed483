package models

import "time"

// Update is an announcement shown on the student portal
type Update struct {
	ID          int64     `json:"id" db:"id" example:"1"`
	Title       string    `json:"title" db:"title" example:"Revaluation results published"`
	Description string    `json:"description" db:"description"`
	Date        time.Time `json:"date" db:"date" example:"2025-07-01T00:00:00Z"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}
