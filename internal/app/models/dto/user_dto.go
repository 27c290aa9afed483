package dto

// UserFilterRequest represents the account listing filters
type UserFilterRequest struct {
	Roll     string `form:"roll" example:"20HN1A05"`        // prefix match
	Email    string `form:"email" example:"college.edu"`    // partial match, case-insensitive
	Role     string `form:"role" binding:"omitempty,oneof=STUDENT ADMIN" example:"STUDENT"`
	Page     int    `form:"page,default=1" binding:"min=1"`
	PageSize int    `form:"pageSize,default=10" binding:"min=1,max=100"`
}

// PaginationInfo represents pagination metadata
type PaginationInfo struct {
	CurrentPage int   `json:"currentPage" example:"1"`
	TotalPages  int   `json:"totalPages" example:"4"`
	PageSize    int   `json:"pageSize" example:"10"`
	TotalItems  int64 `json:"totalItems" example:"37"`
}

// UserListResponse represents a page of accounts
type UserListResponse struct {
	Users []UserProfile `json:"users"`
	PaginationInfo
}

// UpdateUserRequest is an administrator's edit of an account. Omitted fields are kept.
type UpdateUserRequest struct {
	Roll    *string `json:"roll" binding:"omitempty,roll" example:"20HN1A0501"`
	Email   *string `json:"email" binding:"omitempty,email" example:"student@college.edu"`
	IsAdmin *bool   `json:"isAdmin" example:"false"`
}

// UpdateProfileRequest is a user's edit of their own account.
// Changing the password requires the current one.
type UpdateProfileRequest struct {
	Email           string `json:"email" binding:"required,email" example:"student@college.edu"`
	CurrentPassword string `json:"currentPassword" binding:"required_with=NewPassword"`
	NewPassword     string `json:"newPassword" binding:"omitempty,password"`
}
