package dto

import "time"

type UserResponse struct {
	ID        uint       `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	IsAdmin   bool       `json:"is_admin"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	LastLogin *time.Time `json:"last_login"`
}

// PublicUserResponse is what any authenticated user may see about another.
type PublicUserResponse struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

type UpdateProfileRequest struct {
	Email string `json:"email" validate:"required,email,max=255"`
}

// AdminUpdateUserRequest fields are optional; nil means unchanged.
type AdminUpdateUserRequest struct {
	Email    *string `json:"email" validate:"omitempty,email,max=255"`
	IsActive *bool   `json:"is_active"`
}

type DashboardStats struct {
	TotalUsers  int64 `json:"total_users"`
	ActiveUsers int64 `json:"active_users"`
	AdminUsers  int64 `json:"admin_users"`
}

type DashboardResponse struct {
	Stats       DashboardStats `json:"stats"`
	RecentUsers []UserResponse `json:"recent_users"`
}

type UserListResponse struct {
	Users     []UserResponse `json:"data"`
	Total     int64          `json:"total"`
	Page      int            `json:"page"`
	Limit     int            `json:"limit"`
	PageTotal int            `json:"page_total"`
}
