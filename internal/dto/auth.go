package dto

import "time"

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=80,alphanum"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int64        `json:"expires_in"` // access token lifetime in seconds
	User         UserResponse `json:"user"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshResponse carries a new refresh token only when rotation is enabled.
type RefreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// LogoutRequest revokes AccessToken and, when present, RefreshToken.
type LogoutRequest struct {
	AccessToken  string `json:"-"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
}

// ProvisionAdminRequest creates the first admin. An empty Password asks
// for a generated one.
type ProvisionAdminRequest struct {
	Username string `json:"username" validate:"required,min=3,max=80,alphanum"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password,omitempty"`
}

type ProvisionResult struct {
	User UserResponse `json:"user"`
	// GeneratedPassword is set only when the caller did not supply one.
	GeneratedPassword string `json:"generated_password,omitempty"`
}

type TokenCheckResponse struct {
	Valid     bool      `json:"valid"`
	UserID    uint      `json:"user_id"`
	IsAdmin   bool      `json:"is_admin"`
	ExpiresAt time.Time `json:"expires_at"`
}
