package auth

import "time"

// RegisterRequest is the body of POST /users/register.
type RegisterRequest struct {
	Username string  `json:"username" validate:"required,max=50"`
	Password string  `json:"password" validate:"required,max=72"`
	Email    *string `json:"email" validate:"omitempty,email,max=100"`
}

// LoginRequest is the body of POST /users/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=50"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse is returned on successful login.
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}
