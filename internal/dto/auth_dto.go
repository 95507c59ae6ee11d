package dto

import "time"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type LoginRequest struct {
	Username string `json:"username" form:"username" validate:"required,max=150"`
	Password string `json:"password" form:"password" validate:"required,max=72"`
}

type PasscodeLoginRequest struct {
	Passcode string `json:"passcode" form:"passcode" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" form:"refresh_token" validate:"required"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type IdentityResponse struct {
	ID       string  `json:"id"`
	FullName string  `json:"full_name"`
	Username *string `json:"username"`
	Role     string  `json:"role"`
}

type LoginResponse struct {
	AccessToken  string           `json:"access_token"`
	RefreshToken string           `json:"refresh_token"`
	TokenType    string           `json:"token_type"`
	ExpiresIn    int              `json:"expires_in"` // seconds
	Account      IdentityResponse `json:"account"`
}

// ExpiresInSeconds converts a token TTL for LoginResponse.ExpiresIn.
func ExpiresInSeconds(d time.Duration) int { return int(d / time.Second) }
