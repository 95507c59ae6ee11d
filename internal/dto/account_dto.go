package dto

import (
	"strings"
	"time"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

// CreateAccountRequest accepts JSON or form bodies. Username and Password are
// required for admin/manager, Passcode for cashier; the service enforces that.
type CreateAccountRequest struct {
	FullName string `json:"full_name" form:"full_name" validate:"required,max=100"`
	Role     string `json:"role"      form:"role"      validate:"required,oneof=admin manager cashier"`
	Username string `json:"username"  form:"username"  validate:"omitempty,max=150"`
	Password string `json:"password"  form:"password"  validate:"omitempty,max=72"`
	Passcode string `json:"passcode"  form:"passcode"`
}

// UpdateAccountRequest is shared by the admin and self-service update paths.
// Empty fields are not supplied.
type UpdateAccountRequest struct {
	FullName string `json:"full_name" form:"full_name" validate:"omitempty,max=100"`
	Password string `json:"password"  form:"password"  validate:"omitempty,max=72"`
	Passcode string `json:"passcode"  form:"passcode"`
}

// IsEmpty reports whether no field was supplied. Blank values count as not
// supplied.
func (r UpdateAccountRequest) IsEmpty() bool {
	return strings.TrimSpace(r.FullName) == "" &&
		strings.TrimSpace(r.Password) == "" &&
		strings.TrimSpace(r.Passcode) == ""
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type CreateAccountResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// AccountResponse never carries the credential digest.
type AccountResponse struct {
	ID        string    `json:"id"`
	FullName  string    `json:"full_name"`
	Username  *string   `json:"username"`
	Role      string    `json:"role"`
	UpdatedAt time.Time `json:"updated_at"`
}

type UpdateResult struct {
	Updated bool   `json:"updated"`
	Message string `json:"message"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
