package model

import (
	"time"

	"github.com/google/uuid"
)

// Role is the fixed set of employee roles.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleCashier Role = "cashier"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleCashier:
		return true
	}
	return false
}

// UsesUsername reports whether the role logs in with username + password.
// Cashiers log in with a passcode only.
func (r Role) UsesUsername() bool {
	return r == RoleAdmin || r == RoleManager
}

// Account stores an employee identity. Rows are never deleted; IsDisabled is
// the soft-delete flag. FullName and Username are unique among active rows
// through partial unique indexes (see infra.Migrate).
type Account struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	FullName       string    `gorm:"not null"`
	Username       *string   `gorm:"type:varchar(150)"`
	Role           Role      `gorm:"type:varchar(20);not null;index"`
	CredentialHash string    `gorm:"not null"`
	IsDisabled     bool      `gorm:"not null;default:false"`
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
}

func (Account) TableName() string { return "accounts" }

// AccountSummary is the non-sensitive projection returned by listings.
type AccountSummary struct {
	ID        uuid.UUID
	FullName  string
	Username  *string
	Role      Role
	UpdatedAt time.Time
}

// AccountChanges carries the fields of a partial update. Nil means "leave
// unchanged". UpdatedAt is always written.
type AccountChanges struct {
	FullName       *string
	CredentialHash *string
	UpdatedAt      time.Time
}
