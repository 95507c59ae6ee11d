package model

import (
	"time"

	"github.com/google/uuid"
)

// Account event types recorded in the audit trail.
const (
	EventAccountCreated           = "account.created"
	EventAccountUpdated           = "account.updated"
	EventAccountCredentialRotated = "account.credential_rotated"
	EventAccountDisabled          = "account.disabled"
)

// AccountEvent is an append-only audit row for account lifecycle changes.
// Fields lists the changed field names, never their values.
type AccountEvent struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	AccountID uuid.UUID  `gorm:"type:uuid;not null;index"`
	ActorID   *uuid.UUID `gorm:"type:uuid"`
	Type      string     `gorm:"type:varchar(40);not null"`
	Fields    string     `gorm:"type:varchar(200)"` // comma separated
	CreatedAt time.Time  `gorm:"not null"`
}

func (AccountEvent) TableName() string { return "account_events" }
