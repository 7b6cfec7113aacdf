package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ToolCreditRequirement maps a tool name to its credit cost and kill switch.
// Rows are administered out of band; the gating flow only reads them.
type ToolCreditRequirement struct {
	gorm.Model
	ToolName    string `gorm:"uniqueIndex"`
	Credits     int64
	Description string
	Enabled     bool `gorm:"not null;default:true"`
}

// ToolAttemptLog is the append-only audit trail of gating outcomes. One row
// per invocation attempt, whether it succeeded, was blocked or failed.
type ToolAttemptLog struct {
	gorm.Model
	UserID          uuid.UUID `gorm:"type:uuid;index"`
	ToolName        string    `gorm:"index"`
	Allowed         bool
	CreditsRequired int64
	Reason          string
}
