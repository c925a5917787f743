// Package domain contains core types for the audit trail.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// AuditLog records a single administrative or billing-relevant action.
type AuditLog struct {
	ID           snowflake.ID      `gorm:"primaryKey" json:"id"`
	ActorID      *snowflake.ID     `gorm:"column:actor_id" json:"actor_id,omitempty"`
	Action       string            `gorm:"type:text;not null" json:"action"`
	ResourceType string            `gorm:"column:resource_type;type:text;not null;default:''" json:"resource_type"`
	ResourceID   string            `gorm:"column:resource_id;type:text;not null;default:''" json:"resource_id"`
	Metadata     datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata"`
	CreatedAt    time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (AuditLog) TableName() string { return "audit_logs" }

// AuditCursor is the keyset position for audit log pagination.
type AuditCursor struct {
	ID        snowflake.ID
	CreatedAt time.Time
}

// ListFilter narrows audit log listings.
type ListFilter struct {
	ActorID *snowflake.ID
	Action  string
	StartAt *time.Time
	EndAt   *time.Time
	Cursor  *AuditCursor
	Limit   int
}
