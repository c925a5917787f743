// Package domain contains core types for the auth service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a system user account.
type User struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	Email        string       `gorm:"column:email;type:text;not null;uniqueIndex" json:"email"`
	PasswordHash string       `gorm:"column:password_hash;type:text;not null" json:"-"`
	DisplayName  string       `gorm:"column:display_name;type:text;not null;default:''" json:"display_name"`
	Role         string       `gorm:"column:role;type:text;not null;default:'user'" json:"role"`
	PlanID       snowflake.ID `gorm:"column:plan_id" json:"plan_id"`
	TOTPSecret   string       `gorm:"column:totp_secret;type:text;not null;default:''" json:"-"`
	TOTPEnabled  bool         `gorm:"column:totp_enabled;not null;default:false" json:"totp_enabled"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }

func (u User) IsAdmin() bool { return u.Role == RoleAdmin }
