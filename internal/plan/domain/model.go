// Package domain contains core types for subscription plans.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	CodeFree       = "free"
	CodePro        = "pro"
	CodeEnterprise = "enterprise"
)

// Plan describes a subscription tier and its monthly quotas.
type Plan struct {
	ID          snowflake.ID    `gorm:"primaryKey" json:"id"`
	Code        string          `gorm:"type:text;not null;uniqueIndex" json:"code"`
	Name        string          `gorm:"type:text;not null" json:"name"`
	Description string          `gorm:"type:text;not null;default:''" json:"description"`
	PriceUSD    decimal.Decimal `gorm:"column:price_usd;type:numeric(12,2);not null;default:0" json:"price_usd"`
	UploadLimit int             `gorm:"column:upload_limit;not null;default:0" json:"upload_limit"`
	VerifyLimit int             `gorm:"column:verify_limit;not null;default:0" json:"verify_limit"`
	Features    datatypes.JSON  `gorm:"type:jsonb;not null;default:'[]'" json:"features"`
	Active      bool            `gorm:"not null;default:true" json:"active"`
	CreatedAt   time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Plan) TableName() string { return "plans" }

// IsFree reports whether the plan can be assigned without payment.
func (p Plan) IsFree() bool { return p.PriceUSD.IsZero() }
