// Package domain contains core types for watermark uploads and
// verification reports.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Verification verdicts supplied by the analysis pipeline.
const (
	VerdictAuthentic  = "authentic"
	VerdictTampered   = "tampered"
	VerdictInconclusive = "inconclusive"
)

// Upload is the stored record of a watermarked asset. The binary
// itself lives in object storage; this row carries its identity.
type Upload struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID      snowflake.ID `gorm:"column:user_id;not null;index" json:"user_id"`
	FileName    string       `gorm:"column:file_name;type:text;not null" json:"file_name"`
	ContentType string       `gorm:"column:content_type;type:text;not null;default:''" json:"content_type"`
	SizeBytes   int64        `gorm:"column:size_bytes;not null;default:0" json:"size_bytes"`
	SHA256      string       `gorm:"column:sha256;type:text;not null" json:"sha256"`
	WatermarkID string       `gorm:"column:watermark_id;type:text;not null;default:''" json:"watermark_id"`
	Flagged     bool         `gorm:"not null;default:false" json:"flagged"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Upload) TableName() string { return "uploads" }

// VerificationReport stores one externally produced verification
// result, optionally tied to a known upload.
type VerificationReport struct {
	ID         snowflake.ID    `gorm:"primaryKey" json:"id"`
	UserID     snowflake.ID    `gorm:"column:user_id;not null;index" json:"user_id"`
	UploadID   *snowflake.ID   `gorm:"column:upload_id" json:"upload_id,omitempty"`
	Verdict    string          `gorm:"type:text;not null" json:"verdict"`
	Confidence decimal.Decimal `gorm:"type:numeric(5,4);not null;default:0" json:"confidence"`
	Detail     datatypes.JSON  `gorm:"type:jsonb;not null;default:'{}'" json:"detail"`
	CreatedAt  time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (VerificationReport) TableName() string { return "verification_reports" }
