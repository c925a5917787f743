// Package domain contains core types for plan payments.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Payment statuses. Pending is the creation state; Successful and
// Failed are terminal and never transition again.
const (
	StatusPending    = "Pending"
	StatusSuccessful = "Successful"
	StatusFailed     = "Failed"
)

// Payment methods. MPESA settles asynchronously through the STK push
// flow; the other methods are settled outside the gateway and finalized
// by an explicit client confirmation.
const (
	MethodMpesa  = "MPESA"
	MethodStripe = "STRIPE"
	MethodPaypal = "PAYPAL"
)

// ValidMethod reports whether m names a supported payment method.
func ValidMethod(m string) bool {
	switch m {
	case MethodMpesa, MethodStripe, MethodPaypal:
		return true
	default:
		return false
	}
}

// Daraja result codes seen on callbacks and status queries.
const (
	ResultCodeSuccess         = 0
	ResultCodeInsufficient    = 1
	ResultCodeCancelledByUser = 1032
	ResultCodeTimeout         = 1037
)

// Payment is the durable record of one STK push attempt. It is never
// deleted; terminal rows are the audit trail of the transaction.
type Payment struct {
	ID                snowflake.ID    `gorm:"primaryKey" json:"id"`
	UserID            snowflake.ID    `gorm:"column:user_id;not null;index" json:"user_id"`
	PlanID            snowflake.ID    `gorm:"column:plan_id;not null" json:"plan_id"`
	Method            string          `gorm:"type:text;not null;default:'MPESA'" json:"method"`
	PhoneNumber       string          `gorm:"column:phone_number;type:text;not null;default:''" json:"phone_number"`
	AmountUSD         decimal.Decimal `gorm:"column:amount_usd;type:numeric(12,2);not null" json:"amount_usd"`
	AmountKES         decimal.Decimal `gorm:"column:amount_kes;type:numeric(12,0);not null" json:"amount_kes"`
	ExchangeRate      decimal.Decimal `gorm:"column:exchange_rate;type:numeric(12,4);not null" json:"exchange_rate"`
	Status            string          `gorm:"type:text;not null;default:'Pending'" json:"status"`
	MerchantRequestID string          `gorm:"column:merchant_request_id;type:text;not null;default:''" json:"merchant_request_id"`
	CheckoutRequestID string          `gorm:"column:checkout_request_id;type:text;not null;default:''" json:"checkout_request_id"`
	ResultCode        *int            `gorm:"column:result_code" json:"result_code,omitempty"`
	ResultDesc        string          `gorm:"column:result_desc;type:text;not null;default:''" json:"result_desc"`
	ReceiptNumber     string          `gorm:"column:receipt_number;type:text;not null;default:''" json:"receipt_number"`
	FailureReason     string          `gorm:"column:failure_reason;type:text;not null;default:''" json:"failure_reason"`
	CompletedAt       *time.Time      `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CreatedAt         time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Payment) TableName() string { return "payments" }

// IsTerminal reports whether the record already holds a final outcome.
func (p Payment) IsTerminal() bool {
	return p.Status == StatusSuccessful || p.Status == StatusFailed
}

// TerminalUpdate is the set of fields written by the single conditional
// transition out of Pending.
type TerminalUpdate struct {
	Status        string
	ResultCode    *int
	ResultDesc    string
	ReceiptNumber string
	FailureReason string
	CompletedAt   time.Time
}

// KESAmount converts a USD price to whole Kenyan shillings using the
// exchange rate snapshot, rounding up so the charge never undercuts
// the plan price.
func KESAmount(priceUSD, rate decimal.Decimal) decimal.Decimal {
	return priceUSD.Mul(rate).Ceil()
}
