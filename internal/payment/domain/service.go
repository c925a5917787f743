package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type CreatePaymentRequest struct {
	UserID      snowflake.ID
	PlanID      snowflake.ID
	Method      string
	PhoneNumber string
}

type ConfirmPaymentRequest struct {
	UserID    snowflake.ID
	PaymentID snowflake.ID
	Status    string
	Reference string
}

type Service interface {
	// Create persists a Pending record and, for MPESA, snapshots the
	// exchange rate and initiates the STK push. When initiation fails
	// the persisted record is returned together with the gateway error:
	// a definite refusal leaves it Failed, an ambiguous timeout leaves
	// it Pending with no checkout request id.
	Create(ctx context.Context, req CreatePaymentRequest) (*Payment, error)

	// HandleCallback applies the asynchronous gateway outcome. Duplicate
	// deliveries for an already-terminal record are a no-op.
	HandleCallback(ctx context.Context, raw []byte) error

	// Confirm applies a client-reported outcome to a manually settled
	// payment through the same terminal transition the callback path
	// uses. MPESA records are rejected; already-terminal records are
	// returned unchanged.
	Confirm(ctx context.Context, req ConfirmPaymentRequest) (*Payment, error)

	// Reconcile resolves a still-Pending record by querying the gateway.
	// While the gateway reports the prompt unresolved the record stays
	// Pending.
	Reconcile(ctx context.Context, userID snowflake.ID, checkoutRequestID string) (*Payment, error)

	Get(ctx context.Context, userID, id snowflake.ID) (*Payment, error)
	History(ctx context.Context, userID snowflake.ID, limit, offset int) ([]Payment, int64, error)

	// AdminList surfaces all payment records, optionally filtered by
	// status.
	AdminList(ctx context.Context, status string, limit, offset int) ([]Payment, int64, error)
}
