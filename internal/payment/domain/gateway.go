package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// STKPushRequest is the initiation call sent to the gateway. Amount is
// whole shillings; the phone number is already normalized to the
// 2547XXXXXXXX form.
type STKPushRequest struct {
	PhoneNumber string
	Amount      decimal.Decimal
	Reference   string
	Description string
}

// STKPushResponse carries the gateway correlation ids for an accepted
// initiation. CheckoutRequestID is the key the callback will use.
type STKPushResponse struct {
	MerchantRequestID string
	CheckoutRequestID string
	ResponseDesc      string
}

// QueryResponse is the resolved outcome of a status query.
type QueryResponse struct {
	ResultCode int
	ResultDesc string
}

// Gateway is the outbound payment gateway client.
type Gateway interface {
	// InitiateSTKPush sends the push prompt. A definite refusal returns
	// ErrGatewayRejected; a timeout with no response returns
	// ErrGatewayAmbiguous and the caller must not assume the push was
	// never sent.
	InitiateSTKPush(ctx context.Context, req STKPushRequest) (*STKPushResponse, error)

	// QueryStatus resolves a prior initiation by checkout request id.
	// Returns ErrStillProcessing while the prompt is unresolved. Safe
	// to call repeatedly.
	QueryStatus(ctx context.Context, checkoutRequestID string) (*QueryResponse, error)
}
