package domain

import "errors"

var (
	ErrPaymentNotFound   = errors.New("payment not found")
	ErrInvalidPhone      = errors.New("invalid phone number")
	ErrFreePlan          = errors.New("plan requires no payment")
	ErrUnmatchedCallback = errors.New("unmatched callback")
	ErrInvalidCallback   = errors.New("invalid callback payload")
	ErrNotPending        = errors.New("payment not pending")
	ErrNoCorrelation     = errors.New("payment has no checkout request id")
	ErrInvalidMethod     = errors.New("unsupported payment method")
	ErrInvalidStatus     = errors.New("invalid confirmation status")

	// ErrNotConfirmable rejects manual confirmation of MPESA records;
	// those are finalized only by the gateway callback or the status
	// query.
	ErrNotConfirmable = errors.New("payment is not manually confirmable")

	// ErrGatewayRejected means the gateway definitively refused the
	// initiation; the record is marked Failed.
	ErrGatewayRejected = errors.New("gateway rejected request")

	// ErrGatewayAmbiguous means the initiation timed out with no
	// response. The push may still have gone out, so the record is left
	// Pending with no checkout request id rather than marked Failed.
	ErrGatewayAmbiguous = errors.New("gateway outcome unknown")

	// ErrStillProcessing is returned by a status query while the user
	// has not yet acted on the STK prompt.
	ErrStillProcessing = errors.New("transaction still processing")
)
