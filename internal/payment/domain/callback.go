package domain

import (
	"encoding/json"
	"strings"
)

// CallbackEnvelope is the webhook body sent by the Daraja gateway after
// an STK push resolves. The shape is tolerated being absent or
// malformed; the webhook endpoint acknowledges regardless.
type CallbackEnvelope struct {
	Body struct {
		StkCallback StkCallback `json:"stkCallback"`
	} `json:"Body"`
}

type StkCallback struct {
	MerchantRequestID string `json:"MerchantRequestID"`
	CheckoutRequestID string `json:"CheckoutRequestID"`
	ResultCode        int    `json:"ResultCode"`
	ResultDesc        string `json:"ResultDesc"`
	CallbackMetadata  struct {
		Item []CallbackItem `json:"Item"`
	} `json:"CallbackMetadata"`
}

type CallbackItem struct {
	Name  string `json:"Name"`
	Value any    `json:"Value"`
}

// ParseCallback decodes a raw webhook body. A payload that decodes but
// carries no checkout request id is invalid.
func ParseCallback(raw []byte) (*StkCallback, error) {
	var envelope CallbackEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, ErrInvalidCallback
	}
	cb := envelope.Body.StkCallback
	if strings.TrimSpace(cb.CheckoutRequestID) == "" {
		return nil, ErrInvalidCallback
	}
	return &cb, nil
}

// ReceiptNumber extracts the gateway receipt from the success metadata.
func (c StkCallback) ReceiptNumber() string {
	for _, item := range c.CallbackMetadata.Item {
		if item.Name != "MpesaReceiptNumber" {
			continue
		}
		if v, ok := item.Value.(string); ok {
			return v
		}
	}
	return ""
}
