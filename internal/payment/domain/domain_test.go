package domain_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stegashield/stegashield/internal/payment/domain"
)

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
		err  bool
	}{
		{in: "254712345678", want: "254712345678"},
		{in: "0712345678", want: "254712345678"},
		{in: "712345678", want: "254712345678"},
		{in: "110123456", want: "254110123456"},
		{in: "+254 712 345 678", want: "254712345678"},
		{in: "07-1234-5678", want: "254712345678"},
		{in: " 0712345678 ", want: "254712345678"},
		{in: "12345", err: true},
		{in: "255712345678", err: true},
		{in: "812345678", err: true},
		{in: "", err: true},
		{in: "not a number", err: true},
	}

	for _, tc := range cases {
		got, err := domain.NormalizePhone(tc.in)
		if tc.err {
			if !errors.Is(err, domain.ErrInvalidPhone) {
				t.Errorf("NormalizePhone(%q): expected ErrInvalidPhone, got %v", tc.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("NormalizePhone(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestKESAmountRoundsUp(t *testing.T) {
	cases := []struct {
		price string
		rate  string
		want  string
	}{
		{price: "25", rate: "140", want: "3500"},
		{price: "9.99", rate: "140", want: "1399"},
		{price: "10", rate: "129.5", want: "1295"},
		{price: "10", rate: "129.51", want: "1296"},
		{price: "0.01", rate: "140", want: "2"},
	}

	for _, tc := range cases {
		price := decimal.RequireFromString(tc.price)
		rate := decimal.RequireFromString(tc.rate)
		want := decimal.RequireFromString(tc.want)
		if got := domain.KESAmount(price, rate); !got.Equal(want) {
			t.Errorf("KESAmount(%s, %s) = %s, want %s", tc.price, tc.rate, got, want)
		}
	}
}

func TestParseCallback(t *testing.T) {
	raw := []byte(`{
		"Body": {
			"stkCallback": {
				"MerchantRequestID": "29115-34620561-1",
				"CheckoutRequestID": "ws_CO_191220191020363925",
				"ResultCode": 0,
				"ResultDesc": "The service request is processed successfully.",
				"CallbackMetadata": {
					"Item": [
						{"Name": "Amount", "Value": 3500.0},
						{"Name": "MpesaReceiptNumber", "Value": "NLJ7RT61SV"},
						{"Name": "TransactionDate", "Value": 20191219102115},
						{"Name": "PhoneNumber", "Value": 254712345678}
					]
				}
			}
		}
	}`)

	cb, err := domain.ParseCallback(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cb.CheckoutRequestID != "ws_CO_191220191020363925" {
		t.Fatalf("unexpected checkout request id %q", cb.CheckoutRequestID)
	}
	if cb.ResultCode != 0 {
		t.Fatalf("unexpected result code %d", cb.ResultCode)
	}
	if got := cb.ReceiptNumber(); got != "NLJ7RT61SV" {
		t.Fatalf("expected receipt from metadata, got %q", got)
	}
}

func TestParseCallbackFailureHasNoReceipt(t *testing.T) {
	raw := []byte(`{
		"Body": {
			"stkCallback": {
				"MerchantRequestID": "29115-34620561-1",
				"CheckoutRequestID": "ws_CO_191220191020363925",
				"ResultCode": 1032,
				"ResultDesc": "Request cancelled by user"
			}
		}
	}`)

	cb, err := domain.ParseCallback(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cb.ResultCode != domain.ResultCodeCancelledByUser {
		t.Fatalf("unexpected result code %d", cb.ResultCode)
	}
	if got := cb.ReceiptNumber(); got != "" {
		t.Fatalf("failure callback must have no receipt, got %q", got)
	}
}

func TestParseCallbackInvalid(t *testing.T) {
	if _, err := domain.ParseCallback([]byte("nope")); !errors.Is(err, domain.ErrInvalidCallback) {
		t.Fatalf("expected ErrInvalidCallback, got %v", err)
	}
	if _, err := domain.ParseCallback([]byte(`{"Body":{"stkCallback":{"ResultCode":0,"CheckoutRequestID":"  "}}}`)); !errors.Is(err, domain.ErrInvalidCallback) {
		t.Fatalf("expected ErrInvalidCallback for blank checkout request id, got %v", err)
	}
}

func TestPaymentIsTerminal(t *testing.T) {
	if (domain.Payment{Status: domain.StatusPending}).IsTerminal() {
		t.Fatalf("Pending must not be terminal")
	}
	if !(domain.Payment{Status: domain.StatusSuccessful}).IsTerminal() {
		t.Fatalf("Successful must be terminal")
	}
	if !(domain.Payment{Status: domain.StatusFailed}).IsTerminal() {
		t.Fatalf("Failed must be terminal")
	}
}
