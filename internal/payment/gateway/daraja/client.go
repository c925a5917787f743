// Package daraja implements the Safaricom Daraja STK push client.
package daraja

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/stegashield/stegashield/internal/config"
	"github.com/stegashield/stegashield/internal/payment/domain"
	"go.uber.org/zap"
)

const (
	tokenPath   = "/oauth/v1/generate?grant_type=client_credentials"
	stkPushPath = "/mpesa/stkpush/v1/processrequest"
	queryPath   = "/mpesa/stkpushquery/v1/query"

	timestampLayout = "20060102150405"

	// Daraja reports a transaction still awaiting the user's PIN with
	// this error code on the query endpoint.
	errCodeProcessing = "500.001.1001"
)

type Client struct {
	cfg  config.MpesaConfig
	http *http.Client
	log  *zap.Logger

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

func NewClient(cfg config.MpesaConfig, log *zap.Logger) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  log.Named("payment.daraja"),
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
}

type stkPushPayload struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            string `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

type stkPushResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
}

type queryPayload struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	CheckoutRequestID string `json:"CheckoutRequestID"`
}

type queryResponse struct {
	ResponseCode string `json:"ResponseCode"`
	ResultCode   string `json:"ResultCode"`
	ResultDesc   string `json:"ResultDesc"`
}

type errorResponse struct {
	RequestID    string `json:"requestId"`
	ErrorCode    string `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}

// InitiateSTKPush sends the push prompt to the user's phone.
func (c *Client) InitiateSTKPush(ctx context.Context, req domain.STKPushRequest) (*domain.STKPushResponse, error) {
	timestamp := time.Now().Format(timestampLayout)
	payload := stkPushPayload{
		BusinessShortCode: c.cfg.ShortCode,
		Password:          c.password(timestamp),
		Timestamp:         timestamp,
		TransactionType:   "CustomerPayBillOnline",
		Amount:            req.Amount.String(),
		PartyA:            req.PhoneNumber,
		PartyB:            c.cfg.ShortCode,
		PhoneNumber:       req.PhoneNumber,
		CallBackURL:       c.cfg.CallbackURL,
		AccountReference:  req.Reference,
		TransactionDesc:   req.Description,
	}

	var resp stkPushResponse
	if err := c.postJSON(ctx, stkPushPath, payload, &resp); err != nil {
		return nil, err
	}
	if resp.ResponseCode != "0" {
		return nil, fmt.Errorf("%w: %s", domain.ErrGatewayRejected, resp.ResponseDescription)
	}
	if resp.CheckoutRequestID == "" {
		return nil, fmt.Errorf("%w: missing checkout request id", domain.ErrGatewayRejected)
	}

	return &domain.STKPushResponse{
		MerchantRequestID: resp.MerchantRequestID,
		CheckoutRequestID: resp.CheckoutRequestID,
		ResponseDesc:      resp.ResponseDescription,
	}, nil
}

// QueryStatus resolves a prior initiation. Safe to call repeatedly.
func (c *Client) QueryStatus(ctx context.Context, checkoutRequestID string) (*domain.QueryResponse, error) {
	timestamp := time.Now().Format(timestampLayout)
	payload := queryPayload{
		BusinessShortCode: c.cfg.ShortCode,
		Password:          c.password(timestamp),
		Timestamp:         timestamp,
		CheckoutRequestID: checkoutRequestID,
	}

	var resp queryResponse
	if err := c.postJSON(ctx, queryPath, payload, &resp); err != nil {
		var gatewayErr *GatewayError
		if errors.As(err, &gatewayErr) && gatewayErr.Code == errCodeProcessing {
			return nil, domain.ErrStillProcessing
		}
		return nil, err
	}

	code, err := strconv.Atoi(strings.TrimSpace(resp.ResultCode))
	if err != nil {
		return nil, fmt.Errorf("%w: unparseable result code %q", domain.ErrGatewayRejected, resp.ResultCode)
	}
	return &domain.QueryResponse{
		ResultCode: code,
		ResultDesc: resp.ResultDesc,
	}, nil
}

// GatewayError is a structured refusal from the Daraja API.
type GatewayError struct {
	Status  int
	Code    string
	Message string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("daraja: %s (%s)", e.Message, e.Code)
}

func (e *GatewayError) Unwrap() error { return domain.ErrGatewayRejected }

func (c *Client) password(timestamp string) string {
	return base64.StdEncoding.EncodeToString([]byte(c.cfg.ShortCode + c.cfg.Passkey + timestamp))
}

// postJSON sends an authenticated request, refreshing the token and
// retrying once on a 401.
func (c *Client) postJSON(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	retried := false
	for {
		token, err := c.token(ctx)
		if err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := c.http.Do(req)
		if err != nil {
			return classifyTransportErr(err)
		}

		raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		resp.Body.Close()
		if readErr != nil {
			return classifyTransportErr(readErr)
		}

		if resp.StatusCode == http.StatusUnauthorized && !retried {
			retried = true
			c.invalidateToken()
			continue
		}

		if resp.StatusCode >= 400 {
			var apiErr errorResponse
			if json.Unmarshal(raw, &apiErr) == nil && apiErr.ErrorCode != "" {
				return &GatewayError{Status: resp.StatusCode, Code: apiErr.ErrorCode, Message: apiErr.ErrorMessage}
			}
			return fmt.Errorf("%w: http %d", domain.ErrGatewayRejected, resp.StatusCode)
		}

		return json.Unmarshal(raw, out)
	}
}

// token returns a cached access token, fetching a fresh one when the
// cache is empty or within 30s of expiry.
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.accessToken != "" && time.Now().Before(c.tokenExpiry.Add(-30*time.Second)) {
		token := c.accessToken
		c.mu.Unlock()
		return token, nil
	}
	c.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+tokenPath, nil)
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.cfg.ConsumerKey, c.cfg.ConsumerSecret)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", classifyTransportErr(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: token request returned http %d", domain.ErrGatewayRejected, resp.StatusCode)
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", err
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", domain.ErrGatewayRejected)
	}

	ttl, err := strconv.Atoi(tok.ExpiresIn)
	if err != nil || ttl <= 0 {
		ttl = 3600
	}

	c.mu.Lock()
	c.accessToken = tok.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(ttl) * time.Second)
	c.mu.Unlock()

	c.log.Debug("refreshed daraja access token", zap.Int("ttl_seconds", ttl))
	return tok.AccessToken, nil
}

func (c *Client) invalidateToken() {
	c.mu.Lock()
	c.accessToken = ""
	c.tokenExpiry = time.Time{}
	c.mu.Unlock()
}

// classifyTransportErr separates a timeout, where the gateway may have
// accepted the request before the response was lost, from an error
// where the request never went out.
func classifyTransportErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", domain.ErrGatewayAmbiguous, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", domain.ErrGatewayAmbiguous, err)
	}
	return fmt.Errorf("%w: %v", domain.ErrGatewayRejected, err)
}
