package mpesa

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/kodipay/kodipay/internal/payment"
)

const (
	sandboxBaseURL    = "https://sandbox.safaricom.co.ke"
	productionBaseURL = "https://api.safaricom.co.ke"

	// Daraja tokens live for 3599s; refresh a little early.
	tokenSlack = 2 * time.Minute
)

type Config struct {
	ConsumerKey    string
	ConsumerSecret string
	ShortCode      string
	Passkey        string
	CallbackURL    string
	Environment    string // "sandbox" or "production"
}

// Client talks to the Daraja STK push API. It implements payment.Gateway.
type Client struct {
	http *resty.Client
	cfg  Config
	now  func() time.Time

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

func NewClient(cfg Config) *Client {
	baseURL := sandboxBaseURL
	if cfg.Environment == "production" {
		baseURL = productionBaseURL
	}

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{
		http: httpClient,
		cfg:  cfg,
		now:  time.Now,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	var tr tokenResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetBasicAuth(c.cfg.ConsumerKey, c.cfg.ConsumerSecret).
		SetQueryParam("grant_type", "client_credentials").
		SetResult(&tr).
		Get("/oauth/v1/generate")
	if err != nil {
		return "", fmt.Errorf("requesting access token: %w: %w", err, payment.ErrGatewayUnavailable)
	}

	if resp.IsError() || tr.AccessToken == "" {
		slog.Error("mpesa token exchange failed", "status", resp.StatusCode())
		return "", fmt.Errorf("token exchange returned status %d: %w", resp.StatusCode(), payment.ErrGatewayUnavailable)
	}

	ttl := time.Hour
	if secs, err := strconv.Atoi(tr.ExpiresIn); err == nil {
		ttl = time.Duration(secs) * time.Second
	}

	c.token = tr.AccessToken
	c.tokenExpiry = c.now().Add(ttl - tokenSlack)

	return c.token, nil
}

type stkPushRequest struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            int64  `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

type stkPushResponse struct {
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	MerchantRequestID   string `json:"MerchantRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
}

// STKPush submits a payment prompt to the customer's phone and returns the
// CheckoutRequestID as the provisional correlation key. No payment record
// exists yet when this fails, so the caller must not create one.
func (c *Client) STKPush(ctx context.Context, phone string, amount int64, accountRef, description string) (payment.Handle, error) {
	msisdn, err := NormalizePhone(phone)
	if err != nil {
		return payment.Handle{}, err
	}

	token, err := c.accessToken(ctx)
	if err != nil {
		return payment.Handle{}, err
	}

	timestamp := c.now().Format("20060102150405")

	var sr stkPushResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetBody(stkPushRequest{
			BusinessShortCode: c.cfg.ShortCode,
			Password:          stkPassword(c.cfg.ShortCode, c.cfg.Passkey, timestamp),
			Timestamp:         timestamp,
			TransactionType:   "CustomerPayBillOnline",
			Amount:            amount,
			PartyA:            msisdn,
			PartyB:            c.cfg.ShortCode,
			PhoneNumber:       msisdn,
			CallBackURL:       c.cfg.CallbackURL,
			AccountReference:  accountRef,
			TransactionDesc:   description,
		}).
		SetResult(&sr).
		Post("/mpesa/stkpush/v1/processrequest")
	if err != nil {
		return payment.Handle{}, fmt.Errorf("submitting stk push: %w: %w", err, payment.ErrGatewayUnavailable)
	}

	if resp.IsError() || sr.CheckoutRequestID == "" {
		slog.Error("mpesa stk push rejected", "status", resp.StatusCode(), "description", sr.ResponseDescription)
		return payment.Handle{}, fmt.Errorf("stk push returned status %d: %w", resp.StatusCode(), payment.ErrGatewayUnavailable)
	}

	return payment.Handle{CorrelationKey: sr.CheckoutRequestID}, nil
}

type stkQueryResponse struct {
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResultCode          string `json:"ResultCode"`
	ResultDesc          string `json:"ResultDesc"`
}

// Confirm queries the gateway for the final status of a push. The result is
// expressed in the same vocabulary as callbacks so reconciliation treats both
// sources identically.
func (c *Client) Confirm(ctx context.Context, correlationKey string) (payment.Outcome, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return payment.Outcome{}, err
	}

	timestamp := c.now().Format("20060102150405")

	var qr stkQueryResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetBody(map[string]string{
			"BusinessShortCode": c.cfg.ShortCode,
			"Password":          stkPassword(c.cfg.ShortCode, c.cfg.Passkey, timestamp),
			"Timestamp":         timestamp,
			"CheckoutRequestID": correlationKey,
		}).
		SetResult(&qr).
		Post("/mpesa/stkpushquery/v1/query")
	if err != nil {
		return payment.Outcome{}, fmt.Errorf("querying stk status: %w: %w", err, payment.ErrGatewayUnavailable)
	}

	if resp.IsError() {
		return payment.Outcome{}, fmt.Errorf("stk query returned status %d: %w", resp.StatusCode(), payment.ErrGatewayUnavailable)
	}

	// Daraja acknowledges queries for in-flight pushes without a ResultCode.
	// That is not a failure: the customer may still be typing their PIN.
	if qr.ResultCode == "" {
		return payment.Outcome{}, fmt.Errorf("stk push %s has no final result yet: %w", correlationKey, payment.ErrStillProcessing)
	}

	out := payment.Outcome{
		CorrelationKey: correlationKey,
		Success:        qr.ResultCode == "0",
	}
	if !out.Success {
		out.Reason = qr.ResultDesc
	}

	return out, nil
}
