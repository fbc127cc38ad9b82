package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/fjod/go_cart/sponsor-checkout/domain"
	"github.com/fjod/go_cart/sponsor-checkout/pkg/circuitbreaker"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
)

const (
	PayPalSandboxBaseURL = "https://api-m.sandbox.paypal.com"
	PayPalLiveBaseURL    = "https://api-m.paypal.com"

	payPalStatusCompleted = "COMPLETED"
	tokenRenewalMargin    = 60 * time.Second
	maxPayPalResponseBody = 1 << 20
)

type PayPalConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Currency     string
	// Breaker tunes the "paypal" circuit breaker; zero values take the defaults.
	Breaker circuitbreaker.Settings
}

// PayPalError is a non-2xx answer from the PayPal REST API.
type PayPalError struct {
	StatusCode int
	Name       string `json:"name"`
	Message    string `json:"message"`
}

func (e *PayPalError) Error() string {
	return fmt.Sprintf("paypal returned %d: %s %s", e.StatusCode, e.Name, e.Message)
}

type PayPalOrderRequest struct {
	ReferenceID string
	CustomID    string
	Description string
	Amount      decimal.Decimal
}

type PayPalOrder struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type PayPalCapture struct {
	OrderID   string
	Status    string
	CaptureID string
}

// PayPalClient talks to the PayPal Orders v2 API with a cached client-credentials token.
type PayPalClient struct {
	cfg        PayPalConfig
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]byte]
	now        func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

func NewPayPalClient(cfg PayPalConfig, httpClient *http.Client) *PayPalClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = PayPalSandboxBaseURL
	}
	if cfg.Currency == "" {
		cfg.Currency = "USD"
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	breakerSettings := cfg.Breaker
	// 4xx answers are PayPal rejecting the request, not PayPal being down.
	breakerSettings.IsSuccessful = func(err error) bool {
		var ppErr *PayPalError
		return err == nil || (errors.As(err, &ppErr) && ppErr.StatusCode < http.StatusInternalServerError)
	}
	return &PayPalClient{
		cfg:        cfg,
		httpClient: httpClient,
		breaker:    circuitbreaker.New[[]byte]("paypal", breakerSettings),
		now:        time.Now,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// accessToken returns the cached token, fetching a new one once it is within a minute of expiry.
func (c *PayPalClient) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && c.now().Before(c.expiresAt) {
		return c.token, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("creating paypal auth request: %w", err)
	}
	req.SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	var tok tokenResponse
	if err := c.send(req, "paypal auth", &tok); err != nil {
		return "", err
	}
	if tok.AccessToken == "" {
		return "", &PayPalError{StatusCode: http.StatusOK, Message: "access token not found in response"}
	}
	c.token = tok.AccessToken
	c.expiresAt = c.now().Add(time.Duration(tok.ExpiresIn)*time.Second - tokenRenewalMargin)
	return c.token, nil
}

type payPalAmount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type payPalPurchaseUnit struct {
	ReferenceID string       `json:"reference_id,omitempty"`
	CustomID    string       `json:"custom_id,omitempty"`
	Description string       `json:"description,omitempty"`
	Amount      payPalAmount `json:"amount"`
}

type createOrderBody struct {
	Intent        string               `json:"intent"`
	PurchaseUnits []payPalPurchaseUnit `json:"purchase_units"`
}

func (c *PayPalClient) CreateOrder(ctx context.Context, order PayPalOrderRequest) (*PayPalOrder, error) {
	body := createOrderBody{
		Intent: "CAPTURE",
		PurchaseUnits: []payPalPurchaseUnit{{
			ReferenceID: order.ReferenceID,
			CustomID:    order.CustomID,
			Description: order.Description,
			Amount:      payPalAmount{CurrencyCode: c.cfg.Currency, Value: order.Amount.StringFixed(2)},
		}},
	}
	var created PayPalOrder
	if err := c.call(ctx, "paypal create order", "/v2/checkout/orders", body, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

type captureResponse struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	PurchaseUnits []struct {
		Payments struct {
			Captures []struct {
				ID     string `json:"id"`
				Status string `json:"status"`
			} `json:"captures"`
		} `json:"payments"`
	} `json:"purchase_units"`
}

func (c *PayPalClient) CaptureOrder(ctx context.Context, orderID string) (*PayPalCapture, error) {
	var resp captureResponse
	path := "/v2/checkout/orders/" + url.PathEscape(orderID) + "/capture"
	if err := c.call(ctx, "paypal capture order", path, struct{}{}, &resp); err != nil {
		return nil, err
	}
	capture := &PayPalCapture{OrderID: resp.ID, Status: resp.Status}
	for _, unit := range resp.PurchaseUnits {
		for _, cp := range unit.Payments.Captures {
			capture.CaptureID = cp.ID
			if cp.Status != "" {
				capture.Status = cp.Status
			}
		}
	}
	return capture, nil
}

func (c *PayPalClient) call(ctx context.Context, op, path string, in, out any) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s: marshal request: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%s: create request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	return c.send(req, op, out)
}

func (c *PayPalClient) send(req *http.Request, op string, out any) error {
	body, err := c.breaker.Execute(func() ([]byte, error) {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxPayPalResponseBody))
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusBadRequest {
			return nil, newPayPalError(resp.StatusCode, data)
		}
		return data, nil
	})
	if err != nil {
		var ppErr *PayPalError
		if errors.As(err, &ppErr) {
			return ppErr
		}
		return &domain.NetworkError{Op: op, Err: err}
	}

	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

func newPayPalError(status int, body []byte) *PayPalError {
	ppErr := &PayPalError{}
	_ = json.Unmarshal(body, ppErr)
	ppErr.StatusCode = status
	if ppErr.Message == "" {
		ppErr.Message = strings.TrimSpace(string(body))
	}
	return ppErr
}
