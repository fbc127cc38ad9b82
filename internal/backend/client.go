// Package backend is the HTTP client for the marketplace endpoints the checkout consumes.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/go_cart/sponsor-checkout/domain"
	"github.com/fjod/go_cart/sponsor-checkout/pkg/circuitbreaker"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const maxResponseBody = 1 << 20

type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	breaker    *gobreaker.CircuitBreaker[*rawResponse]
}

type Option func(*Client)

// WithHTTPClient replaces the instrumented default client (tests use httptest clients).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithBreakerSettings(s circuitbreaker.Settings) Option {
	return func(c *Client) {
		c.breaker = newBreaker(s)
	}
}

func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		timeout: timeout,
		breaker: newBreaker(circuitbreaker.DefaultSettings()),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func newBreaker(s circuitbreaker.Settings) *gobreaker.CircuitBreaker[*rawResponse] {
	// 4xx answers are the backend working correctly; only transport errors and 5xx trip it.
	s.IsSuccessful = func(err error) bool {
		var apiErr *APIError
		return err == nil || (errors.As(err, &apiErr) && apiErr.IsClientError())
	}
	return circuitbreaker.New[*rawResponse]("marketplace-backend", s)
}

type rawResponse struct {
	status int
	body   []byte
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// do sends one request. Transport failures and an open breaker become *domain.NetworkError,
// 404 becomes ErrNotFound, other non-2xx answers become *APIError.
func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	var payload []byte
	if in != nil {
		var err error
		payload, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", op, err)
		}
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.breaker.Execute(func() (*rawResponse, error) {
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(reqCtx, method, c.baseURL+path, body)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		httpResp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer httpResp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBody))
		if err != nil {
			return nil, err
		}
		raw := &rawResponse{status: httpResp.StatusCode, body: data}
		if httpResp.StatusCode >= 400 && httpResp.StatusCode != http.StatusNotFound {
			return raw, newAPIError(op, raw)
		}
		return raw, nil
	})
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return apiErr
		}
		return &domain.NetworkError{Op: op, Err: err}
	}

	if resp.status == http.StatusNotFound {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if out == nil || len(bytes.TrimSpace(resp.body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

func newAPIError(op string, raw *rawResponse) *APIError {
	msg := strings.TrimSpace(string(raw.body))
	var eb errorBody
	if json.Unmarshal(raw.body, &eb) == nil {
		if eb.Error != "" {
			msg = eb.Error
		} else if eb.Message != "" {
			msg = eb.Message
		}
	}
	if msg == "" {
		msg = http.StatusText(raw.status)
	}
	return &APIError{Op: op, StatusCode: raw.status, Message: msg}
}
