package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fjod/go_cart/sponsor-checkout/domain"
	"github.com/fjod/go_cart/sponsor-checkout/pkg/circuitbreaker"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payPalServer struct {
	tokenCalls atomic.Int32
	lastOrder  createOrderBody
	capture    string
}

func (p *payPalServer) router(t *testing.T) http.Handler {
	r := chi.NewRouter()
	r.Post("/v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		p.tokenCalls.Add(1)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "client", user)
		assert.Equal(t, "secret", pass)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		_ = json.NewEncoder(w).Encode(tokenResponse{AccessToken: "tok-1", TokenType: "Bearer", ExpiresIn: 3600})
	})
	r.Post("/v2/checkout/orders", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&p.lastOrder))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"ORDER-9","status":"CREATED"}`))
	})
	r.Post("/v2/checkout/orders/{id}/capture", func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "id") == "BAD" {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"name":"UNPROCESSABLE_ENTITY","message":"ORDER_NOT_APPROVED"}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":"` + chi.URLParam(r, "id") + `","status":"COMPLETED",
			"purchase_units":[{"payments":{"captures":[{"id":"CAP-7","status":"` + p.capture + `"}]}}]}`))
	})
	return r
}

func newPayPalTest(t *testing.T) (*PayPalClient, *payPalServer) {
	p := &payPalServer{capture: "COMPLETED"}
	srv := httptest.NewServer(p.router(t))
	t.Cleanup(srv.Close)
	c := NewPayPalClient(PayPalConfig{BaseURL: srv.URL, ClientID: "client", ClientSecret: "secret"}, srv.Client())
	return c, p
}

func TestPayPalClient_CreateOrder(t *testing.T) {
	c, p := newPayPalTest(t)

	order, err := c.CreateOrder(context.Background(), PayPalOrderRequest{
		ReferenceID: "chk-1",
		CustomID:    "sp-1,sp-2",
		Amount:      decimal.RequireFromString("108"),
	})

	require.NoError(t, err)
	assert.Equal(t, "ORDER-9", order.ID)
	assert.Equal(t, "CAPTURE", p.lastOrder.Intent)
	require.Len(t, p.lastOrder.PurchaseUnits, 1)
	assert.Equal(t, "108.00", p.lastOrder.PurchaseUnits[0].Amount.Value)
	assert.Equal(t, "USD", p.lastOrder.PurchaseUnits[0].Amount.CurrencyCode)
	assert.Equal(t, "sp-1,sp-2", p.lastOrder.PurchaseUnits[0].CustomID)
}

func TestPayPalClient_CaptureReadsCaptureStatus(t *testing.T) {
	c, p := newPayPalTest(t)
	p.capture = "DECLINED"

	capture, err := c.CaptureOrder(context.Background(), "ORDER-9")

	require.NoError(t, err)
	assert.Equal(t, "CAP-7", capture.CaptureID)
	assert.Equal(t, "DECLINED", capture.Status)
}

func TestPayPalClient_ErrorResponse(t *testing.T) {
	c, _ := newPayPalTest(t)

	_, err := c.CaptureOrder(context.Background(), "BAD")

	var ppErr *PayPalError
	require.ErrorAs(t, err, &ppErr)
	assert.Equal(t, http.StatusUnprocessableEntity, ppErr.StatusCode)
	assert.Equal(t, "ORDER_NOT_APPROVED", ppErr.Message)
}

func TestPayPalClient_TokenCachedUntilNearExpiry(t *testing.T) {
	c, p := newPayPalTest(t)
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	_, err := c.CaptureOrder(ctx, "ORDER-1")
	require.NoError(t, err)
	now = now.Add(58 * time.Minute)
	_, err = c.CaptureOrder(ctx, "ORDER-2")
	require.NoError(t, err)
	assert.Equal(t, int32(1), p.tokenCalls.Load())

	now = now.Add(time.Minute + time.Second)
	_, err = c.CaptureOrder(ctx, "ORDER-3")
	require.NoError(t, err)
	assert.Equal(t, int32(2), p.tokenCalls.Load())
}

func TestPayPalClient_TransportFailureIsNetworkError(t *testing.T) {
	c := NewPayPalClient(PayPalConfig{BaseURL: "http://127.0.0.1:1", ClientID: "client", ClientSecret: "secret"}, nil)

	_, err := c.CreateOrder(context.Background(), PayPalOrderRequest{Amount: decimal.NewFromInt(1)})

	var netErr *domain.NetworkError
	assert.ErrorAs(t, err, &netErr)
}

func TestPayPalClient_BreakerOpensOnServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"name":"INTERNAL_SERVER_ERROR","message":"try later"}`))
	}))
	t.Cleanup(srv.Close)
	c := NewPayPalClient(PayPalConfig{
		BaseURL:      srv.URL,
		ClientID:     "client",
		ClientSecret: "secret",
		Breaker:      circuitbreaker.Settings{ConsecutiveFailures: 2, OpenTimeout: time.Minute},
	}, srv.Client())
	ctx := context.Background()

	for range 2 {
		_, err := c.CaptureOrder(ctx, "ORDER-1")
		var ppErr *PayPalError
		require.ErrorAs(t, err, &ppErr)
		assert.Equal(t, http.StatusInternalServerError, ppErr.StatusCode)
	}

	_, err := c.CaptureOrder(ctx, "ORDER-1")
	var netErr *domain.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.True(t, circuitbreaker.IsOpen(err))
	assert.True(t, domain.IsRetryable(err))
	assert.Equal(t, int32(2), hits.Load())
}

func TestPayPalClient_ClientErrorsDoNotOpenBreaker(t *testing.T) {
	p := &payPalServer{capture: "COMPLETED"}
	srv := httptest.NewServer(p.router(t))
	t.Cleanup(srv.Close)
	c := NewPayPalClient(PayPalConfig{
		BaseURL:      srv.URL,
		ClientID:     "client",
		ClientSecret: "secret",
		Breaker:      circuitbreaker.Settings{ConsecutiveFailures: 1, OpenTimeout: time.Minute},
	}, srv.Client())
	ctx := context.Background()

	for range 3 {
		_, err := c.CaptureOrder(ctx, "BAD")
		var ppErr *PayPalError
		require.ErrorAs(t, err, &ppErr)
	}
	capture, err := c.CaptureOrder(ctx, "ORDER-2")
	require.NoError(t, err)
	assert.Equal(t, "CAP-7", capture.CaptureID)
}

func TestPayPalClient_OversizedResponseIsTruncated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/oauth2/token" {
			_ = json.NewEncoder(w).Encode(tokenResponse{AccessToken: "tok-1", ExpiresIn: 3600})
			return
		}
		_, _ = w.Write([]byte(`{"id":"ORDER-9","status":"`))
		_, _ = w.Write([]byte(strings.Repeat("A", maxPayPalResponseBody)))
		_, _ = w.Write([]byte(`"}`))
	}))
	t.Cleanup(srv.Close)
	c := NewPayPalClient(PayPalConfig{BaseURL: srv.URL, ClientID: "client", ClientSecret: "secret"}, srv.Client())

	_, err := c.CreateOrder(context.Background(), PayPalOrderRequest{Amount: decimal.NewFromInt(1)})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
	var ppErr *PayPalError
	assert.False(t, errors.As(err, &ppErr))
}
