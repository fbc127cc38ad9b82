package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fjod/go_cart/sponsor-checkout/domain"
	"github.com/fjod/go_cart/sponsor-checkout/internal/checkout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(svc *CheckoutServiceMock) http.Handler {
	return NewRouter(RouterConfig{
		Checkout:       NewCheckoutHandler(svc, CheckVerifierMock{}, 5*time.Second),
		Identity:       NewIdentityHandler(&SponsorIdentityMock{}, GuestSessionsMock{}, testSecret, time.Hour, 5*time.Second),
		JWTSecret:      testSecret,
		RequestTimeout: 5 * time.Second,
	})
}

func TestRouter_Health(t *testing.T) {
	rec := httptest.NewRecorder()

	newTestRouter(&CheckoutServiceMock{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRouter_SubmitCarriesClientAndAuth(t *testing.T) {
	svc := &CheckoutServiceMock{submitResult: &checkout.SubmitResult{}}
	token, err := SignToken(&domain.AuthContext{UserID: "u-9", Email: "ann@acme.test", EmailVerified: true}, testSecret, time.Hour)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(submitBody))
	req.Header.Set(ClientIDHeader, "client-7")
	req.Header.Set("Authorization", "Bearer "+token)

	newTestRouter(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "client-7", svc.lastSubmit.ClientID)
	require.NotNil(t, svc.lastSubmit.Auth)
	assert.Equal(t, "u-9", svc.lastSubmit.Auth.UserID)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRouter_SessionRoutes(t *testing.T) {
	svc := &CheckoutServiceMock{}
	router := newTestRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/v1/checkout/sessions/cs-5/email", strings.NewReader(`{"email":"a@b.co"}`)))
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "a@b.co", svc.emailUpdates["cs-5"])

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/checkout/sessions/cs-5/prefill", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
