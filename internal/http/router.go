// Package http exposes the checkout and identity operations as a JSON API.
package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type RouterConfig struct {
	Checkout       *CheckoutHandler
	Identity       *IdentityHandler
	JWTSecret      []byte
	RequestTimeout time.Duration
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(ClientIDMiddleware)
	r.Use(JWTAuth(cfg.JWTSecret))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/checkout", func(r chi.Router) {
			r.Post("/", cfg.Checkout.Submit)
			r.Post("/fees", cfg.Checkout.PreviewFees)
			r.Get("/stripe/verify", cfg.Checkout.VerifyStripe)
			r.Get("/check/{organizer_id}", cfg.Checkout.CheckInstructions)
			r.Put("/sessions/{session_id}/email", cfg.Checkout.UpdateSessionEmail)
			r.Get("/sessions/{session_id}/prefill", cfg.Checkout.SessionPrefill)
		})
		r.Get("/sponsors/lookup", cfg.Identity.LookupSponsor)
		r.Route("/guest-session", func(r chi.Router) {
			r.Get("/", cfg.Identity.GetGuestSession)
			r.Post("/account", cfg.Identity.CreateAccount)
		})
	})

	return otelhttp.NewHandler(r, "sponsor-checkout")
}
