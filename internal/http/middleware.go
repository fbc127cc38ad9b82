package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/go_cart/sponsor-checkout/domain"
	jwt "github.com/golang-jwt/jwt/v5"
)

type ctxKey string

const (
	requestIDKey ctxKey = "request_id"
	authKey      ctxKey = "auth"
	clientIDKey  ctxKey = "client_id"
)

// ClientIDHeader carries the browser-scoped id guest sessions are stored under.
const ClientIDHeader = "X-Client-ID"

// RequestIDMiddleware adds a unique request ID to each request
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = fmt.Sprintf("req-%d", time.Now().UnixNano())
		}

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClientIDMiddleware copies the X-Client-ID header into the request context.
func ClientIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := strings.TrimSpace(r.Header.Get(ClientIDHeader))
		ctx := context.WithValue(r.Context(), clientIDKey, clientID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type Claims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	jwt.RegisteredClaims
}

// JWTAuth resolves a Bearer token into the request's AuthContext. Requests without a token
// continue as guests; a token that fails validation is rejected.
func JWTAuth(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}
			if !strings.HasPrefix(header, "Bearer ") {
				respondError(w, http.StatusUnauthorized, "unauthorized", "authorization header must be a Bearer token")
				return
			}

			auth, err := parseToken(strings.TrimPrefix(header, "Bearer "), secret)
			if err != nil {
				respondError(w, http.StatusUnauthorized, "unauthorized", "invalid token")
				return
			}
			ctx := context.WithValue(r.Context(), authKey, auth)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func parseToken(tokenStr string, secret []byte) (*domain.AuthContext, error) {
	if len(secret) == 0 {
		return nil, errors.New("token authentication is not configured")
	}
	t, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	c, ok := t.Claims.(*Claims)
	if !ok || !t.Valid || c.Subject == "" {
		return nil, errors.New("invalid token")
	}
	return &domain.AuthContext{
		UserID:        c.Subject,
		Email:         c.Email,
		EmailVerified: c.EmailVerified,
	}, nil
}

// SignToken issues an access token for auth. The account flow hands it back to the client
// after a guest registers or signs in.
func SignToken(auth *domain.AuthContext, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Email:         auth.Email,
		EmailVerified: auth.EmailVerified,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   auth.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func getAuthFromContext(ctx context.Context) *domain.AuthContext {
	if auth, ok := ctx.Value(authKey).(*domain.AuthContext); ok {
		return auth
	}
	return nil
}

func getClientIDFromContext(ctx context.Context) string {
	if clientID, ok := ctx.Value(clientIDKey).(string); ok {
		return clientID
	}
	return ""
}

func getRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(requestIDKey).(string); ok {
		return requestID
	}
	return ""
}
