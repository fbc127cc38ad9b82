package backend

import (
	"context"
	"net/http"

	"github.com/fjod/go_cart/sponsor-checkout/domain"
)

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type accountResponse struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

func (a accountResponse) toAuth() *domain.AuthContext {
	return &domain.AuthContext{UserID: a.UserID, Email: a.Email, EmailVerified: true}
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (*domain.AuthContext, error) {
	var resp accountResponse
	if err := c.do(ctx, "register account", http.MethodPost, "/auth/register", req, &resp); err != nil {
		return nil, err
	}
	return resp.toAuth(), nil
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*domain.AuthContext, error) {
	var resp accountResponse
	if err := c.do(ctx, "sign in", http.MethodPost, "/auth/login", signInRequest{Email: email, Password: password}, &resp); err != nil {
		return nil, err
	}
	return resp.toAuth(), nil
}
