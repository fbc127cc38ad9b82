package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/fjod/go_cart/sponsor-checkout/domain"
)

func (c *Client) GetOrganizerProfile(ctx context.Context, organizerID string) (*domain.OrganizerProfile, error) {
	var profile domain.OrganizerProfile
	if err := c.do(ctx, "get organizer profile", http.MethodGet, "/organizers/"+url.PathEscape(organizerID)+"/profile", nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *Client) GetSystemSettings(ctx context.Context) (*domain.SystemSettings, error) {
	var settings domain.SystemSettings
	if err := c.do(ctx, "get system settings", http.MethodGet, "/settings/payments", nil, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}
