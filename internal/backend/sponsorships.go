package backend

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/fjod/go_cart/sponsor-checkout/domain"
	"github.com/shopspring/decimal"
)

type CreateSponsorshipRequest struct {
	OrganizerID   string                   `json:"organizerId"`
	PackageID     string                   `json:"packageId"`
	PackageTitle  string                   `json:"packageTitle"`
	Amount        decimal.Decimal          `json:"amount"`
	Status        domain.SponsorshipStatus `json:"status"`
	PayerEmail    string                   `json:"payerEmail"`
	SponsorUserID *string                  `json:"sponsorUserId"`
	SponsorName   string                   `json:"sponsorName"`
	SponsorEmail  string                   `json:"sponsorEmail"`
	SponsorPhone  string                   `json:"sponsorPhone"`
	SponsorInfo   domain.SponsorInfo       `json:"sponsorInfo"`
	PaymentMethod domain.PaymentMethod     `json:"paymentMethod"`
	IsTest        bool                     `json:"isTest"`
}

// SponsorshipUpdate carries the partial fields of PUT /sponsorships/:id.
type SponsorshipUpdate struct {
	Status    *domain.SponsorshipStatus `json:"status,omitempty"`
	PaymentID *string                   `json:"paymentId,omitempty"`
}

type createSponsorshipResponse struct {
	ID string `json:"id"`
}

type linkAccountRequest struct {
	Email  string `json:"email"`
	UserID string `json:"userId"`
}

func (c *Client) CreateSponsorship(ctx context.Context, req CreateSponsorshipRequest) (string, error) {
	var resp createSponsorshipResponse
	if err := c.do(ctx, "create sponsorship", http.MethodPost, "/sponsorships", req, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", &APIError{Op: "create sponsorship", StatusCode: http.StatusOK, Message: "response carried no id"}
	}
	return resp.ID, nil
}

func (c *Client) GetSponsorship(ctx context.Context, id string) (*domain.SponsorshipDraft, error) {
	var draft domain.SponsorshipDraft
	if err := c.do(ctx, "get sponsorship", http.MethodGet, "/sponsorships/"+url.PathEscape(id), nil, &draft); err != nil {
		return nil, err
	}
	return &draft, nil
}

func (c *Client) UpdateSponsorship(ctx context.Context, id string, update SponsorshipUpdate) error {
	return c.do(ctx, "update sponsorship", http.MethodPut, "/sponsorships/"+url.PathEscape(id), update, nil)
}

func (c *Client) DeleteSponsorship(ctx context.Context, id string) error {
	return c.do(ctx, "delete sponsorship", http.MethodDelete, "/sponsorships/"+url.PathEscape(id), nil, nil)
}

func (c *Client) LookupByEmail(ctx context.Context, email string) (*domain.ReturningSponsorLookup, error) {
	var lookup domain.ReturningSponsorLookup
	err := c.do(ctx, "lookup sponsor", http.MethodGet, "/sponsorships/lookup-by-email/"+url.PathEscape(email), nil, &lookup)
	if errors.Is(err, ErrNotFound) {
		return domain.NotFoundLookup(), nil
	}
	if err != nil {
		return nil, err
	}
	if lookup.Organizations == nil {
		lookup.Organizations = []string{}
	}
	return &lookup, nil
}

// LinkAccount attaches every sponsorship bought with email to userID. Relinking is not an
// error: a 409 from the backend is reported as success.
func (c *Client) LinkAccount(ctx context.Context, email, userID string) error {
	err := c.do(ctx, "link account", http.MethodPost, "/sponsorships/link-account", linkAccountRequest{Email: email, UserID: userID}, nil)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict {
		return nil
	}
	return err
}
