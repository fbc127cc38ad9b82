package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

type SponsorInfo struct {
	CompanyName string `json:"companyName"`
	ContactName string `json:"contactName"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
}

// Validate checks the fields required before any draft may be created.
func (s SponsorInfo) Validate() error {
	switch {
	case strings.TrimSpace(s.CompanyName) == "":
		return &ValidationError{Field: "companyName", Message: "company name is required"}
	case strings.TrimSpace(s.ContactName) == "":
		return &ValidationError{Field: "contactName", Message: "contact name is required"}
	case strings.TrimSpace(s.Email) == "":
		return &ValidationError{Field: "email", Message: "email is required"}
	}
	return nil
}

// SponsorshipDraft is the persisted purchase record created ahead of payment confirmation.
type SponsorshipDraft struct {
	ID            string            `json:"id"`
	OrganizerID   string            `json:"organizerId"`
	PackageID     string            `json:"packageId"`
	PackageTitle  string            `json:"packageTitle"`
	Amount        decimal.Decimal   `json:"amount"`
	Status        SponsorshipStatus `json:"status"`
	PayerEmail    string            `json:"payerEmail"`
	SponsorUserID *string           `json:"sponsorUserId"`
	SponsorInfo   SponsorInfo       `json:"sponsorInfo"`
	PaymentMethod PaymentMethod     `json:"paymentMethod"`
	PaymentID     *string           `json:"paymentId"`
	IsTest        bool              `json:"isTest"`
}

// ReturningSponsorLookup is the read-only result of looking a sponsor up by email.
type ReturningSponsorLookup struct {
	Found            bool           `json:"found"`
	SponsorshipCount int            `json:"sponsorshipCount"`
	Organizations    []string       `json:"organizations"`
	HasAccount       bool           `json:"hasAccount"`
	Prefill          SponsorPrefill `json:"prefill"`
}

type SponsorPrefill struct {
	CompanyName string `json:"companyName"`
	ContactName string `json:"contactName"`
	Phone       string `json:"phone"`
}

// NotFoundLookup is returned without a network call for empty or malformed emails.
func NotFoundLookup() *ReturningSponsorLookup {
	return &ReturningSponsorLookup{Organizations: []string{}}
}
