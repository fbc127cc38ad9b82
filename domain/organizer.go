package domain

import "github.com/shopspring/decimal"

type PaymentSettings struct {
	ActiveGateway     PaymentMethod    `json:"activeGateway"`
	ProcessingFeeRate *decimal.Decimal `json:"processingFeeRate,omitempty"`
	PlatformFeeRate   *decimal.Decimal `json:"platformFeeRate,omitempty"`
	FeesWaived        bool             `json:"feesWaived"`
}

type CheckSettings struct {
	Enabled        bool   `json:"enabled"`
	PayableTo      string `json:"payableTo"`
	MailingAddress string `json:"mailingAddress"`
	Instructions   string `json:"instructions"`
}

type OrganizerProfile struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	PaymentSettings PaymentSettings `json:"paymentSettings"`
	CheckSettings   CheckSettings   `json:"checkSettings"`
}

// SystemSettings lists which gateways are enabled marketplace-wide.
type SystemSettings struct {
	StripeEnabled bool `json:"stripeEnabled"`
	SquareEnabled bool `json:"squareEnabled"`
	PayPalEnabled bool `json:"paypalEnabled"`
	CheckEnabled  bool `json:"checkEnabled"`
	SandboxMode   bool `json:"sandboxMode"`
}

func (s SystemSettings) Enabled(m PaymentMethod) bool {
	switch m {
	case PaymentMethodStripe:
		return s.StripeEnabled
	case PaymentMethodSquare:
		return s.SquareEnabled
	case PaymentMethodPayPal:
		return s.PayPalEnabled
	case PaymentMethodCheck:
		return s.CheckEnabled
	case PaymentMethodSandbox:
		return s.SandboxMode
	}
	return false
}

// FeePolicy resolves the organizer's fee rates, falling back to the given defaults.
func (p *OrganizerProfile) FeePolicy(defaultProcessing, defaultPlatform decimal.Decimal) FeePolicy {
	policy := FeePolicy{
		ProcessingFeeRate: defaultProcessing,
		PlatformFeeRate:   defaultPlatform,
	}
	if p == nil {
		return policy
	}
	if p.PaymentSettings.ProcessingFeeRate != nil {
		policy.ProcessingFeeRate = *p.PaymentSettings.ProcessingFeeRate
	}
	if p.PaymentSettings.PlatformFeeRate != nil {
		policy.PlatformFeeRate = *p.PaymentSettings.PlatformFeeRate
	}
	policy.FeesWaived = p.PaymentSettings.FeesWaived
	return policy
}
