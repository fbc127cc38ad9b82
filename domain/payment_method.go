package domain

// PaymentMethod identifies the gateway strategy that handled a checkout.
type PaymentMethod string

const (
	PaymentMethodStripe  PaymentMethod = "stripe"
	PaymentMethodSquare  PaymentMethod = "square"
	PaymentMethodPayPal  PaymentMethod = "paypal"
	PaymentMethodCheck   PaymentMethod = "check"
	PaymentMethodSandbox PaymentMethod = "sandbox"
)

// PaymentChoice is what the buyer picked in the checkout form.
type PaymentChoice string

const (
	PaymentChoiceCard   PaymentChoice = "card"
	PaymentChoicePayPal PaymentChoice = "paypal"
	PaymentChoiceCheck  PaymentChoice = "check"
)

func (c PaymentChoice) IsValid() bool {
	switch c {
	case PaymentChoiceCard, PaymentChoicePayPal, PaymentChoiceCheck:
		return true
	}
	return false
}

func (m PaymentMethod) String() string {
	return string(m)
}
