package gateway

import (
	"context"
	"fmt"

	"github.com/fjod/go_cart/sponsor-checkout/domain"
	"github.com/fjod/go_cart/sponsor-checkout/pkg/logger"
)

// Dispatcher picks one strategy per attempt from the buyer's choice and the organizer and
// marketplace settings. The choice is made once and never changes mid-attempt.
type Dispatcher struct {
	strategies map[domain.PaymentMethod]Strategy
}

func NewDispatcher(strategies ...Strategy) *Dispatcher {
	d := &Dispatcher{strategies: make(map[domain.PaymentMethod]Strategy, len(strategies))}
	for _, s := range strategies {
		d.strategies[s.Method()] = s
	}
	return d
}

// Resolve maps a buyer choice to a concrete payment method.
func Resolve(choice domain.PaymentChoice, profile *domain.OrganizerProfile, system domain.SystemSettings) (domain.PaymentMethod, error) {
	var method domain.PaymentMethod
	switch choice {
	case domain.PaymentChoiceCheck:
		if profile == nil || !profile.CheckSettings.Enabled || !system.CheckEnabled {
			return "", fmt.Errorf("%w: check", ErrGatewayDisabled)
		}
		return domain.PaymentMethodCheck, nil
	case domain.PaymentChoicePayPal:
		method = domain.PaymentMethodPayPal
	case domain.PaymentChoiceCard:
		if profile != nil {
			method = profile.PaymentSettings.ActiveGateway
		}
		if method != domain.PaymentMethodStripe && method != domain.PaymentMethodSquare {
			method = domain.PaymentMethodStripe
		}
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownChoice, choice)
	}

	if system.SandboxMode {
		return domain.PaymentMethodSandbox, nil
	}
	if !system.Enabled(method) {
		return "", fmt.Errorf("%w: %s", ErrGatewayDisabled, method)
	}
	return method, nil
}

func (d *Dispatcher) Select(choice domain.PaymentChoice, profile *domain.OrganizerProfile, system domain.SystemSettings) (Strategy, error) {
	method, err := Resolve(choice, profile, system)
	if err != nil {
		return nil, err
	}
	s, ok := d.strategies[method]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoStrategy, method)
	}
	return s, nil
}

func (d *Dispatcher) Dispatch(
	ctx context.Context,
	choice domain.PaymentChoice,
	system domain.SystemSettings,
	req Request) (*Result, error) {

	strategy, err := d.Select(choice, req.Organizer, system)
	if err != nil {
		return nil, err
	}
	logger.Printf(ctx, "dispatching checkout session=%s organizer=%s method=%s items=%d",
		req.CheckoutSessionID, req.OrganizerID(), strategy.Method(), len(req.Items))

	res, err := strategy.Dispatch(ctx, req)
	if err != nil {
		logger.Printf(ctx, "checkout session=%s method=%s failed: %v", req.CheckoutSessionID, strategy.Method(), err)
		return nil, err
	}
	return res, nil
}
