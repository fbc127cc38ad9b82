package gateway

import "errors"

var (
	ErrGatewayDisabled = errors.New("payment method is not available for this organizer")
	ErrUnknownChoice   = errors.New("unknown payment choice")
	ErrNoStrategy      = errors.New("no strategy registered for payment method")
)
