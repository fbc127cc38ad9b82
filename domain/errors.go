package domain

import (
	"errors"
	"fmt"
)

// ValidationError blocks submission locally; it never reaches the network.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// GatewayError means the payment processor rejected the charge or order. Retry is allowed.
type GatewayError struct {
	Gateway PaymentMethod
	Reason  string
	Err     error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s payment failed: %s: %v", e.Gateway, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s payment failed: %s", e.Gateway, e.Reason)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// NetworkError is a transport failure to any endpoint. Callers treat it like a GatewayError.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error during %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ReconciliationError is terminal for a payment session; the buyer is directed to support.
type ReconciliationError struct {
	SessionID string
	Reason    string
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("payment session %s could not be verified: %s", e.SessionID, e.Reason)
}

// IsRetryable reports whether the buyer may resubmit the same form after err.
func IsRetryable(err error) bool {
	var gErr *GatewayError
	var nErr *NetworkError
	return errors.As(err, &gErr) || errors.As(err, &nErr)
}
