package identity

import "errors"

var (
	ErrAccountExists     = errors.New("an account already exists for this email, sign in instead")
	ErrNoAccount         = errors.New("no account exists for this email, create one instead")
	ErrInvalidCredential = errors.New("invalid email or password")
	ErrUnknownMode       = errors.New("unknown account flow mode")
)
