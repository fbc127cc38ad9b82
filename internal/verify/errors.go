package verify

import "errors"

var (
	ErrMissingSessionID  = errors.New("payment session id is required")
	ErrChecksNotAccepted = errors.New("organizer does not accept check payments")
)
