package drafts

import "errors"

var (
	ErrIllegalTransition = errors.New("illegal transition of sponsorship status")
	ErrAmountMismatch    = errors.New("draft amounts do not match cart items")
)
