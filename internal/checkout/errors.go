package checkout

import "errors"

var (
	ErrEmptyCart        = errors.New("cart is empty, nothing to checkout")
	ErrMixedOrganizers  = errors.New("cart holds packages from more than one organizer")
	ErrCheckoutInFlight = errors.New("a checkout is already in progress for this session")
)
