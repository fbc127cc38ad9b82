// Package fees turns a cart subtotal and the organizer's fee policy into a fee breakdown.
// Everything here is pure: no I/O, no clock, deterministic for equal inputs.
package fees

import (
	"github.com/fjod/go_cart/sponsor-checkout/domain"
	"github.com/shopspring/decimal"
)

const centPlaces = 2

// ComputeBreakdown derives who pays what for a cart.
//
// Each fee is rounded to cents on its own, straight from the unrounded subtotal × rate
// product; totals are sums of already-rounded parts. Check payments never carry fees.
func ComputeBreakdown(subtotal decimal.Decimal, policy domain.FeePolicy, coverFees, isCheckPayment bool) domain.FeeBreakdown {
	subtotal = subtotal.Round(centPlaces)

	b := domain.FeeBreakdown{
		Subtotal:            subtotal,
		ProcessingFee:       decimal.Zero,
		PlatformFee:         decimal.Zero,
		OriginalPlatformFee: decimal.Zero,
		FeesWaived:          policy.FeesWaived,
		CoverFees:           coverFees,
		IsCheckPayment:      isCheckPayment,
		Total:               subtotal,
		AmountToOrganizer:   subtotal,
	}
	if isCheckPayment {
		return b
	}

	b.ProcessingFee = feeFor(subtotal, policy.ProcessingFeeRate)
	b.OriginalPlatformFee = feeFor(subtotal, policy.PlatformFeeRate)
	if !policy.FeesWaived {
		b.PlatformFee = b.OriginalPlatformFee
	}

	fees := b.ProcessingFee.Add(b.PlatformFee)
	if coverFees {
		b.Total = subtotal.Add(fees)
		b.AmountToOrganizer = subtotal
	} else {
		b.Total = subtotal
		b.AmountToOrganizer = subtotal.Sub(fees)
	}
	return b
}

// AllocateItemAmounts returns the amount recorded on each item's draft, in cart order.
// With coverFees an item carries its own rounded fees and the last item absorbs the
// rounding difference, so the amounts always sum to the cart's breakdown total.
// Otherwise, and always for checks, the draft amount is the bare item price.
func AllocateItemAmounts(items []domain.CartItem, policy domain.FeePolicy, coverFees, isCheckPayment bool) []decimal.Decimal {
	amounts := make([]decimal.Decimal, len(items))
	subtotal := decimal.Zero
	allocated := decimal.Zero
	for i, item := range items {
		amounts[i] = ComputeBreakdown(item.Price, policy, coverFees, isCheckPayment).Total
		subtotal = subtotal.Add(item.Price)
		allocated = allocated.Add(amounts[i])
	}
	if len(items) == 0 || !coverFees || isCheckPayment {
		return amounts
	}

	total := ComputeBreakdown(subtotal, policy, coverFees, isCheckPayment).Total
	last := len(amounts) - 1
	amounts[last] = amounts[last].Add(total.Sub(allocated))
	return amounts
}

func feeFor(subtotal, rate decimal.Decimal) decimal.Decimal {
	if rate.IsNegative() {
		return decimal.Zero
	}
	return subtotal.Mul(rate).Round(centPlaces)
}

// ToCents converts a money amount to integer minor units for gateways that want them.
func ToCents(amount decimal.Decimal) int64 {
	return amount.Round(centPlaces).Shift(centPlaces).IntPart()
}
