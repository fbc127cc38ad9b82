package domain

import "github.com/shopspring/decimal"

// CartItem is a single sponsorship package in the buyer's cart. There is no quantity:
// every item is one unit.
type CartItem struct {
	PackageID   string          `json:"packageId"`
	OrganizerID string          `json:"organizerId"`
	Title       string          `json:"title"`
	Price       decimal.Decimal `json:"price"`
}

func Subtotal(items []CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Price)
	}
	return total
}
