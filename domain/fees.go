package domain

import "github.com/shopspring/decimal"

type FeePolicy struct {
	ProcessingFeeRate decimal.Decimal `json:"processingFeeRate"`
	PlatformFeeRate   decimal.Decimal `json:"platformFeeRate"`
	FeesWaived        bool            `json:"feesWaived"`
}

// FeeBreakdown is derived for display and charging; it is never persisted.
type FeeBreakdown struct {
	Subtotal            decimal.Decimal `json:"subtotal"`
	ProcessingFee       decimal.Decimal `json:"processingFee"`
	PlatformFee         decimal.Decimal `json:"platformFee"`
	OriginalPlatformFee decimal.Decimal `json:"originalPlatformFee"`
	FeesWaived          bool            `json:"feesWaived"`
	CoverFees           bool            `json:"coverFees"`
	IsCheckPayment      bool            `json:"isCheckPayment"`
	Total               decimal.Decimal `json:"total"`
	AmountToOrganizer   decimal.Decimal `json:"amountToOrganizer"`
}
