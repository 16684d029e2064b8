package types

import "github.com/shopspring/decimal"

// Quote is a point-in-time price and fee estimate for a prospective swap.
// Quotes are fetched fresh per evaluation and never persisted.
type Quote struct {
	BuyAmount       decimal.Decimal `json:"buy_amount"`
	BuyAmountUSD    decimal.Decimal `json:"buy_amount_in_usd"`
	SellAmountUSD   decimal.Decimal `json:"sell_amount_in_usd"`
	GasFeesUSD      decimal.Decimal `json:"gas_fees_in_usd"`
	ProviderFeesUSD decimal.Decimal `json:"provider_fees_in_usd"`
	Route           string          `json:"route"`
	QuoteID         string          `json:"quote_id"`
}

// SwapResult is what the execution collaborator reports for a submitted swap.
type SwapResult struct {
	SellAmount      decimal.Decimal `json:"sell_amount"`
	BuyAmount       decimal.Decimal `json:"buy_amount"`
	GasFeesUSD      decimal.Decimal `json:"gas_fees_in_usd"`
	ProviderFeesUSD decimal.Decimal `json:"provider_fees_in_usd"`
	Route           string          `json:"route"`
	TxRef           string          `json:"tx_ref"`
}

// Balance is one wallet position, in whole-token units.
type Balance struct {
	Asset  string          `json:"asset"`
	Amount decimal.Decimal `json:"amount"`
}
