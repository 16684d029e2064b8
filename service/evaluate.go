package service

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/webpiratt/autoswap/internal/types"
)

// The evaluators below are pure functions of an order, a freshly fetched
// quote and configuration. All bounds are inclusive: a tie fires.

// gasBelowCeiling is the scheduled-swap condition.
func gasBelowCeiling(quote *types.Quote, maxGasFeesUSD decimal.Decimal) bool {
	return quote.GasFeesUSD.LessThanOrEqual(maxGasFeesUSD)
}

// comparisonPrice picks the quote side the order kind is priced against:
// buy orders compare the USD cost to acquire the traded asset, sell orders
// the USD proceeds from disposing of it.
func comparisonPrice(kind types.LimitOrderKind, quote *types.Quote) decimal.Decimal {
	if kind.IsBuy() {
		return quote.BuyAmountUSD
	}
	return quote.SellAmountUSD
}

// priceTriggered is the limit/stop condition.
func priceTriggered(order types.LimitOrder, quote *types.Quote) bool {
	price := comparisonPrice(order.Kind, quote)
	switch order.Kind {
	case types.BuyLimit:
		// Buy at or below the ceiling.
		return price.LessThanOrEqual(order.TargetPrice)
	case types.SellLimit:
		// Sell at or above the floor.
		return price.GreaterThanOrEqual(order.TargetPrice)
	case types.BuyStop:
		// Buy once the price breaks upward through the trigger.
		return price.GreaterThanOrEqual(order.TargetPrice)
	case types.SellStop:
		// Sell once the price falls to the trigger.
		return price.LessThanOrEqual(order.TargetPrice)
	}
	return false
}

// dcaDue is the DCA condition: the order has not fired today, and today is
// an execution day for its periodicity. The execution history is itself the
// idempotency guard, so no separate time-window gate is needed.
func dcaDue(order types.DCAOrder, now time.Time, weeklyDay, monthlyDay int) bool {
	if order.ExecutedOn(types.DateOf(now)) {
		return false
	}
	switch order.Periodicity {
	case types.Daily:
		return true
	case types.Weekly:
		return isoWeekday(now) == weeklyDay
	case types.Monthly:
		return now.Day() == monthlyDay
	}
	return false
}

// isoWeekday maps time.Weekday to ISO-8601 numbering (Monday=1 .. Sunday=7).
func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}
