package types

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderCategory selects one of the independently persisted order lists.
type OrderCategory string

const (
	CategoryScheduledSwap OrderCategory = "scheduled_swap"
	CategoryLimitOrder    OrderCategory = "limit_order"
	CategoryDCA           OrderCategory = "dca"
)

// ScheduledSwapOrder is a swap waiting for gas fees to drop below the
// configured ceiling. It is removed from the pending list the first time
// its gas condition passes.
type ScheduledSwapOrder struct {
	ID        uuid.UUID `json:"id"`
	FromAsset string    `json:"from_asset" validate:"required"`
	ToAsset   string    `json:"to_asset" validate:"required"`
	Amount    string    `json:"amount" validate:"required"`
	CreatedAt time.Time `json:"created_at"`
}

type LimitOrderKind string

const (
	BuyLimit  LimitOrderKind = "buy_limit"
	SellLimit LimitOrderKind = "sell_limit"
	BuyStop   LimitOrderKind = "buy_stop"
	SellStop  LimitOrderKind = "sell_stop"
)

func (k LimitOrderKind) IsBuy() bool {
	return k == BuyLimit || k == BuyStop
}

func (k LimitOrderKind) IsValid() bool {
	switch k {
	case BuyLimit, SellLimit, BuyStop, SellStop:
		return true
	}
	return false
}

// LimitOrder is a price-triggered order. Buy orders spend the counter asset
// to acquire the traded asset; sell orders spend the traded asset.
type LimitOrder struct {
	ID           uuid.UUID       `json:"id"`
	Kind         LimitOrderKind  `json:"kind" validate:"required"`
	AssetToTrade string          `json:"asset_to_trade" validate:"required"`
	CounterAsset string          `json:"counter_asset" validate:"required"`
	TargetPrice  decimal.Decimal `json:"target_price"`
	Amount       string          `json:"amount" validate:"required"`
	CreatedAt    time.Time       `json:"created_at"`
}

// FromTo derives the swap direction from the order kind.
func (o LimitOrder) FromTo() (from, to string) {
	if o.Kind.IsBuy() {
		return o.CounterAsset, o.AssetToTrade
	}
	return o.AssetToTrade, o.CounterAsset
}

type DCAPeriodicity string

const (
	Daily   DCAPeriodicity = "daily"
	Weekly  DCAPeriodicity = "weekly"
	Monthly DCAPeriodicity = "monthly"
)

func (p DCAPeriodicity) IsValid() bool {
	switch p {
	case Daily, Weekly, Monthly:
		return true
	}
	return false
}

// DCAExecution records one periodic purchase. Date is a calendar date in
// YYYY-MM-DD form; a DCA order holds at most one entry per date.
type DCAExecution struct {
	Date         string          `json:"date"`
	TokensBought decimal.Decimal `json:"tokens_bought"`
}

// DCAOrder is a recurring purchase of AssetToBuy paid in CounterAsset. It is
// never removed; each period that fires appends one entry to Executed.
type DCAOrder struct {
	ID                   uuid.UUID      `json:"id"`
	AssetToBuy           string         `json:"asset_to_buy" validate:"required"`
	CounterAsset         string         `json:"counter_asset" validate:"required"`
	AmountInCounterAsset string         `json:"amount_in_counter_asset" validate:"required"`
	Periodicity          DCAPeriodicity `json:"periodicity" validate:"required"`
	CreatedAt            time.Time      `json:"created_at"`
	Executed             []DCAExecution `json:"executed"`
}

// ExecutedOn reports whether the order already fired on the given date.
func (o DCAOrder) ExecutedOn(date string) bool {
	for _, e := range o.Executed {
		if e.Date == date {
			return true
		}
	}
	return false
}

// ExecutedOrderRecord is one entry of the append-only executed log.
type ExecutedOrderRecord struct {
	OrderID         uuid.UUID       `json:"order_id"`
	FromAsset       string          `json:"from_asset"`
	ToAsset         string          `json:"to_asset"`
	SellAmount      decimal.Decimal `json:"sell_amount"`
	BuyAmount       decimal.Decimal `json:"buy_amount"`
	GasFeesUSD      decimal.Decimal `json:"gas_fees_usd"`
	ProviderFeesUSD decimal.Decimal `json:"provider_fees_usd"`
	Route           string          `json:"route"`
	TxRef           string          `json:"tx_ref"`
	ExecutionTime   time.Time       `json:"execution_time"`
}

// DateOf formats an instant as the calendar date used in DCA history.
func DateOf(t time.Time) string {
	return t.Format("2006-01-02")
}

func ValidateAmount(amount string) error {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	if !d.IsPositive() {
		return fmt.Errorf("amount must be positive, got %s", amount)
	}
	return nil
}
