package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/webpiratt/autoswap/internal/types"
	"github.com/webpiratt/autoswap/service"
	"github.com/webpiratt/autoswap/storage/filestore"
)

var (
	dir      string
	category string
	from     string
	to       string
	amount   string
	kind     string
	asset    string
	counter  string
	target   string
	period   string
)

// Usage:
// `go run ./scripts/dev/create_order/main.go -category=swap -from=ETH -to=USDC -amount=1.5`
// `go run ./scripts/dev/create_order/main.go -category=limit -kind=sell_limit -asset=ETH -counter=USDC -target=2000 -amount=1`
// `go run ./scripts/dev/create_order/main.go -category=dca -to=ETH -from=USDC -amount=100 -period=weekly`
func main() {
	flag.StringVar(&dir, "dir", "files", "order store directory")
	flag.StringVar(&category, "category", "swap", "order category: swap, limit or dca")
	flag.StringVar(&from, "from", "", "asset to spend (counter asset for dca)")
	flag.StringVar(&to, "to", "", "asset to receive (asset to buy for dca)")
	flag.StringVar(&amount, "amount", "", "amount to spend")
	flag.StringVar(&kind, "kind", "", "limit order kind: buy_limit, sell_limit, buy_stop or sell_stop")
	flag.StringVar(&asset, "asset", "", "limit order asset to trade")
	flag.StringVar(&counter, "counter", "", "limit order counter asset")
	flag.StringVar(&target, "target", "", "limit order target price in USD")
	flag.StringVar(&period, "period", "daily", "dca periodicity: daily, weekly or monthly")
	flag.Parse()

	ctx := context.Background()

	store, err := filestore.New(dir)
	if err != nil {
		panic(fmt.Errorf("failed to open order store: %w", err))
	}
	svc, err := service.NewOrderService(store, logrus.StandardLogger())
	if err != nil {
		panic(err)
	}

	switch category {
	case "swap":
		created, err := svc.CreateScheduledSwap(ctx, types.ScheduledSwapOrder{
			FromAsset: from,
			ToAsset:   to,
			Amount:    amount,
		})
		if err != nil {
			panic(fmt.Errorf("failed to create scheduled swap: %w", err))
		}
		fmt.Println("Scheduled swap created:", created.ID)
	case "limit":
		order, err := limitOrderFromFlags(kind, asset, counter, target, amount)
		if err != nil {
			panic(err)
		}
		created, err := svc.CreateLimitOrder(ctx, order)
		if err != nil {
			panic(fmt.Errorf("failed to create limit order: %w", err))
		}
		fmt.Println("Limit order created:", created.ID)
	case "dca":
		created, err := svc.CreateDCAOrder(ctx, types.DCAOrder{
			AssetToBuy:           to,
			CounterAsset:         from,
			AmountInCounterAsset: amount,
			Periodicity:          types.DCAPeriodicity(period),
		})
		if err != nil {
			panic(fmt.Errorf("failed to create dca order: %w", err))
		}
		fmt.Println("DCA order created:", created.ID)
	default:
		panic(fmt.Sprintf("unknown category %q", category))
	}
}

// limitOrderFromFlags maps the -asset/-counter flags onto the order shape:
// the traded asset is always -asset regardless of direction, so a sell order
// on ETH is `-kind=sell_limit -asset=ETH -counter=USDC`.
func limitOrderFromFlags(kind, asset, counter, target, amount string) (types.LimitOrder, error) {
	price, err := decimal.NewFromString(target)
	if err != nil {
		return types.LimitOrder{}, fmt.Errorf("invalid target price %q: %w", target, err)
	}
	return types.LimitOrder{
		Kind:         types.LimitOrderKind(kind),
		AssetToTrade: asset,
		CounterAsset: counter,
		TargetPrice:  price,
		Amount:       amount,
	}, nil
}
