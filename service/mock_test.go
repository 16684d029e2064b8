package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/webpiratt/autoswap/config"
	"github.com/webpiratt/autoswap/internal/gate"
	"github.com/webpiratt/autoswap/internal/market"
	"github.com/webpiratt/autoswap/internal/tokens"
	"github.com/webpiratt/autoswap/internal/types"
	"github.com/webpiratt/autoswap/storage/filestore"
)

var testAssets = tokens.Map{
	"ETH":  {Contract: common.HexToAddress("0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2"), Decimals: 18},
	"USDC": {Contract: common.HexToAddress("0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"), Decimals: 6},
	"WBTC": {Contract: common.HexToAddress("0x2260fac5e5542a773aa44fbcfedf7c193bc2c599"), Decimals: 8},
}

func pairKey(from, to string) string {
	return from + "->" + to
}

// fakeMarket scripts quotes and swap outcomes per asset pair and records
// every submitted swap.
type fakeMarket struct {
	quotes    map[string]*types.Quote
	quoteErrs map[string]error
	swapErrs  map[string]error
	submitted []market.SwapIntent
	balances  []types.Balance
}

func newFakeMarket() *fakeMarket {
	return &fakeMarket{
		quotes:    make(map[string]*types.Quote),
		quoteErrs: make(map[string]error),
		swapErrs:  make(map[string]error),
	}
}

func (f *fakeMarket) SupportedAssets(_ context.Context) (tokens.Map, error) {
	return testAssets, nil
}

func (f *fakeMarket) FetchQuote(_ context.Context, intent market.SwapIntent, _ tokens.Map) (*types.Quote, error) {
	key := pairKey(intent.FromAsset, intent.ToAsset)
	if err, ok := f.quoteErrs[key]; ok {
		return nil, err
	}
	if q, ok := f.quotes[key]; ok {
		copied := *q
		return &copied, nil
	}
	return nil, &market.QuoteUnavailableError{FromAsset: intent.FromAsset, ToAsset: intent.ToAsset}
}

func (f *fakeMarket) SubmitSwap(_ context.Context, intent market.SwapIntent, quote *types.Quote, _ tokens.Map) (*types.SwapResult, error) {
	key := pairKey(intent.FromAsset, intent.ToAsset)
	if err, ok := f.swapErrs[key]; ok {
		return nil, err
	}
	f.submitted = append(f.submitted, intent)
	amount, err := decimal.NewFromString(intent.Amount)
	if err != nil {
		return nil, err
	}
	return &types.SwapResult{
		SellAmount:      amount,
		BuyAmount:       quote.BuyAmount,
		GasFeesUSD:      quote.GasFeesUSD,
		ProviderFeesUSD: quote.ProviderFeesUSD,
		Route:           quote.Route,
		TxRef:           fmt.Sprintf("0xtx%d", len(f.submitted)),
	}, nil
}

func (f *fakeMarket) WalletBalances(_ context.Context, _ tokens.Map) ([]types.Balance, error) {
	return f.balances, nil
}

var _ market.Market = (*fakeMarket)(nil)

func newStore(t *testing.T) *filestore.Store {
	t.Helper()
	store, err := filestore.New(t.TempDir())
	if err != nil {
		t.Fatalf("filestore.New: %v", err)
	}
	return store
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func testRegistry(m market.Market) *tokens.Registry {
	return tokens.NewRegistry(m, "", nil, 0, quietLogger())
}

// openGate fires on every second, so gated jobs always run in tests.
func openGate() *gate.Gate {
	return gate.New(quietLogger(),
		config.JobSchedule{Name: config.JobGasOptimizer, Expr: "* * * * * *"},
		config.JobSchedule{Name: config.JobOrderManager, Expr: "* * * * * *"},
	)
}

// closedGate has no schedules, so every gated job fails closed.
func closedGate() *gate.Gate {
	return gate.New(quietLogger())
}

func fixedClock(value string) func() time.Time {
	ts, err := time.Parse("2006-01-02 15:04:05", value)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return ts.UTC() }
}

func usdQuote(buyAmount, buyUSD, sellUSD, gasUSD string) *types.Quote {
	return &types.Quote{
		BuyAmount:       decimal.RequireFromString(buyAmount),
		BuyAmountUSD:    decimal.RequireFromString(buyUSD),
		SellAmountUSD:   decimal.RequireFromString(sellUSD),
		GasFeesUSD:      decimal.RequireFromString(gasUSD),
		ProviderFeesUSD: decimal.RequireFromString("0.1"),
		Route:           "test-route",
		QuoteID:         "q-test",
	}
}
