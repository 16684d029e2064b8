package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/webpiratt/autoswap/internal/types"
	"github.com/webpiratt/autoswap/storage/filestore"
)

func dcaOrder(buy, counter, amount string, p types.DCAPeriodicity) types.DCAOrder {
	return types.DCAOrder{
		ID:                   uuid.New(),
		AssetToBuy:           buy,
		CounterAsset:         counter,
		AmountInCounterAsset: amount,
		Periodicity:          p,
		CreatedAt:            time.Now().UTC(),
	}
}

func newDCAJob(store *filestore.Store, m *fakeMarket, clock func() time.Time) *DCAJob {
	job := NewDCAJob(store, m, testRegistry(m), 4, 14, quietLogger())
	job.clock = clock
	return job
}

func TestDCADailyRunIsIdempotentPerDate(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	m := newFakeMarket()
	m.quotes[pairKey("USDC", "ETH")] = usdQuote("0.05", "100", "100", "1")

	order := dcaOrder("ETH", "USDC", "100", types.Daily)
	if err := store.SaveDCAOrders(ctx, []types.DCAOrder{order}); err != nil {
		t.Fatal(err)
	}

	job := newDCAJob(store, m, fixedClock("2024-03-14 09:00:00"))
	if err := job.Run(ctx); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	// Same date, later in the day: the history entry must block a second buy.
	job.clock = fixedClock("2024-03-14 21:00:00")
	if err := job.Run(ctx); err != nil {
		t.Fatalf("second Run: %v", err)
	}

	if len(m.submitted) != 1 {
		t.Fatalf("submitted swaps = %d, want 1 across two same-day runs", len(m.submitted))
	}
	orders, err := store.LoadDCAOrders(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(orders) != 1 {
		t.Fatalf("dca orders = %d, want 1 (never removed)", len(orders))
	}
	if len(orders[0].Executed) != 1 {
		t.Fatalf("execution history = %d entries, want 1", len(orders[0].Executed))
	}
	if orders[0].Executed[0].Date != "2024-03-14" {
		t.Errorf("execution date = %s, want 2024-03-14", orders[0].Executed[0].Date)
	}
}

func TestDCADailyFiresAgainNextDay(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	m := newFakeMarket()
	m.quotes[pairKey("USDC", "ETH")] = usdQuote("0.05", "100", "100", "1")

	if err := store.SaveDCAOrders(ctx, []types.DCAOrder{dcaOrder("ETH", "USDC", "100", types.Daily)}); err != nil {
		t.Fatal(err)
	}

	job := newDCAJob(store, m, fixedClock("2024-03-14 09:00:00"))
	if err := job.Run(ctx); err != nil {
		t.Fatal(err)
	}
	job.clock = fixedClock("2024-03-15 09:00:00")
	if err := job.Run(ctx); err != nil {
		t.Fatal(err)
	}

	orders, _ := store.LoadDCAOrders(ctx)
	if len(orders[0].Executed) != 2 {
		t.Fatalf("execution history = %d entries, want 2", len(orders[0].Executed))
	}
}

func TestDCAWeeklyFiresOnlyOnConfiguredWeekday(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	m := newFakeMarket()
	m.quotes[pairKey("USDC", "WBTC")] = usdQuote("0.001", "50", "50", "1")

	if err := store.SaveDCAOrders(ctx, []types.DCAOrder{dcaOrder("WBTC", "USDC", "50", types.Weekly)}); err != nil {
		t.Fatal(err)
	}

	// 2024-03-13 is a Wednesday; the job is configured for ISO weekday 4.
	job := newDCAJob(store, m, fixedClock("2024-03-13 09:00:00"))
	if err := job.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if len(m.submitted) != 0 {
		t.Fatalf("submitted on Wednesday = %d, want 0", len(m.submitted))
	}

	// 2024-03-14 is a Thursday.
	job.clock = fixedClock("2024-03-14 09:00:00")
	if err := job.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if len(m.submitted) != 1 {
		t.Fatalf("submitted on Thursday = %d, want 1", len(m.submitted))
	}
}

func TestDCAMonthlyFiresOnConfiguredDay(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	m := newFakeMarket()
	m.quotes[pairKey("USDC", "ETH")] = usdQuote("0.05", "100", "100", "1")

	if err := store.SaveDCAOrders(ctx, []types.DCAOrder{dcaOrder("ETH", "USDC", "100", types.Monthly)}); err != nil {
		t.Fatal(err)
	}

	job := newDCAJob(store, m, fixedClock("2024-03-01 09:00:00"))
	if err := job.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if len(m.submitted) != 0 {
		t.Fatalf("submitted on the 1st = %d, want 0 (configured day 14)", len(m.submitted))
	}

	job.clock = fixedClock("2024-03-14 09:00:00")
	if err := job.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if len(m.submitted) != 1 {
		t.Fatalf("submitted on the 14th = %d, want 1", len(m.submitted))
	}
}

func TestDCAQuoteFailureLeavesHistoryUntouched(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	m := newFakeMarket()
	m.quoteErrs[pairKey("USDC", "ETH")] = errors.New("aggregator down")

	if err := store.SaveDCAOrders(ctx, []types.DCAOrder{dcaOrder("ETH", "USDC", "100", types.Daily)}); err != nil {
		t.Fatal(err)
	}

	job := newDCAJob(store, m, fixedClock("2024-03-14 09:00:00"))
	if err := job.Run(ctx); err != nil {
		t.Fatalf("Run must contain per-order market failures: %v", err)
	}

	orders, _ := store.LoadDCAOrders(ctx)
	if len(orders[0].Executed) != 0 {
		t.Errorf("execution history = %d entries, want 0 after failed quote", len(orders[0].Executed))
	}
	// A later run on the same date retries the purchase.
	delete(m.quoteErrs, pairKey("USDC", "ETH"))
	m.quotes[pairKey("USDC", "ETH")] = usdQuote("0.05", "100", "100", "1")
	if err := job.Run(ctx); err != nil {
		t.Fatal(err)
	}
	orders, _ = store.LoadDCAOrders(ctx)
	if len(orders[0].Executed) != 1 {
		t.Errorf("execution history = %d entries, want 1 after retry", len(orders[0].Executed))
	}
}
