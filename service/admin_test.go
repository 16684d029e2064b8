package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/webpiratt/autoswap/internal/types"
	"github.com/webpiratt/autoswap/storage"
)

func newOrderService(t *testing.T) *OrderService {
	t.Helper()
	svc, err := NewOrderService(newStore(t), quietLogger())
	if err != nil {
		t.Fatalf("NewOrderService: %v", err)
	}
	return svc
}

func TestCreateScheduledSwapAssignsID(t *testing.T) {
	ctx := context.Background()
	svc := newOrderService(t)

	created, err := svc.CreateScheduledSwap(ctx, types.ScheduledSwapOrder{
		FromAsset: "ETH",
		ToAsset:   "USDC",
		Amount:    "1.5",
	})
	if err != nil {
		t.Fatalf("CreateScheduledSwap: %v", err)
	}
	if created.ID == uuid.Nil {
		t.Error("created order has nil id")
	}
	if created.CreatedAt.IsZero() {
		t.Error("created order has zero timestamp")
	}

	listed, err := svc.ListScheduledSwaps(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(listed) != 1 || listed[0].ID != created.ID {
		t.Errorf("listed = %v, want the created order", listed)
	}
}

func TestCreateScheduledSwapRejectsBadAmount(t *testing.T) {
	ctx := context.Background()
	svc := newOrderService(t)

	for _, amount := range []string{"", "abc", "0", "-1"} {
		if _, err := svc.CreateScheduledSwap(ctx, types.ScheduledSwapOrder{
			FromAsset: "ETH", ToAsset: "USDC", Amount: amount,
		}); err == nil {
			t.Errorf("amount %q accepted, want error", amount)
		}
	}
}

func TestCreateLimitOrderRejectsBadKindAndPrice(t *testing.T) {
	ctx := context.Background()
	svc := newOrderService(t)

	base := types.LimitOrder{
		AssetToTrade: "ETH",
		CounterAsset: "USDC",
		TargetPrice:  decimal.RequireFromString("2000"),
		Amount:       "1",
	}

	bad := base
	bad.Kind = "take_profit"
	if _, err := svc.CreateLimitOrder(ctx, bad); err == nil {
		t.Error("unknown kind accepted, want error")
	}

	bad = base
	bad.Kind = types.BuyLimit
	bad.TargetPrice = decimal.Zero
	if _, err := svc.CreateLimitOrder(ctx, bad); err == nil {
		t.Error("zero target price accepted, want error")
	}

	good := base
	good.Kind = types.SellStop
	if _, err := svc.CreateLimitOrder(ctx, good); err != nil {
		t.Errorf("valid order rejected: %v", err)
	}
}

func TestCancelRemovesOnlyTargetOrder(t *testing.T) {
	ctx := context.Background()
	svc := newOrderService(t)

	a, err := svc.CreateDCAOrder(ctx, types.DCAOrder{
		AssetToBuy: "ETH", CounterAsset: "USDC",
		AmountInCounterAsset: "100", Periodicity: types.Daily,
	})
	if err != nil {
		t.Fatal(err)
	}
	b, err := svc.CreateDCAOrder(ctx, types.DCAOrder{
		AssetToBuy: "WBTC", CounterAsset: "USDC",
		AmountInCounterAsset: "50", Periodicity: types.Weekly,
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.CancelDCAOrder(ctx, a.ID); err != nil {
		t.Fatalf("CancelDCAOrder: %v", err)
	}
	listed, _ := svc.ListDCAOrders(ctx)
	if len(listed) != 1 || listed[0].ID != b.ID {
		t.Errorf("after cancel, listed = %v, want only order b", listed)
	}

	var notFound *storage.NotFoundError
	if err := svc.CancelDCAOrder(ctx, a.ID); !errors.As(err, &notFound) {
		t.Errorf("cancelling twice = %v, want NotFoundError", err)
	}
}
