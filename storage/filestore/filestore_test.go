package filestore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/webpiratt/autoswap/internal/types"
	"github.com/webpiratt/autoswap/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return s
}

func TestLoadPendingSwapsAbsentFile(t *testing.T) {
	s := newTestStore(t)

	orders, err := s.LoadPendingSwaps(context.Background())
	if err != nil {
		t.Fatalf("absent file should not be an error, got: %v", err)
	}
	if len(orders) != 0 {
		t.Fatalf("expected empty list, got %d orders", len(orders))
	}
}

func TestLoadPendingSwapsCorruptFile(t *testing.T) {
	s := newTestStore(t)
	path := filepath.Join(s.dir, pendingSwapsFile)
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := s.LoadPendingSwaps(context.Background())
	var corrupt *storage.CorruptStoreError
	if !errors.As(err, &corrupt) {
		t.Fatalf("expected CorruptStoreError, got: %v", err)
	}
}

func TestSaveAndLoadPendingSwaps(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	orders := []types.ScheduledSwapOrder{
		{ID: uuid.New(), FromAsset: "ETH", ToAsset: "USDC", Amount: "0.5"},
		{ID: uuid.New(), FromAsset: "WBTC", ToAsset: "ETH", Amount: "0.01"},
	}
	if err := s.SavePendingSwaps(ctx, orders); err != nil {
		t.Fatalf("SavePendingSwaps failed: %v", err)
	}

	got, err := s.LoadPendingSwaps(ctx)
	if err != nil {
		t.Fatalf("LoadPendingSwaps failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(got))
	}
	if got[0].ID != orders[0].ID || got[1].ID != orders[1].ID {
		t.Error("order sequence not preserved across round trip")
	}
}

func TestRemovePendingSwap(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	orders := []types.ScheduledSwapOrder{
		{ID: uuid.New(), FromAsset: "ETH", ToAsset: "USDC", Amount: "1"},
		{ID: uuid.New(), FromAsset: "ETH", ToAsset: "WBTC", Amount: "2"},
	}
	if err := s.SavePendingSwaps(ctx, orders); err != nil {
		t.Fatal(err)
	}

	if err := s.RemovePendingSwap(ctx, orders[0].ID); err != nil {
		t.Fatalf("RemovePendingSwap failed: %v", err)
	}
	got, err := s.LoadPendingSwaps(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != orders[1].ID {
		t.Fatalf("expected only second order to remain, got %+v", got)
	}

	var notFound *storage.NotFoundError
	if err := s.RemovePendingSwap(ctx, orders[0].ID); !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError for repeated removal, got: %v", err)
	}
}

func TestAppendExecutedSwaps(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := types.ExecutedOrderRecord{
		OrderID:   uuid.New(),
		FromAsset: "ETH",
		ToAsset:   "USDC",
		BuyAmount: decimal.NewFromInt(1200),
	}
	if err := s.AppendExecutedSwaps(ctx, rec); err != nil {
		t.Fatalf("AppendExecutedSwaps failed: %v", err)
	}
	if err := s.AppendExecutedSwaps(ctx, rec, rec); err != nil {
		t.Fatalf("second append failed: %v", err)
	}

	got, err := s.LoadExecutedSwaps(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 executed records, got %d", len(got))
	}
}

func TestAppendDCAExecution(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	order := types.DCAOrder{
		ID:                   uuid.New(),
		AssetToBuy:           "ETH",
		CounterAsset:         "USDC",
		AmountInCounterAsset: "100",
		Periodicity:          types.Daily,
	}
	if err := s.SaveDCAOrders(ctx, []types.DCAOrder{order}); err != nil {
		t.Fatal(err)
	}

	exec := types.DCAExecution{Date: "2026-08-29", TokensBought: decimal.NewFromFloat(0.025)}
	if err := s.AppendDCAExecution(ctx, order.ID, exec); err != nil {
		t.Fatalf("AppendDCAExecution failed: %v", err)
	}

	// Same calendar date must be rejected.
	if err := s.AppendDCAExecution(ctx, order.ID, exec); err == nil {
		t.Fatal("expected duplicate-date append to fail")
	}

	got, err := s.LoadDCAOrders(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || len(got[0].Executed) != 1 {
		t.Fatalf("expected exactly one history entry, got %+v", got)
	}
	if got[0].Executed[0].Date != "2026-08-29" {
		t.Errorf("unexpected execution date %q", got[0].Executed[0].Date)
	}

	var notFound *storage.NotFoundError
	if err := s.AppendDCAExecution(ctx, uuid.New(), exec); !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError for unknown order, got: %v", err)
	}
}

func TestRemovePendingLimitOrderKeepsOrdering(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	orders := []types.LimitOrder{
		{ID: uuid.New(), Kind: types.BuyLimit, AssetToTrade: "ETH", CounterAsset: "USDC", Amount: "1"},
		{ID: uuid.New(), Kind: types.SellStop, AssetToTrade: "WBTC", CounterAsset: "USDC", Amount: "2"},
		{ID: uuid.New(), Kind: types.SellLimit, AssetToTrade: "ETH", CounterAsset: "USDC", Amount: "3"},
	}
	if err := s.SavePendingLimitOrders(ctx, orders); err != nil {
		t.Fatal(err)
	}
	if err := s.RemovePendingLimitOrder(ctx, orders[1].ID); err != nil {
		t.Fatal(err)
	}

	got, err := s.LoadPendingLimitOrders(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != orders[0].ID || got[1].ID != orders[2].ID {
		t.Fatalf("removal perturbed ordering: %+v", got)
	}
}
