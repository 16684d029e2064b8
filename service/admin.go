package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/webpiratt/autoswap/internal/types"
	"github.com/webpiratt/autoswap/storage"
)

// Orders is the management surface behind the HTTP API: creating, listing
// and cancelling pending orders, and reading the executed logs.
type Orders interface {
	CreateScheduledSwap(ctx context.Context, order types.ScheduledSwapOrder) (*types.ScheduledSwapOrder, error)
	ListScheduledSwaps(ctx context.Context) ([]types.ScheduledSwapOrder, error)
	CancelScheduledSwap(ctx context.Context, id uuid.UUID) error
	ListExecutedSwaps(ctx context.Context) ([]types.ExecutedOrderRecord, error)

	CreateLimitOrder(ctx context.Context, order types.LimitOrder) (*types.LimitOrder, error)
	ListLimitOrders(ctx context.Context) ([]types.LimitOrder, error)
	CancelLimitOrder(ctx context.Context, id uuid.UUID) error
	ListExecutedLimitOrders(ctx context.Context) ([]types.ExecutedOrderRecord, error)

	CreateDCAOrder(ctx context.Context, order types.DCAOrder) (*types.DCAOrder, error)
	ListDCAOrders(ctx context.Context) ([]types.DCAOrder, error)
	CancelDCAOrder(ctx context.Context, id uuid.UUID) error
}

var _ Orders = (*OrderService)(nil)

type OrderService struct {
	store  storage.OrderStore
	logger *logrus.Logger
}

func NewOrderService(store storage.OrderStore, logger *logrus.Logger) (*OrderService, error) {
	if store == nil {
		return nil, fmt.Errorf("order store cannot be nil")
	}
	return &OrderService{store: store, logger: logger}, nil
}

func (s *OrderService) CreateScheduledSwap(ctx context.Context, order types.ScheduledSwapOrder) (*types.ScheduledSwapOrder, error) {
	if err := types.ValidateAmount(order.Amount); err != nil {
		return nil, err
	}
	order.ID = uuid.New()
	order.CreatedAt = time.Now().UTC()

	pending, err := s.store.LoadPendingSwaps(ctx)
	if err != nil {
		return nil, fmt.Errorf("fail to load pending swaps: %w", err)
	}
	if err := s.store.SavePendingSwaps(ctx, append(pending, order)); err != nil {
		return nil, fmt.Errorf("fail to save pending swaps: %w", err)
	}
	s.logger.WithField("order_id", order.ID).Info("scheduled swap created")
	return &order, nil
}

func (s *OrderService) ListScheduledSwaps(ctx context.Context) ([]types.ScheduledSwapOrder, error) {
	return s.store.LoadPendingSwaps(ctx)
}

func (s *OrderService) CancelScheduledSwap(ctx context.Context, id uuid.UUID) error {
	if err := s.store.RemovePendingSwap(ctx, id); err != nil {
		return err
	}
	s.logger.WithField("order_id", id).Info("scheduled swap cancelled")
	return nil
}

func (s *OrderService) ListExecutedSwaps(ctx context.Context) ([]types.ExecutedOrderRecord, error) {
	return s.store.LoadExecutedSwaps(ctx)
}

func (s *OrderService) CreateLimitOrder(ctx context.Context, order types.LimitOrder) (*types.LimitOrder, error) {
	if !order.Kind.IsValid() {
		return nil, fmt.Errorf("invalid order kind %q", order.Kind)
	}
	if err := types.ValidateAmount(order.Amount); err != nil {
		return nil, err
	}
	if !order.TargetPrice.IsPositive() {
		return nil, fmt.Errorf("target price must be positive, got %s", order.TargetPrice)
	}
	order.ID = uuid.New()
	order.CreatedAt = time.Now().UTC()

	pending, err := s.store.LoadPendingLimitOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("fail to load pending limit orders: %w", err)
	}
	if err := s.store.SavePendingLimitOrders(ctx, append(pending, order)); err != nil {
		return nil, fmt.Errorf("fail to save pending limit orders: %w", err)
	}
	s.logger.WithFields(logrus.Fields{"order_id": order.ID, "kind": order.Kind}).Info("limit order created")
	return &order, nil
}

func (s *OrderService) ListLimitOrders(ctx context.Context) ([]types.LimitOrder, error) {
	return s.store.LoadPendingLimitOrders(ctx)
}

func (s *OrderService) CancelLimitOrder(ctx context.Context, id uuid.UUID) error {
	if err := s.store.RemovePendingLimitOrder(ctx, id); err != nil {
		return err
	}
	s.logger.WithField("order_id", id).Info("limit order cancelled")
	return nil
}

func (s *OrderService) ListExecutedLimitOrders(ctx context.Context) ([]types.ExecutedOrderRecord, error) {
	return s.store.LoadExecutedLimitOrders(ctx)
}

func (s *OrderService) CreateDCAOrder(ctx context.Context, order types.DCAOrder) (*types.DCAOrder, error) {
	if !order.Periodicity.IsValid() {
		return nil, fmt.Errorf("invalid periodicity %q", order.Periodicity)
	}
	if err := types.ValidateAmount(order.AmountInCounterAsset); err != nil {
		return nil, err
	}
	order.ID = uuid.New()
	order.CreatedAt = time.Now().UTC()
	order.Executed = []types.DCAExecution{}

	orders, err := s.store.LoadDCAOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("fail to load dca orders: %w", err)
	}
	if err := s.store.SaveDCAOrders(ctx, append(orders, order)); err != nil {
		return nil, fmt.Errorf("fail to save dca orders: %w", err)
	}
	s.logger.WithFields(logrus.Fields{"order_id": order.ID, "periodicity": order.Periodicity}).Info("dca order created")
	return &order, nil
}

func (s *OrderService) ListDCAOrders(ctx context.Context) ([]types.DCAOrder, error) {
	return s.store.LoadDCAOrders(ctx)
}

func (s *OrderService) CancelDCAOrder(ctx context.Context, id uuid.UUID) error {
	if err := s.store.RemoveDCAOrder(ctx, id); err != nil {
		return err
	}
	s.logger.WithField("order_id", id).Info("dca order cancelled")
	return nil
}
