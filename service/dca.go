package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/webpiratt/autoswap/internal/market"
	"github.com/webpiratt/autoswap/internal/tokens"
	"github.com/webpiratt/autoswap/internal/types"
	"github.com/webpiratt/autoswap/storage"
)

// DCAJob runs the periodic purchases. Orders are never removed; each period
// that fires appends one dated entry to the order's execution history, and
// that history is the idempotency guard, so the job needs no schedule gate.
type DCAJob struct {
	store      storage.OrderStore
	market     market.Market
	registry   *tokens.Registry
	weeklyDay  int
	monthlyDay int
	logger     *logrus.Logger
	clock      func() time.Time
}

func NewDCAJob(
	store storage.OrderStore,
	mkt market.Market,
	registry *tokens.Registry,
	weeklyDay, monthlyDay int,
	logger *logrus.Logger,
) *DCAJob {
	return &DCAJob{
		store:      store,
		market:     mkt,
		registry:   registry,
		weeklyDay:  weeklyDay,
		monthlyDay: monthlyDay,
		logger:     logger,
		clock:      time.Now,
	}
}

func (j *DCAJob) Run(ctx context.Context) error {
	orders, err := j.store.LoadDCAOrders(ctx)
	if err != nil {
		return fmt.Errorf("fail to load dca orders: %w", err)
	}
	if len(orders) == 0 {
		j.logger.Info("no dca order found")
		return nil
	}

	now := j.clock()
	due := make([]types.DCAOrder, 0, len(orders))
	for _, order := range orders {
		if dcaDue(order, now, j.weeklyDay, j.monthlyDay) {
			due = append(due, order)
		}
	}
	if len(due) == 0 {
		j.logger.Info("no dca order due")
		return nil
	}

	assets, err := j.registry.Tokens(ctx)
	if err != nil {
		return fmt.Errorf("fail to resolve token list: %w", err)
	}

	// Each successful purchase is persisted immediately: history mutation is
	// applied order by order since nothing is ever removed.
	for _, order := range due {
		j.processOrder(ctx, order, now, assets)
	}
	return nil
}

func (j *DCAJob) processOrder(ctx context.Context, order types.DCAOrder, now time.Time, assets tokens.Map) {
	log := j.logger.WithFields(logrus.Fields{
		"order_id":    order.ID,
		"buy":         order.AssetToBuy,
		"counter":     order.CounterAsset,
		"periodicity": order.Periodicity,
	})
	log.Infof("executing %s dca order for %s-%s", order.Periodicity, order.AssetToBuy, order.CounterAsset)

	intent := market.SwapIntent{
		FromAsset: order.CounterAsset,
		ToAsset:   order.AssetToBuy,
		Amount:    order.AmountInCounterAsset,
	}
	quote, err := j.market.FetchQuote(ctx, intent, assets)
	if err != nil {
		log.WithError(err).Error("fail to fetch quote, skipping until next period tick")
		return
	}
	result, err := j.market.SubmitSwap(ctx, intent, quote, assets)
	if err != nil {
		log.WithError(err).Error("dca purchase failed, skipping until next period tick")
		return
	}

	exec := types.DCAExecution{Date: types.DateOf(now), TokensBought: result.BuyAmount}
	if err := j.store.AppendDCAExecution(ctx, order.ID, exec); err != nil {
		// The swap went through but the record write failed; the next run on
		// the same date would buy again, so surface this loudly.
		log.WithError(err).Error("fail to record dca execution")
		return
	}
	log.WithFields(logrus.Fields{
		"tx":     result.TxRef,
		"bought": result.BuyAmount,
	}).Info("dca purchase recorded")
}
