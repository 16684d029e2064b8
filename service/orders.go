package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/webpiratt/autoswap/config"
	"github.com/webpiratt/autoswap/internal/gate"
	"github.com/webpiratt/autoswap/internal/market"
	"github.com/webpiratt/autoswap/internal/tokens"
	"github.com/webpiratt/autoswap/internal/types"
	"github.com/webpiratt/autoswap/storage"
)

// unitProbeAmount is the fixed amount quoted to derive a per-token USD
// price for limit/stop evaluation, independent of the order size.
const unitProbeAmount = "1"

// LimitOrderJob evaluates pending limit and stop orders against a fresh
// price probe and executes the ones whose threshold holds.
type LimitOrderJob struct {
	store    storage.OrderStore
	market   market.Market
	registry *tokens.Registry
	gate     *gate.Gate
	logger   *logrus.Logger
	clock    func() time.Time
}

func NewLimitOrderJob(
	store storage.OrderStore,
	mkt market.Market,
	registry *tokens.Registry,
	g *gate.Gate,
	logger *logrus.Logger,
) *LimitOrderJob {
	return &LimitOrderJob{
		store:    store,
		market:   mkt,
		registry: registry,
		gate:     g,
		logger:   logger,
		clock:    time.Now,
	}
}

func (j *LimitOrderJob) Run(ctx context.Context) error {
	if !j.gate.ShouldFire(config.JobOrderManager, j.clock()) {
		return nil
	}

	pending, err := j.store.LoadPendingLimitOrders(ctx)
	if err != nil {
		return fmt.Errorf("fail to load pending limit orders: %w", err)
	}
	j.logger.Infof("%d limit/stop order(s) found", len(pending))
	if len(pending) == 0 {
		return nil
	}

	assets, err := j.registry.Tokens(ctx)
	if err != nil {
		return fmt.Errorf("fail to resolve token list: %w", err)
	}
	logBalances(ctx, j.market, assets, j.logger)

	remaining := make([]types.LimitOrder, 0, len(pending))
	var executed []types.ExecutedOrderRecord

	for _, order := range pending {
		record, ok := j.processOrder(ctx, order, assets)
		if !ok {
			remaining = append(remaining, order)
			continue
		}
		executed = append(executed, record)
	}

	if err := j.store.AppendExecutedLimitOrders(ctx, executed...); err != nil {
		return fmt.Errorf("fail to append executed limit orders: %w", err)
	}
	if err := j.store.SavePendingLimitOrders(ctx, remaining); err != nil {
		return fmt.Errorf("fail to save pending limit orders: %w", err)
	}
	return nil
}

func (j *LimitOrderJob) processOrder(ctx context.Context, order types.LimitOrder, assets tokens.Map) (types.ExecutedOrderRecord, bool) {
	log := j.logger.WithFields(logrus.Fields{
		"order_id": order.ID,
		"kind":     order.Kind,
		"asset":    order.AssetToTrade,
		"counter":  order.CounterAsset,
		"target":   order.TargetPrice,
	})

	// Price probe: one unit of the traded asset quoted against the counter
	// asset, regardless of order direction.
	probe := market.SwapIntent{
		FromAsset: order.AssetToTrade,
		ToAsset:   order.CounterAsset,
		Amount:    unitProbeAmount,
	}
	quote, err := j.market.FetchQuote(ctx, probe, assets)
	if err != nil {
		var unavailable *market.QuoteUnavailableError
		if errors.As(err, &unavailable) {
			log.Warn("no route for limit order probe, keeping pending")
		} else {
			log.WithError(err).Error("fail to fetch quote, keeping pending")
		}
		return types.ExecutedOrderRecord{}, false
	}

	price := comparisonPrice(order.Kind, quote)
	if !priceTriggered(order, quote) {
		log.Infof("threshold not met, current price %s USD", price)
		return types.ExecutedOrderRecord{}, false
	}
	log.Infof("threshold met at %s USD, executing", price)

	from, to := order.FromTo()
	intent := market.SwapIntent{FromAsset: from, ToAsset: to, Amount: order.Amount}
	execQuote, err := j.market.FetchQuote(ctx, intent, assets)
	if err != nil {
		log.WithError(err).Error("fail to quote execution amount, keeping pending")
		return types.ExecutedOrderRecord{}, false
	}

	result, err := j.market.SubmitSwap(ctx, intent, execQuote, assets)
	if err != nil {
		log.WithError(err).Error("swap execution failed, keeping pending")
		return types.ExecutedOrderRecord{}, false
	}

	log.WithField("tx", result.TxRef).Info("limit/stop order executed")
	return executedRecord(order.ID, from, to, result, j.clock()), true
}
