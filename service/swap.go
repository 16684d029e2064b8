package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/webpiratt/autoswap/config"
	"github.com/webpiratt/autoswap/internal/gate"
	"github.com/webpiratt/autoswap/internal/market"
	"github.com/webpiratt/autoswap/internal/tokens"
	"github.com/webpiratt/autoswap/internal/types"
	"github.com/webpiratt/autoswap/storage"
)

// ScheduledSwapJob executes pending swaps whose gas fees are at or below the
// configured ceiling. One run processes its orders strictly sequentially; a
// submitted swap moves wallet balances, so the next evaluation must see the
// effects of the previous execution.
type ScheduledSwapJob struct {
	store         storage.OrderStore
	market        market.Market
	registry      *tokens.Registry
	gate          *gate.Gate
	maxGasFeesUSD decimal.Decimal
	logger        *logrus.Logger
	clock         func() time.Time
}

func NewScheduledSwapJob(
	store storage.OrderStore,
	mkt market.Market,
	registry *tokens.Registry,
	g *gate.Gate,
	maxGasFeesUSD string,
	logger *logrus.Logger,
) (*ScheduledSwapJob, error) {
	ceiling, err := decimal.NewFromString(maxGasFeesUSD)
	if err != nil {
		return nil, fmt.Errorf("invalid max gas fee ceiling %q: %w", maxGasFeesUSD, err)
	}
	return &ScheduledSwapJob{
		store:         store,
		market:        mkt,
		registry:      registry,
		gate:          g,
		maxGasFeesUSD: ceiling,
		logger:        logger,
		clock:         time.Now,
	}, nil
}

// Run processes the pending scheduled swaps once. It returns an error only
// for store or configuration faults; per-order market failures are contained
// and leave the order pending for the next invocation.
func (j *ScheduledSwapJob) Run(ctx context.Context) error {
	if !j.gate.ShouldFire(config.JobGasOptimizer, j.clock()) {
		return nil
	}

	pending, err := j.store.LoadPendingSwaps(ctx)
	if err != nil {
		return fmt.Errorf("fail to load pending swaps: %w", err)
	}
	if len(pending) == 0 {
		j.logger.Info("no scheduled swap found")
		return nil
	}
	j.logger.Infof("scheduled swaps found: %d", len(pending))

	assets, err := j.registry.Tokens(ctx)
	if err != nil {
		return fmt.Errorf("fail to resolve token list: %w", err)
	}
	logBalances(ctx, j.market, assets, j.logger)

	remaining := make([]types.ScheduledSwapOrder, 0, len(pending))
	var executed []types.ExecutedOrderRecord

	for _, order := range pending {
		record, ok := j.processOrder(ctx, order, assets)
		if !ok {
			remaining = append(remaining, order)
			continue
		}
		executed = append(executed, record)
	}

	// The executed log is written before the pending list: if the second
	// write fails, an order can be retried (and double-executed) but a
	// completed swap is never silently forgotten.
	if err := j.store.AppendExecutedSwaps(ctx, executed...); err != nil {
		return fmt.Errorf("fail to append executed swaps: %w", err)
	}
	if err := j.store.SavePendingSwaps(ctx, remaining); err != nil {
		return fmt.Errorf("fail to save pending swaps: %w", err)
	}
	return nil
}

func (j *ScheduledSwapJob) processOrder(ctx context.Context, order types.ScheduledSwapOrder, assets tokens.Map) (types.ExecutedOrderRecord, bool) {
	log := j.logger.WithFields(logrus.Fields{
		"order_id": order.ID,
		"from":     order.FromAsset,
		"to":       order.ToAsset,
		"amount":   order.Amount,
	})

	intent := market.SwapIntent{FromAsset: order.FromAsset, ToAsset: order.ToAsset, Amount: order.Amount}
	quote, err := j.market.FetchQuote(ctx, intent, assets)
	if err != nil {
		var unavailable *market.QuoteUnavailableError
		if errors.As(err, &unavailable) {
			log.Warn("no route for scheduled swap, keeping pending")
		} else {
			log.WithError(err).Error("fail to fetch quote, keeping pending")
		}
		return types.ExecutedOrderRecord{}, false
	}

	if !gasBelowCeiling(quote, j.maxGasFeesUSD) {
		log.Infof("gas too high: %s USD above ceiling %s USD", quote.GasFeesUSD, j.maxGasFeesUSD)
		return types.ExecutedOrderRecord{}, false
	}

	result, err := j.market.SubmitSwap(ctx, intent, quote, assets)
	if err != nil {
		log.WithError(err).Error("swap execution failed, keeping pending")
		return types.ExecutedOrderRecord{}, false
	}

	log.WithField("tx", result.TxRef).Info("scheduled swap executed")
	return executedRecord(order.ID, order.FromAsset, order.ToAsset, result, j.clock()), true
}

func executedRecord(orderID uuid.UUID, from, to string, result *types.SwapResult, at time.Time) types.ExecutedOrderRecord {
	return types.ExecutedOrderRecord{
		OrderID:         orderID,
		FromAsset:       from,
		ToAsset:         to,
		SellAmount:      result.SellAmount,
		BuyAmount:       result.BuyAmount,
		GasFeesUSD:      result.GasFeesUSD,
		ProviderFeesUSD: result.ProviderFeesUSD,
		Route:           result.Route,
		TxRef:           result.TxRef,
		ExecutionTime:   at,
	}
}

// logBalances reports the wallet portfolio at the start of a run. Balance
// reads are diagnostic only; a failure does not abort the run.
func logBalances(ctx context.Context, reader market.BalanceReader, assets tokens.Map, logger *logrus.Logger) {
	balances, err := reader.WalletBalances(ctx, assets)
	if err != nil {
		logger.WithError(err).Warn("fail to read wallet balances")
		return
	}
	fields := logrus.Fields{}
	for _, b := range balances {
		fields[b.Asset] = b.Amount.String()
	}
	logger.WithFields(fields).Debug("wallet balances")
}
