// Package market defines the external market collaborators: quoting, swap
// execution and wallet balance reads. Implementations are thin wrappers over
// an external aggregator; all policy (timeouts, retries) lives there, not in
// the callers.
package market

import (
	"context"
	"fmt"

	"github.com/webpiratt/autoswap/internal/tokens"
	"github.com/webpiratt/autoswap/internal/types"
)

// SwapIntent names what to trade: whole-token amount of FromAsset sold for
// ToAsset. Symbols are resolved against the supplied token map.
type SwapIntent struct {
	FromAsset string
	ToAsset   string
	Amount    string
}

type Quoter interface {
	// FetchQuote returns a fresh quote for the intent, or a
	// *QuoteUnavailableError when no route exists.
	FetchQuote(ctx context.Context, intent SwapIntent, assets tokens.Map) (*types.Quote, error)
}

type Swapper interface {
	// SubmitSwap executes the intent against the previously fetched quote.
	// Failures are reported as *SwapExecutionError.
	SubmitSwap(ctx context.Context, intent SwapIntent, quote *types.Quote, assets tokens.Map) (*types.SwapResult, error)
}

type BalanceReader interface {
	WalletBalances(ctx context.Context, assets tokens.Map) ([]types.Balance, error)
}

// Market is the full collaborator surface the orchestrators consume.
type Market interface {
	tokens.Source
	Quoter
	Swapper
	BalanceReader
}

// QuoteUnavailableError means no route exists for the requested pair. The
// affected order stays pending; the run continues.
type QuoteUnavailableError struct {
	FromAsset string
	ToAsset   string
}

func (e *QuoteUnavailableError) Error() string {
	return fmt.Sprintf("no quote available for %s -> %s", e.FromAsset, e.ToAsset)
}

// SwapExecutionError means the aggregator rejected or failed the submitted
// swap. The affected order stays pending; the run continues.
type SwapExecutionError struct {
	FromAsset string
	ToAsset   string
	Err       error
}

func (e *SwapExecutionError) Error() string {
	return fmt.Sprintf("swap %s -> %s failed: %v", e.FromAsset, e.ToAsset, e.Err)
}

func (e *SwapExecutionError) Unwrap() error { return e.Err }
