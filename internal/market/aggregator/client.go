// Package aggregator implements the market collaborators against a DEX
// aggregator HTTP API.
package aggregator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	acommon "github.com/webpiratt/autoswap/common"
	"github.com/webpiratt/autoswap/internal/market"
	"github.com/webpiratt/autoswap/internal/tokens"
	"github.com/webpiratt/autoswap/internal/types"
)

type Client struct {
	baseURL     string
	taker       common.Address
	slippageBps int64
	httpClient  *http.Client
	logger      *logrus.Logger
}

var _ market.Market = (*Client)(nil)

func NewClient(baseURL string, taker common.Address, slippageBps int64, timeout time.Duration, logger *logrus.Logger) *Client {
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		taker:       taker,
		slippageBps: slippageBps,
		httpClient:  &http.Client{Timeout: timeout},
		logger:      logger,
	}
}

type tokenEntry struct {
	Symbol   string         `json:"symbol"`
	Address  common.Address `json:"address"`
	Decimals int            `json:"decimals"`
}

type tokensResponse struct {
	Content []tokenEntry `json:"content"`
}

func (c *Client) SupportedAssets(ctx context.Context) (tokens.Map, error) {
	var resp tokensResponse
	if err := c.getJSON(ctx, "/swap/v2/tokens", nil, &resp); err != nil {
		return nil, fmt.Errorf("fail to fetch token list: %w", err)
	}
	m := make(tokens.Map, len(resp.Content))
	for _, entry := range resp.Content {
		m[strings.ToUpper(entry.Symbol)] = tokens.Token{
			Contract: entry.Address,
			Decimals: entry.Decimals,
		}
	}
	return m, nil
}

type quoteEntry struct {
	QuoteID         string          `json:"quoteId"`
	BuyAmount       *hexutil.Big    `json:"buyAmount"`
	BuyAmountInUsd  decimal.Decimal `json:"buyAmountInUsd"`
	SellAmountInUsd decimal.Decimal `json:"sellAmountInUsd"`
	GasFeesInUsd    decimal.Decimal `json:"gasFeesInUsd"`
	FeesInUsd       decimal.Decimal `json:"providerFeesInUsd"`
	Routes          []struct {
		Name string `json:"name"`
	} `json:"routes"`
}

// FetchQuote asks the aggregator for routes and returns the best one. An
// empty route set maps to QuoteUnavailableError.
func (c *Client) FetchQuote(ctx context.Context, intent market.SwapIntent, assets tokens.Map) (*types.Quote, error) {
	from, to, err := resolvePair(intent, assets)
	if err != nil {
		return nil, err
	}
	sellAmount, err := acommon.ToBaseUnits(intent.Amount, from.Decimals)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("sellTokenAddress", from.Contract.Hex())
	params.Set("buyTokenAddress", to.Contract.Hex())
	params.Set("sellAmount", hexutil.EncodeBig(sellAmount))
	params.Set("takerAddress", c.taker.Hex())

	var quotes []quoteEntry
	if err := c.getJSON(ctx, "/swap/v2/quotes", params, &quotes); err != nil {
		return nil, fmt.Errorf("fail to fetch quotes: %w", err)
	}
	if len(quotes) == 0 {
		return nil, &market.QuoteUnavailableError{FromAsset: intent.FromAsset, ToAsset: intent.ToAsset}
	}

	best := quotes[0]
	quote := &types.Quote{
		BuyAmountUSD:    best.BuyAmountInUsd,
		SellAmountUSD:   best.SellAmountInUsd,
		GasFeesUSD:      best.GasFeesInUsd,
		ProviderFeesUSD: best.FeesInUsd,
		QuoteID:         best.QuoteID,
	}
	if best.BuyAmount != nil {
		quote.BuyAmount = acommon.FromBaseUnits(best.BuyAmount.ToInt(), to.Decimals)
	}
	if len(best.Routes) > 0 {
		quote.Route = best.Routes[0].Name
	}
	return quote, nil
}

type executeRequest struct {
	QuoteID      string `json:"quoteId"`
	TakerAddress string `json:"takerAddress"`
	SlippageBps  int64  `json:"slippageBps"`
}

type executeResponse struct {
	TransactionHash string `json:"transactionHash"`
}

func (c *Client) SubmitSwap(ctx context.Context, intent market.SwapIntent, quote *types.Quote, assets tokens.Map) (*types.SwapResult, error) {
	sellAmount, err := decimal.NewFromString(intent.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid swap amount %q: %w", intent.Amount, err)
	}

	body, err := json.Marshal(executeRequest{
		QuoteID:      quote.QuoteID,
		TakerAddress: c.taker.Hex(),
		SlippageBps:  c.slippageBps,
	})
	if err != nil {
		return nil, fmt.Errorf("fail to marshal execute request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/swap/v2/execute", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &market.SwapExecutionError{FromAsset: intent.FromAsset, ToAsset: intent.ToAsset, Err: err}
	}
	defer c.closeBody(resp.Body)

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(resp.Body)
		return nil, &market.SwapExecutionError{
			FromAsset: intent.FromAsset,
			ToAsset:   intent.ToAsset,
			Err:       fmt.Errorf("aggregator returned %d: %s", resp.StatusCode, payload),
		}
	}

	var result executeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &market.SwapExecutionError{FromAsset: intent.FromAsset, ToAsset: intent.ToAsset, Err: err}
	}

	return &types.SwapResult{
		SellAmount:      sellAmount,
		BuyAmount:       quote.BuyAmount,
		GasFeesUSD:      quote.GasFeesUSD,
		ProviderFeesUSD: quote.ProviderFeesUSD,
		Route:           quote.Route,
		TxRef:           result.TransactionHash,
	}, nil
}

type balanceEntry struct {
	Symbol  string          `json:"symbol"`
	Balance decimal.Decimal `json:"balance"`
}

func (c *Client) WalletBalances(ctx context.Context, assets tokens.Map) ([]types.Balance, error) {
	params := url.Values{}
	params.Set("address", c.taker.Hex())

	var entries []balanceEntry
	if err := c.getJSON(ctx, "/swap/v2/balances", params, &entries); err != nil {
		return nil, fmt.Errorf("fail to fetch wallet balances: %w", err)
	}

	balances := make([]types.Balance, 0, len(entries))
	for _, entry := range entries {
		// Only assets we can actually trade.
		if _, ok := assets.Lookup(entry.Symbol); !ok {
			continue
		}
		balances = append(balances, types.Balance{
			Asset:  strings.ToUpper(entry.Symbol),
			Amount: entry.Balance,
		})
	}
	return balances, nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer c.closeBody(resp.Body)

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("aggregator returned %d for %s: %s", resp.StatusCode, path, payload)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) closeBody(body io.Closer) {
	if err := body.Close(); err != nil {
		c.logger.Errorf("fail to close response body: %v", err)
	}
}

func resolvePair(intent market.SwapIntent, assets tokens.Map) (from, to tokens.Token, err error) {
	from, ok := assets.Lookup(intent.FromAsset)
	if !ok {
		return tokens.Token{}, tokens.Token{}, fmt.Errorf("unknown asset %q", intent.FromAsset)
	}
	to, ok = assets.Lookup(intent.ToAsset)
	if !ok {
		return tokens.Token{}, tokens.Token{}, fmt.Errorf("unknown asset %q", intent.ToAsset)
	}
	return from, to, nil
}
