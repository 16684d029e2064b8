// Package tokens resolves the set of tradable assets: the list the market
// aggregator supports, overlaid with a user-maintained personal token file.
package tokens

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/webpiratt/autoswap/storage"
)

// Token describes one tradable asset.
type Token struct {
	Contract common.Address `json:"contract"`
	Decimals int            `json:"decimals"`
}

// Map is keyed by upper-case asset symbol.
type Map map[string]Token

// Lookup returns the token for a symbol, case-insensitively.
func (m Map) Lookup(symbol string) (Token, bool) {
	t, ok := m[strings.ToUpper(symbol)]
	return t, ok
}

// Source provides the aggregator-supported asset list.
type Source interface {
	SupportedAssets(ctx context.Context) (Map, error)
}

const cacheKey = "autoswap:supported_tokens"

// Registry merges the aggregator list with the personal token file. It is
// constructed once per process and passed explicitly to whatever needs it;
// there is no package-level cached state. The optional Cache avoids
// re-fetching the aggregator list on every run.
type Registry struct {
	source       Source
	personalPath string
	cache        storage.Cache
	cacheTTL     time.Duration
	logger       *logrus.Logger
}

func NewRegistry(source Source, personalPath string, cache storage.Cache, cacheTTL time.Duration, logger *logrus.Logger) *Registry {
	return &Registry{
		source:       source,
		personalPath: personalPath,
		cache:        cache,
		cacheTTL:     cacheTTL,
		logger:       logger,
	}
}

// Tokens returns the merged asset map. Personal tokens shadow aggregator
// entries with the same symbol. A missing personal file is not an error.
func (r *Registry) Tokens(ctx context.Context) (Map, error) {
	supported, err := r.supported(ctx)
	if err != nil {
		return nil, err
	}

	merged := make(Map, len(supported))
	for symbol, token := range supported {
		merged[strings.ToUpper(symbol)] = token
	}

	personal, err := r.personal()
	if err != nil {
		return nil, err
	}
	for symbol, token := range personal {
		merged[strings.ToUpper(symbol)] = token
	}
	return merged, nil
}

func (r *Registry) supported(ctx context.Context) (Map, error) {
	if r.cache != nil {
		if cached, err := r.cache.Get(ctx, cacheKey); err == nil && cached != "" {
			var m Map
			if err := json.Unmarshal([]byte(cached), &m); err == nil {
				return m, nil
			}
			// Unreadable cache entry, drop it and refetch.
			if err := r.cache.Delete(ctx, cacheKey); err != nil {
				r.logger.WithError(err).Warn("fail to delete stale token cache entry")
			}
		}
	}

	m, err := r.source.SupportedAssets(ctx)
	if err != nil {
		return nil, fmt.Errorf("fail to fetch supported assets: %w", err)
	}

	if r.cache != nil {
		if buf, err := json.Marshal(m); err == nil {
			if err := r.cache.Set(ctx, cacheKey, string(buf), r.cacheTTL); err != nil {
				r.logger.WithError(err).Warn("fail to cache token list")
			}
		}
	}
	return m, nil
}

func (r *Registry) personal() (Map, error) {
	if r.personalPath == "" {
		return nil, nil
	}
	data, err := os.ReadFile(r.personalPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fail to read personal tokens file: %w", err)
	}
	var m Map
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("fail to parse personal tokens file %s: %w", r.personalPath, err)
	}
	return m, nil
}
