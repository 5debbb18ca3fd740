// Package pricing maintains a cache of live USD prices for the supported
// coins. The crediting pipeline and the deposit flow both read from it; when
// a price is missing they degrade rather than fail.
package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

// coinGeckoIDs maps coin codes to CoinGecko asset ids.
var coinGeckoIDs = map[string]string{
	"BTC":  "bitcoin",
	"ETH":  "ethereum",
	"USDT": "tether",
	"LTC":  "litecoin",
	"TRX":  "tron",
	"BNB":  "binancecoin",
	"SOL":  "solana",
}

// Feed caches USD prices and refreshes them from a simple-price endpoint.
type Feed struct {
	baseURL    string
	coins      []string
	httpClient *http.Client
	log        *slog.Logger

	mu     sync.RWMutex
	prices map[string]float64
}

// NewFeed creates a price feed for the given coins. Static seed prices (may
// be nil) are served until the first successful refresh and are how
// air-gapped deployments run without a poller.
func NewFeed(baseURL string, coins []string, static map[string]float64, log *slog.Logger) *Feed {
	prices := make(map[string]float64)
	for coin, p := range static {
		prices[strings.ToUpper(coin)] = p
	}

	return &Feed{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		coins:   coins,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		log:    log,
		prices: prices,
	}
}

// Price returns the cached USD price for a coin, reporting whether one is
// known.
func (f *Feed) Price(coin string) (float64, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	p, ok := f.prices[strings.ToUpper(coin)]
	if !ok || p <= 0 {
		return 0, false
	}
	return p, true
}

// Refresh fetches current prices for all configured coins.
func (f *Feed) Refresh(ctx context.Context) error {
	var ids []string
	for _, coin := range f.coins {
		if id, ok := coinGeckoIDs[strings.ToUpper(coin)]; ok {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	url := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=usd", f.baseURL, strings.Join(ids, ","))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch prices: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("price API status %d: %s", resp.StatusCode, data)
	}

	var parsed map[string]struct {
		USD float64 `json:"usd"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("unmarshal prices: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for coin, id := range coinGeckoIDs {
		if entry, ok := parsed[id]; ok && entry.USD > 0 {
			f.prices[coin] = entry.USD
		}
	}

	return nil
}

// PollLoop refreshes prices on an interval until the context is cancelled.
// A failed refresh keeps the previous cache.
func (f *Feed) PollLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if err := f.Refresh(ctx); err != nil {
		f.log.Warn("initial price refresh failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := f.Refresh(ctx); err != nil {
				f.log.Warn("price refresh failed", "error", err)
			}
		}
	}
}
