package pricing

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFeed_StaticSeed(t *testing.T) {
	f := NewFeed("http://unused", []string{"BTC"}, map[string]float64{"btc": 50000}, testLogger())

	p, ok := f.Price("BTC")
	require.True(t, ok)
	assert.Equal(t, 50000.0, p)

	_, ok = f.Price("ETH")
	assert.False(t, ok, "unseeded coin has no price")
}

func TestFeed_Refresh(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/simple/price", r.URL.Path)
		assert.Contains(t, r.URL.Query().Get("ids"), "bitcoin")
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currencies"))
		w.Write([]byte(`{"bitcoin":{"usd":51000},"ethereum":{"usd":3000}}`))
	}))
	defer srv.Close()

	f := NewFeed(srv.URL, []string{"BTC", "ETH"}, nil, testLogger())
	require.NoError(t, f.Refresh(context.Background()))

	btc, ok := f.Price("BTC")
	require.True(t, ok)
	assert.Equal(t, 51000.0, btc)

	eth, ok := f.Price("ETH")
	require.True(t, ok)
	assert.Equal(t, 3000.0, eth)
}

func TestFeed_RefreshFailureKeepsCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	f := NewFeed(srv.URL, []string{"BTC"}, map[string]float64{"BTC": 50000}, testLogger())
	require.Error(t, f.Refresh(context.Background()))

	p, ok := f.Price("BTC")
	require.True(t, ok, "previous cache survives a failed refresh")
	assert.Equal(t, 50000.0, p)
}

func TestFeed_IgnoresNonPositivePrices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"bitcoin":{"usd":0}}`))
	}))
	defer srv.Close()

	f := NewFeed(srv.URL, []string{"BTC"}, nil, testLogger())
	require.NoError(t, f.Refresh(context.Background()))

	_, ok := f.Price("BTC")
	assert.False(t, ok)
}
