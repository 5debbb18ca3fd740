package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, PlaceholderMerchantKey, cfg.MerchantKey)
	assert.Equal(t, 8443, cfg.WebhookPort)
	assert.Equal(t, "/oxapay/webhook", cfg.WebhookPath)
	assert.Equal(t, 5.0, cfg.MinDepositUSD)
	assert.False(t, cfg.AllowUnsigned, "unsigned webhooks are rejected by default")
	assert.Equal(t, 30, cfg.DedupRetentionDays)
	assert.Equal(t, []string{"BTC", "ETH", "USDT", "LTC", "TRX", "BNB", "SOL"}, cfg.SupportedCoins)
}

func TestLoad_SupportedCurrencies(t *testing.T) {
	t.Setenv("OXAPAY_SUPPORTED_CURRENCIES", " btc, eth ,,SOL ")

	cfg := Load()
	assert.Equal(t, []string{"BTC", "ETH", "SOL"}, cfg.SupportedCoins)
}

func TestLoad_StaticPrices(t *testing.T) {
	t.Setenv("STATIC_PRICES", "BTC=50000,eth=3000,bogus,NEG=-1")

	cfg := Load()
	assert.Equal(t, map[string]float64{"BTC": 50000, "ETH": 3000}, cfg.StaticPrices)
}

func TestWebhookConfigured(t *testing.T) {
	cfg := Load()
	assert.False(t, cfg.WebhookConfigured(), "placeholders disable the listener")

	t.Setenv("OXAPAY_MERCHANT_KEY", "real-key")
	cfg = Load()
	assert.False(t, cfg.WebhookConfigured(), "host still a placeholder")

	t.Setenv("OXAPAY_WEBHOOK_HOST", "https://casino.example.com/")
	cfg = Load()
	assert.True(t, cfg.WebhookConfigured())
	assert.Equal(t, "https://casino.example.com/oxapay/webhook", cfg.CallbackURL())
}
