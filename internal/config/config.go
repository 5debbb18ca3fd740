package config

import (
	"os"
	"strconv"
	"strings"
)

// Placeholder values that mean "not configured". The webhook listener is
// disabled (with a warning) when the merchant key or host still carries one.
const (
	PlaceholderMerchantKey = "sandbox"
	PlaceholderWebhookHost = "https://yourdomain.com"
)

type Config struct {
	// Telegram
	BotToken string

	// OxaPay
	MerchantKey    string
	InvoiceURL     string
	WebhookHost    string
	WebhookPort    int
	WebhookPath    string
	MinDepositUSD  float64
	AllowUnsigned  bool
	SupportedCoins []string

	// Database
	DBPath string

	// Dedup retention
	DedupRetentionDays int

	// Pricing
	PriceBaseURL      string
	PricePollInterval int // seconds, 0 disables the poller
	StaticPrices      map[string]float64
}

func Load() *Config {
	cfg := &Config{
		// Telegram
		BotToken: getEnv("BOT_TOKEN", ""),

		// OxaPay
		MerchantKey:   getEnv("OXAPAY_MERCHANT_KEY", PlaceholderMerchantKey),
		InvoiceURL:    getEnv("OXAPAY_INVOICE_URL", "https://api.oxapay.com/merchants/request"),
		WebhookHost:   strings.TrimSuffix(getEnv("OXAPAY_WEBHOOK_HOST", PlaceholderWebhookHost), "/"),
		WebhookPort:   getEnvInt("OXAPAY_WEBHOOK_PORT", 8443),
		WebhookPath:   getEnv("OXAPAY_WEBHOOK_PATH", "/oxapay/webhook"),
		MinDepositUSD: getEnvFloat("OXAPAY_MIN_DEPOSIT_USD", 5.0),
		AllowUnsigned: getEnvBool("ALLOW_UNSIGNED_WEBHOOKS", false),

		// Database
		DBPath: getEnv("DB_PATH", "./deposits.db"),

		// Dedup retention
		DedupRetentionDays: getEnvInt("DEDUP_RETENTION_DAYS", 30),

		// Pricing
		PriceBaseURL:      strings.TrimSuffix(getEnv("PRICE_BASE_URL", "https://api.coingecko.com/api/v3"), "/"),
		PricePollInterval: getEnvInt("PRICE_POLL_INTERVAL", 60),
	}

	// Currencies OxaPay accepts AND the wallet supports
	coins := getEnv("OXAPAY_SUPPORTED_CURRENCIES", "BTC,ETH,USDT,LTC,TRX,BNB,SOL")
	for _, c := range strings.Split(coins, ",") {
		c = strings.ToUpper(strings.TrimSpace(c))
		if c != "" {
			cfg.SupportedCoins = append(cfg.SupportedCoins, c)
		}
	}

	// Static price overrides: "BTC=50000,ETH=3000"
	cfg.StaticPrices = make(map[string]float64)
	for _, pair := range strings.Split(getEnv("STATIC_PRICES", ""), ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if p, err := strconv.ParseFloat(parts[1], 64); err == nil && p > 0 {
			cfg.StaticPrices[strings.ToUpper(parts[0])] = p
		}
	}

	return cfg
}

// WebhookConfigured reports whether the processor callback listener can start.
func (c *Config) WebhookConfigured() bool {
	if c.MerchantKey == "" || c.MerchantKey == PlaceholderMerchantKey {
		return false
	}
	if c.WebhookHost == "" || c.WebhookHost == PlaceholderWebhookHost {
		return false
	}
	return true
}

// CallbackURL is the publicly reachable URL OxaPay posts confirmations to.
func (c *Config) CallbackURL() string {
	return c.WebhookHost + c.WebhookPath
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}
