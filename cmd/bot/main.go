package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spinhall/deposit-bot/internal/config"
	"github.com/spinhall/deposit-bot/internal/deposit"
	"github.com/spinhall/deposit-bot/internal/oxapay"
	"github.com/spinhall/deposit-bot/internal/pricing"
	"github.com/spinhall/deposit-bot/internal/storage"
	"github.com/spinhall/deposit-bot/internal/telegram"
	"github.com/spinhall/deposit-bot/internal/webhook"
)

func main() {
	// Setup logger
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(log)

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file found")
	}

	// Load config
	cfg := config.Load()

	if cfg.BotToken == "" {
		log.Error("BOT_TOKEN is required")
		os.Exit(1)
	}

	// Initialize storage
	store, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Error("init storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	log.Info("storage initialized", "path", cfg.DBPath)

	// Initialize price feed
	prices := pricing.NewFeed(cfg.PriceBaseURL, cfg.SupportedCoins, cfg.StaticPrices, log)

	// Initialize OxaPay client
	oxaClient := oxapay.NewClient(cfg.InvoiceURL, cfg.MerchantKey, cfg.CallbackURL())

	// Initialize telegram bot
	tgBot, err := telegram.New(cfg, store, prices, oxaClient, log)
	if err != nil {
		log.Error("init telegram bot", "error", err)
		os.Exit(1)
	}
	log.Info("telegram bot initialized")

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start price poller
	if cfg.PricePollInterval > 0 {
		go prices.PollLoop(ctx, time.Duration(cfg.PricePollInterval)*time.Second)
	}

	// Start session idle eviction
	go tgBot.Sessions().CleanupLoop(ctx, time.Minute)

	// Start webhook listener if the processor side is configured
	if cfg.WebhookConfigured() {
		verifier := oxapay.NewVerifier(cfg.MerchantKey, cfg.AllowUnsigned)
		pipeline := deposit.NewPipeline(store, store, prices, tgBot, log)
		server := webhook.NewServer(cfg.WebhookPath, verifier, pipeline, log)

		go func() {
			if err := server.Start(ctx, cfg.WebhookPort); err != nil && err != http.ErrServerClosed {
				log.Error("webhook server", "error", err)
			}
		}()

		// Bound dedup-set growth
		retention := time.Duration(cfg.DedupRetentionDays) * 24 * time.Hour
		go purgeLoop(ctx, store, retention, log)

		log.Info("webhook listener enabled", "callback_url", cfg.CallbackURL())
	} else {
		log.Warn("OxaPay merchant key or webhook host not configured, webhook listener disabled")
	}

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		log.Info("shutting down...")
		cancel()
	}()

	// Start bot polling
	log.Info("starting bot polling...")
	tgBot.Start(ctx)
}

// purgeLoop removes processed-order dedup keys older than the retention
// window once an hour.
func purgeLoop(ctx context.Context, store *storage.Storage, retention time.Duration, log *slog.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := store.PurgeProcessedOrders(retention)
			if err != nil {
				log.Error("purge processed orders", "error", err)
				continue
			}
			if removed > 0 {
				log.Info("purged processed orders", "removed", removed)
			}
		}
	}
}
