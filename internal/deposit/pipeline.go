// Package deposit turns verified payment confirmations into wallet credits.
package deposit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spinhall/deposit-bot/internal/currency"
	"github.com/spinhall/deposit-bot/internal/oxapay"
)

// referralCommissionRate is the share of the paid crypto amount credited to
// the depositing user's referrer.
const referralCommissionRate = 0.005

// WalletStore is the wallet/balance collaborator the pipeline writes to.
// It must provide at least per-user atomicity for balance updates.
type WalletStore interface {
	UserExists(userID int64) (bool, error)
	CreditWallet(userID int64, amount float64, currency string) error
	AddUnwageredDeposit(userID int64, usd float64) error
	Referrer(userID int64) (int64, bool, error)
	AddReferralCommission(referrerID int64, currency string, amount float64) error
}

// DuplicateGuard remembers which payments have already been credited.
// ShouldProcess must be an atomic check-and-insert so concurrent deliveries
// of the same payment yield exactly one credit.
type DuplicateGuard interface {
	ShouldProcess(dedupKey string) (bool, error)
	ForgetOrder(dedupKey string) error
}

// PriceSource supplies current USD prices for bookkeeping.
type PriceSource interface {
	Price(coin string) (float64, bool)
}

// Notifier delivers the post-credit direct message. Failures are logged,
// never rolled back.
type Notifier interface {
	SendDirectMessage(ctx context.Context, userID int64, text string) error
}

// Outcome classifies what ApplyPayment did with an event.
type Outcome string

const (
	OutcomeCredited      Outcome = "credited"
	OutcomeIgnoredStatus Outcome = "ignored_status"
	OutcomeDuplicate     Outcome = "duplicate"
	OutcomeNonPositive   Outcome = "non_positive_amount"
	OutcomeBadOrderRef   Outcome = "bad_order_ref"
	OutcomeUnknownUser   Outcome = "unknown_user"
	OutcomeError         Outcome = "error"
)

// CreditResult reports the outcome of one payment event. All non-credited
// outcomes are silent toward the processor; the webhook endpoint responds
// 200 regardless.
type CreditResult struct {
	Outcome Outcome
	UserID  int64
	Err     error
}

// Pipeline applies confirmed payments to wallets exactly once.
type Pipeline struct {
	wallets WalletStore
	guard   DuplicateGuard
	prices  PriceSource
	notify  Notifier
	log     *slog.Logger
}

// NewPipeline creates a crediting pipeline. All collaborators are injected;
// the pipeline holds no state of its own.
func NewPipeline(wallets WalletStore, guard DuplicateGuard, prices PriceSource, notify Notifier, log *slog.Logger) *Pipeline {
	return &Pipeline{
		wallets: wallets,
		guard:   guard,
		prices:  prices,
		notify:  notify,
		log:     log,
	}
}

// ApplyPayment credits the wallet behind a confirmed payment event. The
// dedup key is claimed before any money moves, so a concurrent duplicate
// delivery sees it and backs off.
func (p *Pipeline) ApplyPayment(ctx context.Context, ev *oxapay.PaymentEvent) CreditResult {
	if !ev.Confirmed() {
		p.log.Info("ignoring payment status", "status", ev.Status, "order_id", ev.OrderID)
		return CreditResult{Outcome: OutcomeIgnoredStatus}
	}

	dedupKey := ev.DedupKey()
	if dedupKey == "" {
		p.log.Warn("payment event carries no order or track id")
		return CreditResult{Outcome: OutcomeBadOrderRef}
	}

	fresh, err := p.guard.ShouldProcess(dedupKey)
	if err != nil {
		p.log.Error("duplicate guard", "error", err, "dedup_key", dedupKey)
		return CreditResult{Outcome: OutcomeError, Err: err}
	}
	if !fresh {
		p.log.Info("duplicate payment callback", "dedup_key", dedupKey)
		return CreditResult{Outcome: OutcomeDuplicate}
	}

	if ev.PayAmount <= 0 {
		p.log.Warn("non-positive pay amount", "pay_amount", ev.PayAmount, "order_id", ev.OrderID)
		return CreditResult{Outcome: OutcomeNonPositive}
	}

	userID, err := ParseOrderRef(ev.OrderID)
	if err != nil {
		p.log.Warn("unresolvable order reference", "order_id", ev.OrderID, "error", err)
		return CreditResult{Outcome: OutcomeBadOrderRef}
	}

	exists, err := p.wallets.UserExists(userID)
	if err != nil {
		p.log.Error("look up user", "error", err, "user_id", userID)
		return CreditResult{Outcome: OutcomeError, UserID: userID, Err: err}
	}
	if !exists {
		p.log.Warn("payment for unknown user, not credited", "user_id", userID, "order_id", ev.OrderID)
		return CreditResult{Outcome: OutcomeUnknownUser, UserID: userID}
	}

	if err := p.credit(userID, ev); err != nil {
		// Infrastructure failure, not a business rejection: release the
		// dedup key so a processor retry can complete the credit.
		if ferr := p.guard.ForgetOrder(dedupKey); ferr != nil {
			p.log.Error("release dedup key", "error", ferr, "dedup_key", dedupKey)
		}
		p.log.Error("credit wallet", "error", err, "user_id", userID, "order_id", ev.OrderID)
		return CreditResult{Outcome: OutcomeError, UserID: userID, Err: err}
	}

	p.log.Info("deposit credited",
		"user_id", userID,
		"amount", ev.PayAmount,
		"currency", ev.PaidCurrency,
		"amount_usd", ev.AmountUSD,
		"order_id", ev.OrderID,
	)

	p.notifyUser(ctx, userID, ev)

	return CreditResult{Outcome: OutcomeCredited, UserID: userID}
}

// credit moves the money: exact paid amount to the wallet, USD-equivalent to
// the unwagered-deposit figure, 0.5% of the crypto amount to the referrer.
func (p *Pipeline) credit(userID int64, ev *oxapay.PaymentEvent) error {
	if err := p.wallets.CreditWallet(userID, ev.PayAmount, ev.PaidCurrency); err != nil {
		return fmt.Errorf("credit wallet: %w", err)
	}

	price, ok := p.prices.Price(ev.PaidCurrency)
	if !ok {
		p.log.Warn("no live price, unwagered-deposit tracking will be inaccurate",
			"currency", ev.PaidCurrency)
		price = 1.0
	}
	if err := p.wallets.AddUnwageredDeposit(userID, ev.PayAmount*price); err != nil {
		p.log.Error("track unwagered deposit", "error", err, "user_id", userID)
	}

	referrerID, hasReferrer, err := p.wallets.Referrer(userID)
	if err != nil {
		p.log.Error("look up referrer", "error", err, "user_id", userID)
	} else if hasReferrer {
		commission := ev.PayAmount * referralCommissionRate
		if err := p.wallets.AddReferralCommission(referrerID, ev.PaidCurrency, commission); err != nil {
			p.log.Error("credit referral commission", "error", err,
				"referrer_id", referrerID, "user_id", userID)
		}
	}

	return nil
}

func (p *Pipeline) notifyUser(ctx context.Context, userID int64, ev *oxapay.PaymentEvent) {
	text := fmt.Sprintf(
		"✅ <b>Deposit Confirmed!</b>\n\n"+
			"%s <b>%s %s</b> (≈$%.2f)\n\n"+
			"Your balance has been credited. Good luck! 🎰",
		currency.Symbol(ev.PaidCurrency),
		currency.FormatAmount(ev.PayAmount, ev.PaidCurrency),
		ev.PaidCurrency,
		ev.AmountUSD,
	)

	if err := p.notify.SendDirectMessage(ctx, userID, text); err != nil {
		p.log.Error("notify user", "error", err, "user_id", userID)
	}
}
