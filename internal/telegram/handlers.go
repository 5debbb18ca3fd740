package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/shopspring/decimal"
	"github.com/spinhall/deposit-bot/internal/config"
	"github.com/spinhall/deposit-bot/internal/currency"
	"github.com/spinhall/deposit-bot/internal/deposit"
	"github.com/spinhall/deposit-bot/internal/oxapay"
	"github.com/spinhall/deposit-bot/internal/storage"
)

// PriceSource supplies current USD prices for the deposit flow's
// crypto-amount preview.
type PriceSource interface {
	Price(coin string) (float64, bool)
}

// Bot wraps the telegram bot with the deposit flow handlers.
type Bot struct {
	bot      *bot.Bot
	cfg      *config.Config
	storage  *storage.Storage
	prices   PriceSource
	oxa      *oxapay.Client
	sessions *SessionManager
	owners   *OwnershipRegistry
	log      *slog.Logger
}

// New creates the telegram bot and registers all handlers.
func New(cfg *config.Config, store *storage.Storage, prices PriceSource, oxa *oxapay.Client, log *slog.Logger) (*Bot, error) {
	b := &Bot{
		cfg:      cfg,
		storage:  store,
		prices:   prices,
		oxa:      oxa,
		sessions: NewSessionManager(),
		owners:   NewOwnershipRegistry(),
		log:      log,
	}

	opts := []bot.Option{
		bot.WithDefaultHandler(b.defaultHandler),
		bot.WithCallbackQueryDataHandler("", bot.MatchTypePrefix, b.callbackHandler),
	}

	tgBot, err := bot.New(cfg.BotToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}

	b.bot = tgBot

	tgBot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypePrefix, b.startHandler)
	tgBot.RegisterHandler(bot.HandlerTypeMessageText, "/cancel", bot.MatchTypeExact, b.cancelHandler)
	tgBot.RegisterHandler(bot.HandlerTypeMessageText, "/balance", bot.MatchTypeExact, b.balanceHandler)

	return b, nil
}

// Start starts bot polling.
func (b *Bot) Start(ctx context.Context) {
	b.bot.Start(ctx)
}

// Sessions exposes the session manager so main can run the idle-eviction
// loop.
func (b *Bot) Sessions() *SessionManager {
	return b.sessions
}

// --- Commands ---

func (b *Bot) startHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	userID := update.Message.From.ID

	// "/start ref_<id>" deep links attribute the new user to a referrer.
	var referrerID *int64
	if payload, ok := strings.CutPrefix(update.Message.Text, "/start ref_"); ok {
		if id, err := strconv.ParseInt(strings.TrimSpace(payload), 10, 64); err == nil && id != userID {
			referrerID = &id
		}
	}

	if err := b.storage.EnsureUser(userID, referrerID); err != nil {
		b.log.Error("ensure user", "error", err, "user_id", userID)
	}

	name := update.Message.From.FirstName
	if name == "" {
		name = update.Message.From.Username
	}
	if name == "" {
		name = "player"
	}

	text := fmt.Sprintf(
		"🎰 Welcome, <b>%s</b>!\n\n"+
			"Fund your balance with crypto via OxaPay and start playing.\n\n"+
			"<i>Minimum deposit: $%.0f</i>",
		name, b.cfg.MinDepositUSD,
	)

	msg := b.sendMessage(ctx, update.Message.Chat.ID, text, MainKeyboard())
	if msg != nil {
		b.owners.SetOwner(msg.Chat.ID, msg.ID, userID)
	}
}

func (b *Bot) cancelHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	userID := update.Message.From.ID
	if b.sessions.Get(userID) == nil {
		return
	}

	b.sessions.Clear(userID)
	b.sendMessage(ctx, update.Message.Chat.ID, "❌ Deposit cancelled.", MainKeyboard())
}

func (b *Bot) balanceHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	b.sendMessage(ctx, update.Message.Chat.ID, b.balanceText(update.Message.From.ID), MainKeyboard())
}

func (b *Bot) balanceText(userID int64) string {
	balances, err := b.storage.Balances(userID)
	if err != nil {
		b.log.Error("list balances", "error", err, "user_id", userID)
		return "❌ Could not load your balance."
	}

	if len(balances) == 0 {
		return "💰 Your wallet is empty. Make a deposit to get started!"
	}

	lines := []string{"💰 <b>Your balance:</b>\n"}
	for _, bal := range balances {
		lines = append(lines, fmt.Sprintf("%s <b>%s %s</b>",
			currency.Symbol(bal.Currency),
			currency.FormatAmount(bal.Amount, bal.Currency),
			bal.Currency,
		))
	}

	return strings.Join(lines, "\n")
}

// --- Free-text input (custom amount state) ---

func (b *Bot) defaultHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Text == "" {
		return
	}

	userID := update.Message.From.ID
	s := b.sessions.Get(userID)
	if s == nil || s.State != StateCustomAmountInput {
		return
	}

	b.handleCustomAmount(ctx, update.Message, strings.TrimSpace(update.Message.Text))
}

// parseCustomAmount validates free-text USD input against the configured
// minimum deposit.
func parseCustomAmount(text string, minDepositUSD float64) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.ReplaceAll(text, ",", ""))
	if err != nil {
		return decimal.Zero, fmt.Errorf("not a number: %q", text)
	}
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("amount must be positive")
	}
	if amount.LessThan(decimal.NewFromFloat(minDepositUSD)) {
		return decimal.Zero, fmt.Errorf("amount below minimum deposit of $%.2f", minDepositUSD)
	}
	return amount, nil
}

// estimateCrypto converts a USD amount to crypto units at the given price.
// A missing or zero price falls back to 1.0, matching the crediting side's
// bookkeeping fallback.
func estimateCrypto(amountUSD decimal.Decimal, price float64) decimal.Decimal {
	if price <= 0 {
		price = 1.0
	}
	return amountUSD.Div(decimal.NewFromFloat(price))
}

func (b *Bot) handleCustomAmount(ctx context.Context, msg *models.Message, text string) {
	userID := msg.From.ID

	amount, err := parseCustomAmount(text, b.cfg.MinDepositUSD)
	if err != nil {
		// Invalid input re-prompts in place; the state does not advance.
		b.sendMessage(ctx, msg.Chat.ID,
			fmt.Sprintf("❌ Invalid amount. Please enter a number ≥ <b>$%.0f</b>.", b.cfg.MinDepositUSD),
			BackToAmountsKeyboard(),
		)
		return
	}

	ok := b.sessions.Update(userID, func(s *Session) {
		s.AmountUSD = amount
		s.AwaitingCustom = false
		s.State = StateCurrencySelect
	})
	if !ok {
		return
	}

	sent := b.sendMessage(ctx, msg.Chat.ID, b.currencyText(amount), CurrencyKeyboard(b.availableCoins()))
	if sent != nil {
		b.owners.SetOwner(sent.Chat.ID, sent.ID, userID)
	}
}

// --- Callback routing ---

func (b *Bot) callbackHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}

	cb := update.CallbackQuery
	data := cb.Data

	tgBot.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: cb.ID,
	})

	switch {
	case data == "deposit":
		b.showAmountScreen(ctx, cb, true)
	case data == "dep_amt_custom":
		b.showCustomPrompt(ctx, cb)
	case strings.HasPrefix(data, "dep_amt_"):
		b.handlePresetAmount(ctx, cb, strings.TrimPrefix(data, "dep_amt_"))
	case strings.HasPrefix(data, "dep_cur_"):
		b.handleCurrencySelected(ctx, cb, strings.TrimPrefix(data, "dep_cur_"))
	case data == "dep_back_amounts":
		b.showAmountScreen(ctx, cb, false)
	case data == "balance":
		b.showBalance(ctx, cb)
	case data == "back":
		b.showMainMenu(ctx, cb)
	default:
		b.log.Warn("unknown callback", "data", data, "user_id", cb.From.ID)
	}
}

// checkOwner gates every flow transition that renders UI. On failure the
// flow ends immediately for the tapping user without touching session state.
func (b *Bot) checkOwner(ctx context.Context, cb *models.CallbackQuery) bool {
	msg := cb.Message.Message
	if msg == nil {
		return false
	}
	if b.owners.IsOwner(msg.Chat.ID, msg.ID, cb.From.ID) {
		return true
	}

	b.bot.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: cb.ID,
		Text:            "This menu is not for you.",
		ShowAlert:       true,
	})
	return false
}

// --- Deposit flow ---

// showAmountScreen is the flow entry (and the target of "back" from deeper
// states). Entering discards any in-progress amount.
func (b *Bot) showAmountScreen(ctx context.Context, cb *models.CallbackQuery, fresh bool) {
	if !b.checkOwner(ctx, cb) {
		return
	}

	userID := cb.From.ID
	if fresh || b.sessions.Get(userID) == nil {
		b.sessions.Begin(userID)
	} else {
		b.sessions.Update(userID, func(s *Session) {
			s.State = StateAmountSelect
			s.AmountUSD = decimal.Zero
			s.AwaitingCustom = false
		})
	}

	if err := b.storage.EnsureUser(userID, nil); err != nil {
		b.log.Error("ensure user", "error", err, "user_id", userID)
	}

	text := fmt.Sprintf(
		"⚡ <b>OxaPay Deposit</b>\n\n"+
			"Select how much (USD) you want to deposit:\n\n"+
			"<i>Minimum deposit: $%.0f</i>",
		b.cfg.MinDepositUSD,
	)

	b.editMessage(ctx, cb.Message, text, AmountKeyboard())
}

func (b *Bot) showCustomPrompt(ctx context.Context, cb *models.CallbackQuery) {
	if !b.checkOwner(ctx, cb) {
		return
	}

	ok := b.sessions.Update(cb.From.ID, func(s *Session) {
		s.State = StateCustomAmountInput
		s.AwaitingCustom = true
	})
	if !ok {
		b.sessions.Begin(cb.From.ID)
		b.sessions.Update(cb.From.ID, func(s *Session) {
			s.State = StateCustomAmountInput
			s.AwaitingCustom = true
		})
	}

	text := fmt.Sprintf(
		"✏️ <b>Custom Deposit Amount</b>\n\n"+
			"Type the amount in USD you want to deposit.\n"+
			"Minimum: <b>$%.0f</b>\n\n"+
			"<i>Example: <code>75</code> or <code>250</code></i>",
		b.cfg.MinDepositUSD,
	)

	b.editMessage(ctx, cb.Message, text, BackToAmountsKeyboard())
}

func (b *Bot) handlePresetAmount(ctx context.Context, cb *models.CallbackQuery, amtStr string) {
	if !b.checkOwner(ctx, cb) {
		return
	}

	amount, err := decimal.NewFromString(amtStr)
	if err != nil || !amount.IsPositive() {
		b.log.Warn("invalid preset amount", "data", amtStr, "user_id", cb.From.ID)
		return
	}

	userID := cb.From.ID
	if b.sessions.Get(userID) == nil {
		b.sessions.Begin(userID)
	}
	b.sessions.Update(userID, func(s *Session) {
		s.AmountUSD = amount
		s.State = StateCurrencySelect
	})

	b.editMessage(ctx, cb.Message, b.currencyText(amount), CurrencyKeyboard(b.availableCoins()))
}

func (b *Bot) currencyText(amount decimal.Decimal) string {
	return fmt.Sprintf(
		"⚡ <b>OxaPay Deposit — $%s</b>\n\n"+
			"In which cryptocurrency would you like to pay?\n\n"+
			"<i>Your balance will be credited in the selected coin.</i>",
		amount.StringFixed(2),
	)
}

// availableCoins is the intersection of processor-supported and
// wallet-supported currencies.
func (b *Bot) availableCoins() []string {
	var coins []string
	for _, c := range b.cfg.SupportedCoins {
		if currency.Supported(c) {
			coins = append(coins, c)
		}
	}
	return coins
}

func (b *Bot) handleCurrencySelected(ctx context.Context, cb *models.CallbackQuery, coin string) {
	if !b.checkOwner(ctx, cb) {
		return
	}

	userID := cb.From.ID
	coin = strings.ToUpper(coin)

	s := b.sessions.Get(userID)
	if s == nil || s.State != StateCurrencySelect || !s.AmountUSD.IsPositive() {
		b.showAmountScreen(ctx, cb, true)
		return
	}

	supported := false
	for _, c := range b.availableCoins() {
		if c == coin {
			supported = true
			break
		}
	}
	if !supported {
		b.bot.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
			CallbackQueryID: cb.ID,
			Text:            "Unsupported currency.",
			ShowAlert:       true,
		})
		return
	}

	amountUSD := s.AmountUSD

	// Estimate how much crypto the user will send.
	price, _ := b.prices.Price(coin)
	cryptoNeeded := estimateCrypto(amountUSD, price)

	orderID := deposit.MakeOrderRef(userID)

	invoice, err := b.oxa.CreateInvoice(ctx, amountUSD, coin, orderID, "Casino Deposit")
	if err != nil {
		b.log.Error("create invoice", "error", err, "user_id", userID, "order_id", orderID)
		b.sessions.Clear(userID)
		b.editMessage(ctx, cb.Message,
			"❌ <b>Failed to create invoice.</b>\n\nPlease try again later or contact support.",
			BackToAmountsKeyboard(),
		)
		return
	}

	b.log.Info("invoice created",
		"user_id", userID,
		"order_id", orderID,
		"amount_usd", amountUSD.StringFixed(2),
		"currency", coin,
	)

	// Terminal state: the invoice is presented and the session is discarded.
	// Cancelling now would not void the invoice anyway.
	b.sessions.Update(userID, func(s *Session) {
		s.LastOrderID = orderID
		s.LastCoin = coin
	})
	b.sessions.Clear(userID)

	text := fmt.Sprintf(
		"⚡ <b>OxaPay Invoice Ready!</b>\n\n"+
			"💰 <b>Deposit Amount:</b> $%s\n"+
			"%s <b>Pay in:</b> %s\n"+
			"📊 <b>Amount to Send:</b> <code>%s %s</code>\n\n"+
			"⚠️ <b>Important:</b> On the OxaPay page, select <b>%s</b> as your payment currency.\n\n"+
			"ℹ️ OxaPay may show a slightly higher amount to cover their processing fee. This is normal.\n\n"+
			"<i>Your balance will be automatically credited after OxaPay confirms the payment.</i>",
		amountUSD.StringFixed(2),
		currency.Symbol(coin), coin,
		currency.FormatAmount(cryptoNeeded.InexactFloat64(), coin), coin,
		coin,
	)

	b.editMessage(ctx, cb.Message, text, InvoiceKeyboard(invoice.PayLink))
}

func (b *Bot) showBalance(ctx context.Context, cb *models.CallbackQuery) {
	if !b.checkOwner(ctx, cb) {
		return
	}
	b.editMessage(ctx, cb.Message, b.balanceText(cb.From.ID), MainKeyboard())
}

func (b *Bot) showMainMenu(ctx context.Context, cb *models.CallbackQuery) {
	if !b.checkOwner(ctx, cb) {
		return
	}

	b.sessions.Clear(cb.From.ID)

	text := fmt.Sprintf(
		"🎰 <b>Casino</b>\n\n"+
			"Fund your balance with crypto via OxaPay and start playing.\n\n"+
			"<i>Minimum deposit: $%.0f</i>",
		b.cfg.MinDepositUSD,
	)

	b.editMessage(ctx, cb.Message, text, MainKeyboard())
}

// --- Helpers ---

func (b *Bot) sendMessage(ctx context.Context, chatID int64, text string, keyboard *models.InlineKeyboardMarkup) *models.Message {
	params := &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	}
	if keyboard != nil {
		params.ReplyMarkup = keyboard
	}

	msg, err := b.bot.SendMessage(ctx, params)
	if err != nil {
		b.log.Error("send message", "error", err)
		return nil
	}
	return msg
}

func (b *Bot) editMessage(ctx context.Context, msg models.MaybeInaccessibleMessage, text string, keyboard *models.InlineKeyboardMarkup) {
	if msg.Message == nil {
		return
	}

	params := &bot.EditMessageTextParams{
		ChatID:    msg.Message.Chat.ID,
		MessageID: msg.Message.ID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	}
	if keyboard != nil {
		params.ReplyMarkup = keyboard
	}

	_, err := b.bot.EditMessageText(ctx, params)
	if err != nil {
		b.log.Error("edit message", "error", err)
	}
}

// SendDirectMessage delivers a DM to a user. Used by the crediting pipeline
// for post-credit notifications.
func (b *Bot) SendDirectMessage(ctx context.Context, userID int64, text string) error {
	disablePreview := true
	_, err := b.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    userID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
		LinkPreviewOptions: &models.LinkPreviewOptions{
			IsDisabled: &disablePreview,
		},
	})
	return err
}
