package telegram

import (
	"fmt"

	"github.com/go-telegram/bot/models"
	"github.com/spinhall/deposit-bot/internal/currency"
)

// presetAmounts are the fixed USD choices shown on flow entry.
var presetAmounts = []int{10, 15, 20, 50, 100}

// MainKeyboard returns the main menu keyboard.
func MainKeyboard() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "⚡ Deposit", CallbackData: "deposit"},
				{Text: "💰 Balance", CallbackData: "balance"},
			},
		},
	}
}

// AmountKeyboard returns the preset amount selection keyboard, three buttons
// per row, plus custom-amount and back actions.
func AmountKeyboard() *models.InlineKeyboardMarkup {
	var rows [][]models.InlineKeyboardButton
	var row []models.InlineKeyboardButton

	for _, amt := range presetAmounts {
		row = append(row, models.InlineKeyboardButton{
			Text:         fmt.Sprintf("💲%d", amt),
			CallbackData: fmt.Sprintf("dep_amt_%d", amt),
		})
		if len(row) == 3 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	rows = append(rows, []models.InlineKeyboardButton{
		{Text: "✏️ Custom Amount", CallbackData: "dep_amt_custom"},
	})
	rows = append(rows, []models.InlineKeyboardButton{
		{Text: "🔙 Back", CallbackData: "back"},
	})

	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// CurrencyKeyboard returns the coin selection keyboard for the given coins.
func CurrencyKeyboard(coins []string) *models.InlineKeyboardMarkup {
	var rows [][]models.InlineKeyboardButton
	var row []models.InlineKeyboardButton

	for _, coin := range coins {
		row = append(row, models.InlineKeyboardButton{
			Text:         fmt.Sprintf("%s %s", currency.Symbol(coin), coin),
			CallbackData: "dep_cur_" + coin,
		})
		if len(row) == 3 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	rows = append(rows, []models.InlineKeyboardButton{
		{Text: "🔙 Back", CallbackData: "dep_back_amounts"},
	})

	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// BackToAmountsKeyboard returns a single back button to the amount screen.
func BackToAmountsKeyboard() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "🔙 Back", CallbackData: "dep_back_amounts"},
			},
		},
	}
}

// InvoiceKeyboard returns the payment link keyboard shown on the terminal
// screen of the flow.
func InvoiceKeyboard(payLink string) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "💳 Pay Now via OxaPay", URL: payLink},
			},
			{
				{Text: "🔙 New Deposit", CallbackData: "deposit"},
			},
		},
	}
}
