// Package currency holds display metadata for the coins the wallet supports.
package currency

import (
	"strconv"
	"strings"
)

// symbols maps coin codes to the emoji shown next to amounts in chat.
var symbols = map[string]string{
	"BTC":  "₿",
	"ETH":  "Ξ",
	"USDT": "₮",
	"LTC":  "Ł",
	"TRX":  "🔺",
	"BNB":  "🔶",
	"SOL":  "◎",
}

// Symbol returns the display symbol for a coin, or "" if unknown.
func Symbol(coin string) string {
	return symbols[strings.ToUpper(coin)]
}

// Supported reports whether the wallet knows the coin.
func Supported(coin string) bool {
	_, ok := symbols[strings.ToUpper(coin)]
	return ok
}

// List returns all wallet-supported coin codes.
func List() []string {
	return []string{"BTC", "ETH", "USDT", "LTC", "TRX", "BNB", "SOL"}
}

// FormatAmount renders a crypto amount with up to 8 decimals, trailing
// zeros trimmed. Stablecoins get 2 decimals.
func FormatAmount(amount float64, coin string) string {
	decimals := 8
	if strings.ToUpper(coin) == "USDT" {
		decimals = 2
	}

	s := strconv.FormatFloat(amount, 'f', decimals, 64)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	if s == "" || s == "-" {
		s = "0"
	}
	return s
}
