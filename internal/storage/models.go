package storage

import "time"

// User is a casino account known to the bot.
type User struct {
	UserID           int64
	ReferrerID       *int64
	UnwageredDeposit float64 // USD value deposited but not yet wagered
	CreatedAt        time.Time
}

// Balance is one coin balance inside a user's wallet.
type Balance struct {
	UserID   int64
	Currency string
	Amount   float64
}

// Commission is the accumulated referral commission a user earned in one coin.
type Commission struct {
	UserID   int64
	Currency string
	Amount   float64
}

// ProcessedOrder records a payment dedup key that has already been credited.
type ProcessedOrder struct {
	DedupKey   string
	CreditedAt time.Time
}
