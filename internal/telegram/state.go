package telegram

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Deposit flow states
const (
	StateAmountSelect      = "amount_select"
	StateCustomAmountInput = "custom_amount_input"
	StateCurrencySelect    = "currency_select"
)

// sessionIdleTimeout discards a deposit session after this much inactivity.
// An invoice already created stays payable; only the UI session is dropped.
const sessionIdleTimeout = 10 * time.Minute

// Session is the ephemeral per-user deposit conversation state.
type Session struct {
	State          string
	AmountUSD      decimal.Decimal
	AwaitingCustom bool
	LastOrderID    string
	LastCoin       string

	touchedAt time.Time
}

// SessionManager tracks active deposit sessions keyed by user id.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[int64]*Session
}

// NewSessionManager creates a session manager.
func NewSessionManager() *SessionManager {
	return &SessionManager{
		sessions: make(map[int64]*Session),
	}
}

// Begin starts a fresh session in the amount-selection state, replacing any
// previous one.
func (sm *SessionManager) Begin(userID int64) *Session {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	s := &Session{
		State:     StateAmountSelect,
		touchedAt: time.Now(),
	}
	sm.sessions[userID] = s
	return s
}

// Get returns the user's session, or nil when there is none or it idled out.
func (sm *SessionManager) Get(userID int64) *Session {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	s, ok := sm.sessions[userID]
	if !ok {
		return nil
	}
	if time.Since(s.touchedAt) > sessionIdleTimeout {
		delete(sm.sessions, userID)
		return nil
	}
	return s
}

// Update mutates the user's session under the lock and refreshes its idle
// deadline. Returns false when no live session exists.
func (sm *SessionManager) Update(userID int64, fn func(*Session)) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	s, ok := sm.sessions[userID]
	if !ok {
		return false
	}
	if time.Since(s.touchedAt) > sessionIdleTimeout {
		delete(sm.sessions, userID)
		return false
	}

	fn(s)
	s.touchedAt = time.Now()
	return true
}

// Clear discards the user's session.
func (sm *SessionManager) Clear(userID int64) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.sessions, userID)
}

// CleanupLoop evicts idle sessions periodically until the context is
// cancelled.
func (sm *SessionManager) CleanupLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sm.evictIdle()
		}
	}
}

func (sm *SessionManager) evictIdle() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	for userID, s := range sm.sessions {
		if time.Since(s.touchedAt) > sessionIdleTimeout {
			delete(sm.sessions, userID)
		}
	}
}
