package storage

import (
	"database/sql"
	"errors"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

var (
	ErrNotFound = errors.New("not found")
)

// Storage handles all database operations: user wallets, referral
// commissions, and the durable processed-order set the duplicate guard
// relies on. A process restart must not forget a credited payment.
type Storage struct {
	db *sql.DB
}

// New creates a Storage instance and initializes the database.
func New(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	s := &Storage{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection.
func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) init() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
			user_id INTEGER PRIMARY KEY,
			referrer_id INTEGER,
			unwagered_deposit REAL NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS balances (
			user_id INTEGER NOT NULL,
			currency TEXT NOT NULL,
			amount REAL NOT NULL DEFAULT 0,
			PRIMARY KEY (user_id, currency)
		)`,

		`CREATE TABLE IF NOT EXISTS referral_commissions (
			user_id INTEGER NOT NULL,
			currency TEXT NOT NULL,
			amount REAL NOT NULL DEFAULT 0,
			PRIMARY KEY (user_id, currency)
		)`,

		`CREATE TABLE IF NOT EXISTS processed_orders (
			dedup_key TEXT PRIMARY KEY,
			credited_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_processed_orders_credited_at ON processed_orders(credited_at)`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}

	return nil
}

// --- Users ---

// EnsureUser creates a user record if it does not exist yet. The referrer is
// only recorded on first creation.
func (s *Storage) EnsureUser(userID int64, referrerID *int64) error {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO users (user_id, referrer_id, created_at) VALUES (?, ?, ?)`,
		userID, referrerID, time.Now().Unix(),
	)
	return err
}

// UserExists reports whether a wallet record exists for the user. Payments
// for unknown users are skipped, not credited.
func (s *Storage) UserExists(userID int64) (bool, error) {
	var one int
	err := s.db.QueryRow("SELECT 1 FROM users WHERE user_id = ?", userID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetUser returns a user record.
func (s *Storage) GetUser(userID int64) (*User, error) {
	var u User
	var referrer sql.NullInt64
	var createdAt int64

	err := s.db.QueryRow(
		`SELECT user_id, referrer_id, unwagered_deposit, created_at FROM users WHERE user_id = ?`,
		userID,
	).Scan(&u.UserID, &referrer, &u.UnwageredDeposit, &createdAt)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	u.CreatedAt = time.Unix(createdAt, 0)
	if referrer.Valid {
		u.ReferrerID = &referrer.Int64
	}

	return &u, nil
}

// Referrer returns the id of the user who referred userID, if any.
func (s *Storage) Referrer(userID int64) (int64, bool, error) {
	var referrer sql.NullInt64
	err := s.db.QueryRow(
		"SELECT referrer_id FROM users WHERE user_id = ?", userID,
	).Scan(&referrer)

	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	if !referrer.Valid {
		return 0, false, nil
	}

	// Commission only accrues to referrers that still have an account.
	exists, err := s.UserExists(referrer.Int64)
	if err != nil || !exists {
		return 0, false, err
	}

	return referrer.Int64, true, nil
}

// --- Balances ---

// CreditWallet adds the exact paid crypto amount to the user's balance in
// the given coin. No rounding or fee deduction.
func (s *Storage) CreditWallet(userID int64, amount float64, currency string) error {
	_, err := s.db.Exec(
		`INSERT INTO balances (user_id, currency, amount) VALUES (?, ?, ?)
		 ON CONFLICT(user_id, currency) DO UPDATE SET amount = amount + excluded.amount`,
		userID, currency, amount,
	)
	return err
}

// Balance returns the user's balance in one coin.
func (s *Storage) Balance(userID int64, currency string) (float64, error) {
	var amount float64
	err := s.db.QueryRow(
		"SELECT amount FROM balances WHERE user_id = ? AND currency = ?",
		userID, currency,
	).Scan(&amount)

	if err == sql.ErrNoRows {
		return 0, nil
	}
	return amount, err
}

// Balances returns all non-zero balances for a user.
func (s *Storage) Balances(userID int64) ([]Balance, error) {
	rows, err := s.db.Query(
		"SELECT user_id, currency, amount FROM balances WHERE user_id = ? AND amount != 0 ORDER BY currency",
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var balances []Balance
	for rows.Next() {
		var b Balance
		if err := rows.Scan(&b.UserID, &b.Currency, &b.Amount); err != nil {
			return nil, err
		}
		balances = append(balances, b)
	}

	return balances, rows.Err()
}

// AddUnwageredDeposit increases the USD figure tracking deposited value not
// yet wagered.
func (s *Storage) AddUnwageredDeposit(userID int64, usd float64) error {
	res, err := s.db.Exec(
		"UPDATE users SET unwagered_deposit = unwagered_deposit + ? WHERE user_id = ?",
		usd, userID,
	)
	if err != nil {
		return err
	}

	rows, _ := res.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Referral commissions ---

// AddReferralCommission accrues commission to a referrer, keyed by coin.
func (s *Storage) AddReferralCommission(referrerID int64, currency string, amount float64) error {
	_, err := s.db.Exec(
		`INSERT INTO referral_commissions (user_id, currency, amount) VALUES (?, ?, ?)
		 ON CONFLICT(user_id, currency) DO UPDATE SET amount = amount + excluded.amount`,
		referrerID, currency, amount,
	)
	return err
}

// Commission returns the accumulated commission for a referrer in one coin.
func (s *Storage) Commission(userID int64, currency string) (float64, error) {
	var amount float64
	err := s.db.QueryRow(
		"SELECT amount FROM referral_commissions WHERE user_id = ? AND currency = ?",
		userID, currency,
	).Scan(&amount)

	if err == sql.ErrNoRows {
		return 0, nil
	}
	return amount, err
}

// --- Processed orders (duplicate guard) ---

// ShouldProcess atomically records a dedup key, returning true only for the
// first caller. Concurrent deliveries of the same payment race on the
// primary key insert; exactly one wins.
func (s *Storage) ShouldProcess(dedupKey string) (bool, error) {
	res, err := s.db.Exec(
		"INSERT OR IGNORE INTO processed_orders (dedup_key, credited_at) VALUES (?, ?)",
		dedupKey, time.Now().Unix(),
	)
	if err != nil {
		return false, err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows > 0, nil
}

// ForgetOrder removes a dedup key so the payment can be processed again.
// Used when crediting failed after the key was claimed.
func (s *Storage) ForgetOrder(dedupKey string) error {
	_, err := s.db.Exec("DELETE FROM processed_orders WHERE dedup_key = ?", dedupKey)
	return err
}

// PurgeProcessedOrders deletes dedup keys older than the retention window,
// bounding the set's growth. Returns the number of keys removed.
func (s *Storage) PurgeProcessedOrders(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan).Unix()
	res, err := s.db.Exec("DELETE FROM processed_orders WHERE credited_at < ?", cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
