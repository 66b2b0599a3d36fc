package model

import (
	"database/sql"
	"errors"
	"time"

	"github.com/username/subwatch/backend/src/models"
)

var ErrSubscriptionNotFound = errors.New("subscription not found")

// Subscription is the persisted form of a detected subscription for one
// user and merchant. Detection runs upsert against (user_id,
// normalized_key), so re-running detection on the same window never
// produces duplicates.
type Subscription struct {
	ID                  int64               `json:"id"`
	UserID              int64               `json:"user_id"`
	MerchantName        string              `json:"merchant_name"`
	NormalizedKey       string              `json:"normalized_key"`
	Cost                float64             `json:"cost"`
	Currency            string              `json:"currency"`
	BillingCycle        models.BillingCycle `json:"billing_cycle"`
	Confidence          int                 `json:"confidence"`
	Category            string              `json:"category"`
	TransactionCount    int                 `json:"transaction_count"`
	LastTransactionDate time.Time           `json:"last_transaction_date"`
	NextPaymentDate     time.Time           `json:"next_payment_date"`
	Active              bool                `json:"active"`
	CreatedAt           time.Time           `json:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at"`
}

// UpsertSubscription inserts a fresh detection or refreshes the
// existing row for the same user and merchant key.
func UpsertSubscription(db *sql.DB, userID int64, d models.DetectedSubscription) error {
	now := time.Now()
	_, err := db.Exec(`
		INSERT INTO subscriptions
			(user_id, merchant_name, normalized_key, cost, currency, billing_cycle,
			 confidence, category, transaction_count, last_transaction_date,
			 next_payment_date, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)
		ON CONFLICT(user_id, normalized_key) DO UPDATE SET
			merchant_name = excluded.merchant_name,
			cost = excluded.cost,
			currency = excluded.currency,
			billing_cycle = excluded.billing_cycle,
			confidence = excluded.confidence,
			category = excluded.category,
			transaction_count = excluded.transaction_count,
			last_transaction_date = excluded.last_transaction_date,
			next_payment_date = excluded.next_payment_date,
			active = 1,
			updated_at = excluded.updated_at`,
		userID, d.MerchantName, d.NormalizedKey, d.Amount, d.Currency, d.BillingCycle,
		d.Confidence, d.Category, d.TransactionCount, d.LastTransactionDate,
		d.NextPaymentDate, now, now)
	return err
}

func GetActiveSubscriptions(db *sql.DB, userID int64) ([]Subscription, error) {
	rows, err := db.Query(`
		SELECT id, user_id, merchant_name, normalized_key, cost, currency,
		       billing_cycle, confidence, category, transaction_count,
		       last_transaction_date, next_payment_date, active, created_at, updated_at
		FROM subscriptions
		WHERE user_id = ? AND active = 1
		ORDER BY confidence DESC, normalized_key`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []Subscription
	for rows.Next() {
		var s Subscription
		if err := rows.Scan(
			&s.ID, &s.UserID, &s.MerchantName, &s.NormalizedKey, &s.Cost, &s.Currency,
			&s.BillingCycle, &s.Confidence, &s.Category, &s.TransactionCount,
			&s.LastTransactionDate, &s.NextPaymentDate, &s.Active, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

// UpdateSubscriptionCost stores a new observed cost, typically after a
// price change was recorded.
func UpdateSubscriptionCost(db *sql.DB, subscriptionID int64, newCost float64) error {
	res, err := db.Exec(`
		UPDATE subscriptions SET cost = ?, updated_at = ? WHERE id = ?`,
		newCost, time.Now(), subscriptionID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}
