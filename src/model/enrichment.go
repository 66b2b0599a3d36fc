package model

import (
	"database/sql"
	"time"

	"github.com/username/subwatch/backend/src/engine"
)

// PriceChange is an audit entry for a detected change in a
// subscription's charged amount. At most one row exists per
// (subscription, old cost, new cost) pair.
type PriceChange struct {
	ID             int64     `json:"id"`
	SubscriptionID int64     `json:"subscription_id"`
	OldCost        float64   `json:"old_cost"`
	NewCost        float64   `json:"new_cost"`
	DetectedAt     time.Time `json:"detected_at"`
	Reason         string    `json:"reason"`
}

// InsertPriceChange records a price change unless the identical
// (old,new) pair was already recorded for the subscription. Returns
// whether a new row was created.
func InsertPriceChange(db *sql.DB, pc *PriceChange) (bool, error) {
	pc.DetectedAt = time.Now()
	res, err := db.Exec(`
		INSERT INTO price_changes (subscription_id, old_cost, new_cost, detected_at, reason)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(subscription_id, old_cost, new_cost) DO NOTHING`,
		pc.SubscriptionID, pc.OldCost, pc.NewCost, pc.DetectedAt, pc.Reason)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func GetPriceChangesByUser(db *sql.DB, userID int64) ([]PriceChange, error) {
	rows, err := db.Query(`
		SELECT pc.id, pc.subscription_id, pc.old_cost, pc.new_cost, pc.detected_at, pc.reason
		FROM price_changes pc
		JOIN subscriptions s ON s.id = pc.subscription_id
		WHERE s.user_id = ?
		ORDER BY pc.detected_at DESC, pc.id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var changes []PriceChange
	for rows.Next() {
		var pc PriceChange
		if err := rows.Scan(&pc.ID, &pc.SubscriptionID, &pc.OldCost, &pc.NewCost, &pc.DetectedAt, &pc.Reason); err != nil {
			return nil, err
		}
		changes = append(changes, pc)
	}
	return changes, rows.Err()
}

// Anomaly is an observed charge for a known subscription that deviates
// materially from the expected amount. Deduplicated by (user, merchant,
// transaction date, actual amount).
type Anomaly struct {
	ID              int64                  `json:"id"`
	SubscriptionID  int64                  `json:"subscription_id"`
	UserID          int64                  `json:"user_id"`
	MerchantName    string                 `json:"merchant_name"`
	ExpectedAmount  float64                `json:"expected_amount"`
	ActualAmount    float64                `json:"actual_amount"`
	TransactionDate time.Time              `json:"transaction_date"`
	Severity        engine.AnomalySeverity `json:"severity"`
	CreatedAt       time.Time              `json:"created_at"`
}

// InsertAnomaly records an anomaly unless one already exists for the
// same user, merchant, date and amount. Returns whether a new row was
// created.
func InsertAnomaly(db *sql.DB, a *Anomaly) (bool, error) {
	a.CreatedAt = time.Now()
	res, err := db.Exec(`
		INSERT INTO anomalies
			(subscription_id, user_id, merchant_name, expected_amount, actual_amount,
			 transaction_date, severity, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, merchant_name, transaction_date, actual_amount) DO NOTHING`,
		a.SubscriptionID, a.UserID, a.MerchantName, a.ExpectedAmount, a.ActualAmount,
		a.TransactionDate, a.Severity, a.CreatedAt)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func GetAnomaliesByUser(db *sql.DB, userID int64) ([]Anomaly, error) {
	rows, err := db.Query(`
		SELECT id, subscription_id, user_id, merchant_name, expected_amount,
		       actual_amount, transaction_date, severity, created_at
		FROM anomalies
		WHERE user_id = ?
		ORDER BY transaction_date DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var anomalies []Anomaly
	for rows.Next() {
		var a Anomaly
		if err := rows.Scan(&a.ID, &a.SubscriptionID, &a.UserID, &a.MerchantName,
			&a.ExpectedAmount, &a.ActualAmount, &a.TransactionDate, &a.Severity, &a.CreatedAt); err != nil {
			return nil, err
		}
		anomalies = append(anomalies, a)
	}
	return anomalies, rows.Err()
}
