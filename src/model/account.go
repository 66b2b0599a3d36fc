package model

import (
	"database/sql"
	"time"
)

// BankAccount links a user to one account at the bank data provider.
// The consent/OAuth handshake that produced ProviderAccountID happens
// outside this service; we only store the resulting reference.
type BankAccount struct {
	ID                int64     `json:"id"`
	UserID            int64     `json:"user_id"`
	ProviderAccountID string    `json:"provider_account_id"`
	Institution       string    `json:"institution"`
	Currency          string    `json:"currency"`
	CreatedAt         time.Time `json:"created_at"`
}

func (a *BankAccount) Create(db *sql.DB) error {
	a.CreatedAt = time.Now()
	res, err := db.Exec(`
		INSERT INTO bank_accounts (user_id, provider_account_id, institution, currency, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		a.UserID, a.ProviderAccountID, a.Institution, a.Currency, a.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = id
	return nil
}

func GetAccountsByUser(db *sql.DB, userID int64) ([]BankAccount, error) {
	rows, err := db.Query(`
		SELECT id, user_id, provider_account_id, institution, currency, created_at
		FROM bank_accounts WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []BankAccount
	for rows.Next() {
		var a BankAccount
		if err := rows.Scan(&a.ID, &a.UserID, &a.ProviderAccountID, &a.Institution, &a.Currency, &a.CreatedAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}
