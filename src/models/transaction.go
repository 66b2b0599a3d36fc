package models

import "time"

// Transaction is the unified representation of a bank transaction as
// delivered by a provider adapter. Every provider is responsible for
// mapping its own wire format into this shape; the detection engine
// never sees provider-specific records.
type Transaction struct {
	ID               string    `json:"id,omitempty"` // provider transaction id, may be empty
	Amount           float64   `json:"amount"`       // signed; negative = outgoing
	Currency         string    `json:"currency"`
	Date             time.Time `json:"date"`
	Description      string    `json:"description"`
	CounterpartyName string    `json:"counterparty_name,omitempty"`
}

// Valid reports whether the transaction carries the mandatory fields.
// A transaction without an amount or date cannot be analyzed and is
// skipped by the engine rather than aborting a run.
func (t Transaction) Valid() bool {
	return t.Amount != 0 && !t.Date.IsZero()
}

// Outgoing reports whether the transaction is a payment leaving the
// account. Only outgoing transactions feed subscription detection.
func (t Transaction) Outgoing() bool {
	return t.Amount < 0
}

// MerchantGroup is the per-merchant partition of a transaction set,
// keyed by the normalized merchant string. Rebuilt on every detection
// run, never persisted.
type MerchantGroup struct {
	Key          string
	DisplayName  string // most recent raw description seen for this key
	Transactions []Transaction
}
