// Package providers contains the bank data adapters. Every adapter
// maps its provider's wire format into models.Transaction; the
// detection engine is shared and providers never reimplement it.
package providers

import (
	"context"
	"errors"
	"time"

	"github.com/username/subwatch/backend/src/models"
)

// Errors a source maps provider failures onto. The scan lifecycle
// turns these into user-facing failure reasons.
var (
	ErrNoActiveConnection  = errors.New("no active bank connection")
	ErrExpiredCredentials  = errors.New("bank credentials expired")
	ErrProviderUnavailable = errors.New("bank data provider unavailable")
)

// Diagnostics is the explicit health view of a provider adapter,
// replacing ad-hoc poking at adapter internals during debugging.
type Diagnostics struct {
	Provider      string    `json:"provider"`
	BaseURL       string    `json:"base_url"`
	TokenValid    bool      `json:"token_valid"`
	TokenExpiry   time.Time `json:"token_expiry,omitempty"`
	LastRequestAt time.Time `json:"last_request_at,omitempty"`
	LastError     string    `json:"last_error,omitempty"`
}

// TransactionSource is the capability a bank data adapter must
// implement to feed the detection engine.
type TransactionSource interface {
	// FetchTransactions returns the normalized transaction feed for one
	// provider account over a date window.
	FetchTransactions(ctx context.Context, accountID string, from, to time.Time) ([]models.Transaction, error)

	// Diagnostics reports the adapter's connection health.
	Diagnostics(ctx context.Context) (*Diagnostics, error)
}
