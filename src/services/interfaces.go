package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/username/subwatch/backend/src/model"
	"github.com/username/subwatch/backend/src/models"
)

// Define common service errors
var (
	ErrNoAccounts        = errors.New("user has no linked bank accounts")
	ErrPersistenceFailed = errors.New("failed to persist detection results")
)

// InsufficientDataError carries the concrete unmet requirements of a
// detection run, so callers can schedule a retry instead of showing a
// generic error or an empty result.
type InsufficientDataError struct {
	Missing []string
}

func (e *InsufficientDataError) Error() string {
	return "insufficient data for detection: " + strings.Join(e.Missing, ", ")
}

// Store is the persistence capability the services need. The concrete
// implementation wraps the model package; tests substitute fakes.
type Store interface {
	GetAccountsByUser(userID int64) ([]model.BankAccount, error)
	UpsertSubscription(userID int64, d models.DetectedSubscription) error
	GetActiveSubscriptions(userID int64) ([]model.Subscription, error)
	UpdateSubscriptionCost(subscriptionID int64, newCost float64) error
	InsertPriceChange(pc *model.PriceChange) (bool, error)
	InsertAnomaly(a *model.Anomaly) (bool, error)
}

// ScanStore is the persistence capability of the scan scheduler.
type ScanStore interface {
	Enqueue(userID int64, runAt time.Time) (*model.Scan, error)
	Due(now time.Time, limit int) ([]model.Scan, error)
	Claim(s *model.Scan) error
	Complete(s *model.Scan) error
	Fail(s *model.Scan, reason string) error
	Reschedule(s *model.Scan, runAt time.Time) error
	ByID(id string) (*model.Scan, error)
	AllUserIDs() ([]int64, error)
}

// DetectionService runs the engine over a user's transaction feed and
// persists the outcome.
type DetectionService interface {
	RunDetection(ctx context.Context, userID int64) (*models.DetectionResult, error)
	GetUserSubscriptions(userID int64) ([]model.Subscription, error)
	InvalidateUserCache(userID int64)
}

// EnrichmentService compares persisted subscriptions against fresh
// transactions to flag price changes and anomalous charges.
type EnrichmentService interface {
	RunEnrichment(ctx context.Context, userID int64) (*models.EnrichmentResult, error)
}
