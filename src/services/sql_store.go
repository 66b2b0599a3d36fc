package services

import (
	"database/sql"
	"time"

	"github.com/username/subwatch/backend/src/model"
	"github.com/username/subwatch/backend/src/models"
)

// sqlStore adapts the model package to the service interfaces.
type sqlStore struct {
	db *sql.DB
}

// NewSQLStore returns a Store and ScanStore backed by the given database.
func NewSQLStore(db *sql.DB) *sqlStore {
	return &sqlStore{db: db}
}

func (s *sqlStore) GetAccountsByUser(userID int64) ([]model.BankAccount, error) {
	return model.GetAccountsByUser(s.db, userID)
}

func (s *sqlStore) UpsertSubscription(userID int64, d models.DetectedSubscription) error {
	return model.UpsertSubscription(s.db, userID, d)
}

func (s *sqlStore) GetActiveSubscriptions(userID int64) ([]model.Subscription, error) {
	return model.GetActiveSubscriptions(s.db, userID)
}

func (s *sqlStore) UpdateSubscriptionCost(subscriptionID int64, newCost float64) error {
	return model.UpdateSubscriptionCost(s.db, subscriptionID, newCost)
}

func (s *sqlStore) InsertPriceChange(pc *model.PriceChange) (bool, error) {
	return model.InsertPriceChange(s.db, pc)
}

func (s *sqlStore) InsertAnomaly(a *model.Anomaly) (bool, error) {
	return model.InsertAnomaly(s.db, a)
}

func (s *sqlStore) Enqueue(userID int64, runAt time.Time) (*model.Scan, error) {
	return model.EnqueueScan(s.db, userID, runAt)
}

func (s *sqlStore) Due(now time.Time, limit int) ([]model.Scan, error) {
	return model.GetDueScans(s.db, now, limit)
}

func (s *sqlStore) Claim(scan *model.Scan) error {
	return scan.Claim(s.db)
}

func (s *sqlStore) Complete(scan *model.Scan) error {
	return scan.MarkCompleted(s.db)
}

func (s *sqlStore) Fail(scan *model.Scan, reason string) error {
	return scan.MarkFailed(s.db, reason)
}

func (s *sqlStore) Reschedule(scan *model.Scan, runAt time.Time) error {
	return scan.Reschedule(s.db, runAt)
}

func (s *sqlStore) ByID(id string) (*model.Scan, error) {
	return model.GetScanByID(s.db, id)
}

func (s *sqlStore) AllUserIDs() ([]int64, error) {
	return model.GetAllUserIDs(s.db)
}
