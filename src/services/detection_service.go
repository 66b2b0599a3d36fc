package services

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/subwatch/backend/src/engine"
	"github.com/username/subwatch/backend/src/logger"
	"github.com/username/subwatch/backend/src/model"
	"github.com/username/subwatch/backend/src/models"
	"github.com/username/subwatch/backend/src/providers"
	"github.com/username/subwatch/backend/src/security/validation"
)

const (
	ckUserSubscriptions    = "subscriptions_user_%d"
	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute

	// detectionLookback is how much history feeds a detection run. A
	// year covers the longest supported cadence (yearly) at least once.
	detectionLookback = 365 * 24 * time.Hour
)

type detectionServiceImpl struct {
	source      providers.TransactionSource
	engine      *engine.Engine
	store       Store
	reportCache *cache.Cache
}

func NewDetectionService(source providers.TransactionSource, eng *engine.Engine, store Store, reportCache *cache.Cache) DetectionService {
	return &detectionServiceImpl{
		source:      source,
		engine:      eng,
		store:       store,
		reportCache: reportCache,
	}
}

// RunDetection fetches the user's transaction feed across all linked
// accounts, runs the engine over it and upserts the detections.
// Detection and persistence are separable: a persistence failure never
// invalidates the already-computed result, which is returned alongside
// the error.
func (s *detectionServiceImpl) RunDetection(ctx context.Context, userID int64) (*models.DetectionResult, error) {
	accounts, err := s.store.GetAccountsByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("loading accounts for user %d: %w", userID, err)
	}
	if len(accounts) == 0 {
		return nil, providers.ErrNoActiveConnection
	}

	to := time.Now()
	from := to.Add(-detectionLookback)

	var feed []models.Transaction
	for _, account := range accounts {
		txs, err := s.source.FetchTransactions(ctx, account.ProviderAccountID, from, to)
		if err != nil {
			return nil, fmt.Errorf("fetching transactions for account %s: %w", account.ProviderAccountID, err)
		}
		for i := range txs {
			txs[i].Description = validation.SanitizeDescription(txs[i].Description)
		}
		feed = append(feed, txs...)
	}

	if coverage := s.engine.CheckCoverage(feed); !coverage.Sufficient {
		return nil, &InsufficientDataError{Missing: coverage.Missing}
	}

	result := s.engine.Detect(feed)
	logger.L.Info("Detection run finished",
		"userID", userID,
		"totalProcessed", result.TotalProcessed,
		"invalid", result.InvalidCount,
		"detections", len(result.Detections))

	for _, d := range result.Detections {
		if err := s.store.UpsertSubscription(userID, d); err != nil {
			logger.L.Error("Failed to persist detection", "userID", userID, "merchant", d.NormalizedKey, "error", err)
			return result, fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
		}
	}

	s.InvalidateUserCache(userID)
	return result, nil
}

func (s *detectionServiceImpl) GetUserSubscriptions(userID int64) ([]model.Subscription, error) {
	cacheKey := fmt.Sprintf(ckUserSubscriptions, userID)
	if cached, found := s.reportCache.Get(cacheKey); found {
		return cached.([]model.Subscription), nil
	}

	subs, err := s.store.GetActiveSubscriptions(userID)
	if err != nil {
		return nil, err
	}
	s.reportCache.Set(cacheKey, subs, cache.DefaultExpiration)
	return subs, nil
}

func (s *detectionServiceImpl) InvalidateUserCache(userID int64) {
	s.reportCache.Delete(fmt.Sprintf(ckUserSubscriptions, userID))
}
