package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/username/subwatch/backend/src/engine"
	"github.com/username/subwatch/backend/src/logger"
	"github.com/username/subwatch/backend/src/model"
	"github.com/username/subwatch/backend/src/models"
	"github.com/username/subwatch/backend/src/providers"
	"github.com/username/subwatch/backend/src/utils"
)

// priceChangeSampleSize caps how many recent matching transactions the
// price change check looks at per subscription.
const priceChangeSampleSize = 5

// EnrichmentConfig carries the thresholds of the enrichment pass.
type EnrichmentConfig struct {
	PriceChangeThreshold     float64 // absolute currency units
	PriceChangeLookback      time.Duration
	AnomalyRelativeThreshold float64
	AnomalyAbsoluteFloor     float64
	AnomalyLookback          time.Duration
}

type enrichmentServiceImpl struct {
	source providers.TransactionSource
	store  Store
	cfg    EnrichmentConfig
}

func NewEnrichmentService(source providers.TransactionSource, store Store, cfg EnrichmentConfig) EnrichmentService {
	return &enrichmentServiceImpl{source: source, store: store, cfg: cfg}
}

// RunEnrichment compares each of the user's persisted subscriptions
// against freshly observed transactions. Both checks are idempotent:
// price changes dedupe on the (old,new) pair, anomalies on
// (user, merchant, date, amount), so re-running over the same window
// creates nothing new.
func (s *enrichmentServiceImpl) RunEnrichment(ctx context.Context, userID int64) (*models.EnrichmentResult, error) {
	result := &models.EnrichmentResult{}

	subs, err := s.store.GetActiveSubscriptions(userID)
	if err != nil {
		return nil, fmt.Errorf("loading subscriptions for user %d: %w", userID, err)
	}
	if len(subs) == 0 {
		return result, nil
	}

	accounts, err := s.store.GetAccountsByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("loading accounts for user %d: %w", userID, err)
	}

	now := time.Now()
	lookback := s.cfg.PriceChangeLookback
	if s.cfg.AnomalyLookback > lookback {
		lookback = s.cfg.AnomalyLookback
	}

	var feed []models.Transaction
	for _, account := range accounts {
		txs, err := s.source.FetchTransactions(ctx, account.ProviderAccountID, now.Add(-lookback), now)
		if err != nil {
			return nil, fmt.Errorf("fetching transactions for account %s: %w", account.ProviderAccountID, err)
		}
		feed = append(feed, txs...)
	}

	for i := range subs {
		sub := &subs[i]
		matching := matchingTransactions(feed, sub.NormalizedKey)

		expected := sub.Cost
		if newCost, changed := s.checkPriceChange(sub, matching, now); changed {
			result.CreatedPriceChanges++
			expected = newCost
		}

		result.CreatedAnomalies += s.checkAnomalies(sub, expected, matching, now)
	}

	logger.L.Info("Enrichment pass finished",
		"userID", userID,
		"priceChanges", result.CreatedPriceChanges,
		"anomalies", result.CreatedAnomalies)
	return result, nil
}

// checkPriceChange compares the subscription's stored cost against the
// most recent matching charge. Requires at least two recent matches so
// a single odd charge is treated as an anomaly rather than a new
// price. Returns the new cost and whether a change was recorded.
func (s *enrichmentServiceImpl) checkPriceChange(sub *model.Subscription, matching []models.Transaction, now time.Time) (float64, bool) {
	cutoff := now.Add(-s.cfg.PriceChangeLookback)
	var recent []models.Transaction
	for _, tx := range matching {
		if !tx.Date.Before(cutoff) {
			recent = append(recent, tx)
		}
	}
	if len(recent) > priceChangeSampleSize {
		recent = recent[len(recent)-priceChangeSampleSize:]
	}
	if len(recent) < 2 {
		return sub.Cost, false
	}

	latest := utils.RoundFloat(math.Abs(recent[len(recent)-1].Amount), 2)
	if !engine.PriceChanged(sub.Cost, latest, s.cfg.PriceChangeThreshold) {
		return sub.Cost, false
	}

	created, err := s.store.InsertPriceChange(&model.PriceChange{
		SubscriptionID: sub.ID,
		OldCost:        sub.Cost,
		NewCost:        latest,
		Reason:         fmt.Sprintf("charge moved from %.2f to %.2f", sub.Cost, latest),
	})
	if err != nil {
		logger.L.Error("Failed to record price change", "subscriptionID", sub.ID, "error", err)
		return sub.Cost, false
	}
	if !created {
		// Same (old,new) pair already on record.
		return sub.Cost, false
	}

	if err := s.store.UpdateSubscriptionCost(sub.ID, latest); err != nil {
		logger.L.Error("Failed to update subscription cost", "subscriptionID", sub.ID, "error", err)
	}
	sub.Cost = latest
	return latest, true
}

// checkAnomalies flags recent charges that stray from the expected
// amount beyond the relative threshold, with an absolute floor so
// cheap subscriptions don't alert on rounding noise.
func (s *enrichmentServiceImpl) checkAnomalies(sub *model.Subscription, expected float64, matching []models.Transaction, now time.Time) int {
	cutoff := now.Add(-s.cfg.AnomalyLookback)
	created := 0

	for _, tx := range matching {
		if tx.Date.Before(cutoff) {
			continue
		}
		severity, _, flagged := engine.EvaluateAnomaly(expected, tx.Amount, s.cfg.AnomalyRelativeThreshold, s.cfg.AnomalyAbsoluteFloor)
		if !flagged {
			continue
		}

		inserted, err := s.store.InsertAnomaly(&model.Anomaly{
			SubscriptionID:  sub.ID,
			UserID:          sub.UserID,
			MerchantName:    sub.MerchantName,
			ExpectedAmount:  expected,
			ActualAmount:    utils.RoundFloat(math.Abs(tx.Amount), 2),
			TransactionDate: tx.Date,
			Severity:        severity,
		})
		if err != nil {
			logger.L.Error("Failed to record anomaly", "subscriptionID", sub.ID, "error", err)
			continue
		}
		if inserted {
			created++
		}
	}
	return created
}

// matchingTransactions returns the outgoing transactions belonging to
// a subscription's merchant, in date order.
func matchingTransactions(feed []models.Transaction, normalizedKey string) []models.Transaction {
	var matching []models.Transaction
	for _, tx := range feed {
		if tx.Valid() && engine.MatchesSubscription(tx, normalizedKey) {
			matching = append(matching, tx)
		}
	}
	// The feed is merged across accounts, so re-sort by date.
	sort.SliceStable(matching, func(i, j int) bool {
		return matching[i].Date.Before(matching[j].Date)
	})
	return matching
}
