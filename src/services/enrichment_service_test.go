package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/subwatch/backend/src/engine"
	"github.com/username/subwatch/backend/src/model"
	"github.com/username/subwatch/backend/src/models"
)

func enrichmentTestConfig() EnrichmentConfig {
	return EnrichmentConfig{
		PriceChangeThreshold:     0.50,
		PriceChangeLookback:      90 * 24 * time.Hour,
		AnomalyRelativeThreshold: 0.10,
		AnomalyAbsoluteFloor:     2.0,
		AnomalyLookback:          30 * 24 * time.Hour,
	}
}

func enrichmentFixture(t *testing.T, cost float64, feed []models.Transaction) (*fakeStore, EnrichmentService, *model.Subscription) {
	t.Helper()

	store := newFakeStore()
	store.accounts[1] = []model.BankAccount{{ID: 1, UserID: 1, ProviderAccountID: "acct-1"}}
	sub := store.addSubscription(model.Subscription{
		UserID:        1,
		MerchantName:  "Spotify",
		NormalizedKey: "SPOTIFY",
		Cost:          cost,
		Currency:      "EUR",
		BillingCycle:  models.CycleMonthly,
	})

	source := &fakeSource{txs: map[string][]models.Transaction{"acct-1": feed}}
	return store, NewEnrichmentService(source, store, enrichmentTestConfig()), sub
}

func TestRunEnrichmentPriceChange(t *testing.T) {
	now := time.Now()
	feed := []models.Transaction{
		{ID: "t1", Amount: -12.50, Currency: "EUR", Date: now.Add(-40 * 24 * time.Hour), Description: "SPOTIFY"},
		{ID: "t2", Amount: -12.50, Currency: "EUR", Date: now.Add(-10 * 24 * time.Hour), Description: "SPOTIFY"},
	}
	store, svc, sub := enrichmentFixture(t, 10.00, feed)

	result, err := svc.RunEnrichment(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, result.CreatedPriceChanges)

	require.Len(t, store.priceChanges, 1)
	assert.Equal(t, 10.00, store.priceChanges[0].OldCost)
	assert.Equal(t, 12.50, store.priceChanges[0].NewCost)
	assert.Equal(t, 12.50, store.subscriptions[sub.ID].Cost)

	// A steady charge at the new price is not an anomaly.
	assert.Equal(t, 0, result.CreatedAnomalies)

	// Re-running over the same window records nothing new.
	again, err := svc.RunEnrichment(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 0, again.CreatedPriceChanges)
	assert.Len(t, store.priceChanges, 1)
	assert.Equal(t, 12.50, store.subscriptions[sub.ID].Cost)
}

func TestRunEnrichmentSingleOddChargeIsNotAPriceChange(t *testing.T) {
	now := time.Now()
	feed := []models.Transaction{
		{ID: "t1", Amount: -25.00, Currency: "EUR", Date: now.Add(-5 * 24 * time.Hour), Description: "SPOTIFY"},
	}
	store, svc, sub := enrichmentFixture(t, 9.99, feed)

	result, err := svc.RunEnrichment(context.Background(), 1)
	require.NoError(t, err)

	// One deviating charge is an anomaly, not a new price.
	assert.Equal(t, 0, result.CreatedPriceChanges)
	assert.Equal(t, 9.99, store.subscriptions[sub.ID].Cost)

	require.Equal(t, 1, result.CreatedAnomalies)
	require.Len(t, store.anomalies, 1)
	anomaly := store.anomalies[0]
	assert.Equal(t, engine.SeverityHigh, anomaly.Severity)
	assert.Equal(t, 9.99, anomaly.ExpectedAmount)
	assert.Equal(t, 25.00, anomaly.ActualAmount)
	assert.Equal(t, "Spotify", anomaly.MerchantName)
}

func TestRunEnrichmentAnomalyDeduplication(t *testing.T) {
	now := time.Now()
	feed := []models.Transaction{
		{ID: "t1", Amount: -25.00, Currency: "EUR", Date: now.Add(-5 * 24 * time.Hour), Description: "SPOTIFY"},
	}
	store, svc, _ := enrichmentFixture(t, 9.99, feed)

	first, err := svc.RunEnrichment(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, first.CreatedAnomalies)

	second, err := svc.RunEnrichment(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 0, second.CreatedAnomalies)
	assert.Len(t, store.anomalies, 1)
}

func TestRunEnrichmentIgnoresUnrelatedMerchants(t *testing.T) {
	now := time.Now()
	feed := []models.Transaction{
		{ID: "t1", Amount: -99.00, Currency: "EUR", Date: now.Add(-3 * 24 * time.Hour), Description: "HARDWARE STORE"},
		{ID: "t2", Amount: -80.00, Currency: "EUR", Date: now.Add(-2 * 24 * time.Hour), Description: "HARDWARE STORE"},
	}
	store, svc, sub := enrichmentFixture(t, 9.99, feed)

	result, err := svc.RunEnrichment(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 0, result.CreatedPriceChanges)
	assert.Equal(t, 0, result.CreatedAnomalies)
	assert.Equal(t, 9.99, store.subscriptions[sub.ID].Cost)
}

func TestRunEnrichmentNoSubscriptions(t *testing.T) {
	store := newFakeStore()
	source := &fakeSource{}
	svc := NewEnrichmentService(source, store, enrichmentTestConfig())

	result, err := svc.RunEnrichment(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 0, result.CreatedPriceChanges)
	assert.Equal(t, 0, result.CreatedAnomalies)
}
