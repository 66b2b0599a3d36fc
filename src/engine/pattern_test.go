package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/subwatch/backend/src/models"
)

func tx(amount float64, date time.Time, desc string) models.Transaction {
	return models.Transaction{Amount: amount, Date: date, Description: desc, Currency: "EUR"}
}

var base = time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)

func TestGroupByMerchant(t *testing.T) {
	feed := []models.Transaction{
		tx(-9.99, base.AddDate(0, 0, 30), "NETFLIX.COM 4521"),
		tx(-9.99, base, "NETFLIX AUTOPAY"),
		tx(-4.50, base, "SQ *BLUE BOTTLE COFFEE"),
		tx(2500.00, base, "SALARY ACME"), // incoming, excluded
	}

	groups := GroupByMerchant(feed)
	require.Len(t, groups, 2)

	netflix := groups["NETFLIX"]
	require.NotNil(t, netflix)
	assert.Len(t, netflix.Transactions, 2)
	// Sorted ascending; display name follows the most recent transaction.
	assert.Equal(t, "NETFLIX AUTOPAY", netflix.Transactions[0].Description)
	assert.Equal(t, "NETFLIX.COM 4521", netflix.DisplayName)
}

func TestGroupByMerchantOrderIndependent(t *testing.T) {
	a := tx(-9.99, base, "NETFLIX")
	b := tx(-9.99, base.AddDate(0, 0, 30), "NETFLIX")
	c := tx(-9.99, base.AddDate(0, 0, 60), "NETFLIX")

	forward := GroupByMerchant([]models.Transaction{a, b, c})
	backward := GroupByMerchant([]models.Transaction{c, b, a})
	assert.Equal(t, forward["NETFLIX"].Transactions, backward["NETFLIX"].Transactions)
}

func TestAnalyzePatternRejectsSmallGroups(t *testing.T) {
	group := &models.MerchantGroup{
		Key:          "NETFLIX",
		Transactions: []models.Transaction{tx(-9.99, base, "NETFLIX")},
	}
	_, err := AnalyzePattern(group)
	assert.ErrorIs(t, err, ErrInsufficientTransactions)

	group.Transactions = nil
	_, err = AnalyzePattern(group)
	assert.ErrorIs(t, err, ErrInsufficientTransactions)
}

func TestAnalyzePatternRejectsUnstableAmounts(t *testing.T) {
	// 9.99 vs 14.99 deviates ~20% from the mean, well past the 10% limit.
	group := &models.MerchantGroup{
		Key: "SPOTIFY",
		Transactions: []models.Transaction{
			tx(-9.99, base, "SPOTIFY"),
			tx(-14.99, base.AddDate(0, 0, 30), "SPOTIFY"),
		},
	}
	_, err := AnalyzePattern(group)
	assert.ErrorIs(t, err, ErrAmountVarianceTooHigh)
}

func TestAnalyzePatternStats(t *testing.T) {
	group := &models.MerchantGroup{
		Key: "NETFLIX",
		Transactions: []models.Transaction{
			tx(-10.00, base, "NETFLIX"),
			tx(-10.00, base.AddDate(0, 0, 30), "NETFLIX"),
			tx(-10.00, base.AddDate(0, 0, 60), "NETFLIX"),
		},
	}

	stats, err := AnalyzePattern(group)
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 10, 10}, stats.Amounts)
	assert.InDelta(t, 10.0, stats.MeanAmount, 1e-9)
	assert.InDelta(t, 0.0, stats.AmountVariance, 1e-9)
	assert.Equal(t, []float64{30, 30}, stats.Intervals)
	assert.InDelta(t, 30.0, stats.MeanInterval, 1e-9)
	assert.InDelta(t, 0.0, stats.IntervalVariance, 1e-9)
}

func TestAnalyzePatternToleratesSmallDrift(t *testing.T) {
	// Within 10%: 9.99 and 10.49 around mean 10.24 is ~2.4% deviation.
	group := &models.MerchantGroup{
		Key: "NETFLIX",
		Transactions: []models.Transaction{
			tx(-9.99, base, "NETFLIX"),
			tx(-10.49, base.AddDate(0, 0, 29), "NETFLIX"),
			tx(-9.99, base.AddDate(0, 0, 61), "NETFLIX"),
		},
	}
	stats, err := AnalyzePattern(group)
	require.NoError(t, err)
	assert.InDelta(t, 30.5, stats.MeanInterval, 0.01)
}
