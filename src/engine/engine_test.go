package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/subwatch/backend/src/models"
)

func newTestEngine() *Engine {
	return New(DefaultConfig())
}

func TestDetectMonthlySubscription(t *testing.T) {
	e := newTestEngine()
	feed := []models.Transaction{
		tx(-9.99, base, "SPOTIFY"),
		tx(-9.99, base.AddDate(0, 0, 30), "SPOTIFY"),
		tx(-9.99, base.AddDate(0, 0, 60), "SPOTIFY"),
	}

	result := e.Detect(feed)
	assert.Equal(t, 3, result.TotalProcessed)
	assert.Equal(t, 3, result.ValidCount)
	assert.Equal(t, 0, result.InvalidCount)
	require.Len(t, result.Detections, 1)

	d := result.Detections[0]
	assert.Equal(t, "SPOTIFY", d.NormalizedKey)
	assert.Equal(t, 9.99, d.Amount)
	assert.Equal(t, models.CycleMonthly, d.BillingCycle)
	assert.GreaterOrEqual(t, d.Confidence, 80)
	assert.Equal(t, "Music", d.Category)
	assert.Equal(t, 3, d.TransactionCount)
	assert.Equal(t, base.AddDate(0, 0, 60), d.LastTransactionDate)
	assert.Equal(t, addMonthsClamped(base.AddDate(0, 0, 60), 1), d.NextPaymentDate)
}

func TestDetectRejectsUnstableAmounts(t *testing.T) {
	e := newTestEngine()
	// 51% swing between charges: no subscription, regardless of spacing.
	feed := []models.Transaction{
		tx(-9.99, base, "SPOTIFY"),
		tx(-14.99, base.AddDate(0, 0, 30), "SPOTIFY"),
	}

	result := e.Detect(feed)
	assert.Empty(t, result.Detections)
}

func TestDetectRejectsAmbiguousIntervals(t *testing.T) {
	e := newTestEngine()
	// Stable amount but ~45 day spacing sits in no tolerance band.
	feed := []models.Transaction{
		tx(-9.99, base, "SPOTIFY"),
		tx(-9.99, base.AddDate(0, 0, 45), "SPOTIFY"),
		tx(-9.99, base.AddDate(0, 0, 90), "SPOTIFY"),
	}

	result := e.Detect(feed)
	assert.Empty(t, result.Detections)
}

func TestDetectSkipsInvalidTransactions(t *testing.T) {
	e := newTestEngine()
	feed := []models.Transaction{
		tx(-9.99, base, "SPOTIFY"),
		{Description: "MISSING AMOUNT", Date: base},  // zero amount
		{Amount: -5.00, Description: "MISSING DATE"}, // zero date
		tx(-9.99, base.AddDate(0, 0, 30), "SPOTIFY"),
		tx(-9.99, base.AddDate(0, 0, 60), "SPOTIFY"),
	}

	result := e.Detect(feed)
	assert.Equal(t, 5, result.TotalProcessed)
	assert.Equal(t, 3, result.ValidCount)
	assert.Equal(t, 2, result.InvalidCount)
	require.Len(t, result.Detections, 1)
}

func TestDetectIgnoresIncomingTransactions(t *testing.T) {
	e := newTestEngine()
	feed := []models.Transaction{
		tx(2500, base, "ACME SALARY"),
		tx(2500, base.AddDate(0, 0, 30), "ACME SALARY"),
		tx(2500, base.AddDate(0, 0, 60), "ACME SALARY"),
	}

	result := e.Detect(feed)
	assert.Empty(t, result.Detections)
	assert.Equal(t, 3, result.ValidCount)
}

// Detection is a pure function of its input: identical feeds produce
// identical result sets, independent of input order.
func TestDetectIdempotent(t *testing.T) {
	e := newTestEngine()
	feed := []models.Transaction{
		tx(-9.99, base, "SPOTIFY"),
		tx(-9.99, base.AddDate(0, 0, 30), "SPOTIFY"),
		tx(-9.99, base.AddDate(0, 0, 60), "SPOTIFY"),
		tx(-15.49, base.AddDate(0, 0, 2), "NETFLIX.COM 1234"),
		tx(-15.49, base.AddDate(0, 0, 32), "NETFLIX.COM 9876"),
		tx(-15.49, base.AddDate(0, 0, 63), "NETFLIX AUTOPAY"),
		tx(-60.00, base.AddDate(0, 0, 11), "ONE OFF HARDWARE"),
	}

	first := e.Detect(feed)

	shuffled := make([]models.Transaction, len(feed))
	copy(shuffled, feed)
	for i, j := 0, len(shuffled)-1; i < j; i, j = i+1, j-1 {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	second := e.Detect(shuffled)

	assert.Equal(t, first.Detections, second.Detections)
	require.Len(t, first.Detections, 2)
}

func TestDetectHonorsConfidenceCutoff(t *testing.T) {
	e := New(Config{MinConfidence: 101})
	feed := []models.Transaction{
		tx(-9.99, base, "SPOTIFY"),
		tx(-9.99, base.AddDate(0, 0, 30), "SPOTIFY"),
		tx(-9.99, base.AddDate(0, 0, 60), "SPOTIFY"),
	}
	assert.Empty(t, e.Detect(feed).Detections)
}

func TestCheckCoverage(t *testing.T) {
	e := newTestEngine()

	t.Run("empty feed", func(t *testing.T) {
		report := e.CheckCoverage(nil)
		assert.False(t, report.Sufficient)
		assert.Contains(t, report.Missing, "need 5 more transactions")
	})

	t.Run("concrete shortfall", func(t *testing.T) {
		report := e.CheckCoverage([]models.Transaction{tx(-9.99, base, "SPOTIFY")})
		assert.False(t, report.Sufficient)
		assert.Contains(t, report.Missing, "need 4 more transactions")
	})

	t.Run("sufficient feed", func(t *testing.T) {
		feed := []models.Transaction{
			tx(-9.99, base, "SPOTIFY"),
			tx(-9.99, base.AddDate(0, 0, 30), "SPOTIFY"),
			tx(-9.99, base.AddDate(0, 0, 60), "SPOTIFY"),
			tx(-15.49, base, "NETFLIX"),
			tx(-15.49, base.AddDate(0, 0, 61), "NETFLIX"),
		}
		report := e.CheckCoverage(feed)
		assert.True(t, report.Sufficient)
		assert.Empty(t, report.Missing)
	})
}

func TestScoreConfidence(t *testing.T) {
	perfect := &PatternStats{
		Transactions: make([]models.Transaction, 3),
	}
	// Perfect stats on a known brand saturate the score.
	assert.Equal(t, 100, ScoreConfidence(perfect, "SPOTIFY"))

	unknown := &PatternStats{
		Transactions:     make([]models.Transaction, 2),
		AmountVariance:   0.08,
		IntervalVariance: 0.4,
	}
	// 50 + 20 + 18.4 + 12 = 100.4, rounded then clamped
	assert.Equal(t, 100, ScoreConfidence(unknown, "CORNER BAKERY"))

	noisy := &PatternStats{
		Transactions:     make([]models.Transaction, 2),
		AmountVariance:   0.10,
		IntervalVariance: 1.5, // capped at 1
	}
	// 50 + 20 + 18 + 0 = 88
	assert.Equal(t, 88, ScoreConfidence(noisy, "CORNER BAKERY"))
}
