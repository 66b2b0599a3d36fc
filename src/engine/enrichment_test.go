package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPriceChanged(t *testing.T) {
	assert.True(t, PriceChanged(10.00, -12.50, 0.50))
	assert.True(t, PriceChanged(10.00, 12.50, 0.50)) // sign of the observed amount is irrelevant
	assert.False(t, PriceChanged(10.00, -10.00, 0.50))
	assert.False(t, PriceChanged(10.00, -10.50, 0.50)) // exactly at threshold is not a change
	assert.True(t, PriceChanged(10.00, -10.51, 0.50))
}

func TestEvaluateAnomaly(t *testing.T) {
	t.Run("large deviation is high severity", func(t *testing.T) {
		severity, diff, flagged := EvaluateAnomaly(9.99, -25.00, 0.10, 2.0)
		assert.True(t, flagged)
		assert.Equal(t, SeverityHigh, severity)
		assert.InDelta(t, 15.01, diff, 1e-9)
	})

	t.Run("medium severity between 20 and 50 percent", func(t *testing.T) {
		severity, _, flagged := EvaluateAnomaly(100, -125, 0.10, 2.0)
		assert.True(t, flagged)
		assert.Equal(t, SeverityMedium, severity)
	})

	t.Run("low severity just past threshold", func(t *testing.T) {
		severity, _, flagged := EvaluateAnomaly(100, -112, 0.10, 2.0)
		assert.True(t, flagged)
		assert.Equal(t, SeverityLow, severity)
	})

	t.Run("absolute floor protects cheap subscriptions", func(t *testing.T) {
		// 2.00 floor beats 10% of 9.99, so a 1.01 wobble is not flagged.
		_, _, flagged := EvaluateAnomaly(9.99, -11.00, 0.10, 2.0)
		assert.False(t, flagged)
	})

	t.Run("exact match is never flagged", func(t *testing.T) {
		_, _, flagged := EvaluateAnomaly(12.50, -12.50, 0.10, 2.0)
		assert.False(t, flagged)
	})
}

func TestMatchesSubscription(t *testing.T) {
	assert.True(t, MatchesSubscription(tx(-9.99, base, "NETFLIX.COM 4521"), "NETFLIX"))
	assert.False(t, MatchesSubscription(tx(-9.99, base, "SPOTIFY"), "NETFLIX"))
	assert.False(t, MatchesSubscription(tx(9.99, base, "NETFLIX REFUND"), "NETFLIX"))
}
