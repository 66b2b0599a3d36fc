package engine

import (
	"math"

	"github.com/username/subwatch/backend/src/models"
)

// AnomalySeverity grades how far an observed charge strays from the
// expected subscription amount.
type AnomalySeverity string

const (
	SeverityLow    AnomalySeverity = "low"
	SeverityMedium AnomalySeverity = "medium"
	SeverityHigh   AnomalySeverity = "high"
)

// PriceChanged reports whether the difference between a subscription's
// stored cost and the latest observed charge crosses the absolute
// currency-unit threshold.
func PriceChanged(storedCost, latestAmount, threshold float64) bool {
	return math.Abs(storedCost-math.Abs(latestAmount)) > threshold
}

// EvaluateAnomaly checks one observed charge against the expected
// subscription amount. The flagging threshold is the larger of
// expected*relThreshold and an absolute floor, so trivial rounding on
// cheap subscriptions is not flagged. The returned severity is only
// meaningful when flagged is true.
func EvaluateAnomaly(expected, actual, relThreshold, floor float64) (severity AnomalySeverity, difference float64, flagged bool) {
	actualAbs := math.Abs(actual)
	difference = math.Abs(actualAbs - expected)

	limit := math.Max(expected*relThreshold, floor)
	if difference <= limit {
		return "", difference, false
	}

	switch {
	case difference > expected*0.50:
		severity = SeverityHigh
	case difference > expected*0.20:
		severity = SeverityMedium
	default:
		severity = SeverityLow
	}
	return severity, difference, true
}

// MatchesSubscription reports whether a transaction belongs to the
// merchant of a persisted subscription, by comparing normalized keys.
func MatchesSubscription(tx models.Transaction, normalizedKey string) bool {
	return tx.Outgoing() && NormalizeMerchant(tx.Description) == normalizedKey
}
