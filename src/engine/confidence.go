package engine

import (
	"math"

	"github.com/username/subwatch/backend/src/utils"
)

const (
	confidenceBase  = 50
	maxCountBonus   = 30
	varianceWeight  = 20
	perTransaction  = 10
	confidenceFloor = 0
	confidenceCeil  = 100
)

// ScoreConfidence combines the group's signals into a 0-100 confidence
// value. Base 50, plus diminishing returns on occurrence count, plus up
// to 20 each for amount and interval smoothness, plus a keyword bonus
// for merchants that look like known subscription services.
func ScoreConfidence(stats *PatternStats, normalizedKey string) int {
	score := float64(confidenceBase)

	score += float64(utils.MinInt(len(stats.Transactions)*perTransaction, maxCountBonus))

	score += (1 - stats.AmountVariance) * varianceWeight
	score += (1 - math.Min(stats.IntervalVariance, 1)) * varianceWeight

	score += float64(keywordBonus(normalizedKey))

	rounded := int(math.Round(score))
	if rounded < confidenceFloor {
		return confidenceFloor
	}
	if rounded > confidenceCeil {
		return confidenceCeil
	}
	return rounded
}
