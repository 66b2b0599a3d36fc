package engine

import (
	"errors"
	"math"

	"github.com/username/subwatch/backend/src/models"
)

// maxAmountVariance is the mean-relative amount deviation above which a
// group no longer looks like a fixed-price subscription.
const maxAmountVariance = 0.10

var (
	ErrInsufficientTransactions = errors.New("insufficient transactions in group")
	ErrAmountVarianceTooHigh    = errors.New("amount variance too high")
)

// PatternStats holds the amount and interval statistics of one merchant
// group that passed the recurrence checks.
type PatternStats struct {
	Amounts          []float64 // absolute values, date order
	MeanAmount       float64
	AmountVariance   float64 // mean-relative deviation of amounts
	Intervals        []float64 // day gaps between consecutive transactions
	MeanInterval     float64
	IntervalVariance float64 // mean-relative deviation of intervals
	Transactions     []models.Transaction
}

// AnalyzePattern computes amount and interval statistics for a merchant
// group and rejects groups that cannot be recurring: fewer than two
// transactions, or amounts that drift more than maxAmountVariance from
// their mean. Transactions in the group are assumed date-sorted, which
// GroupByMerchant guarantees.
func AnalyzePattern(group *models.MerchantGroup) (*PatternStats, error) {
	txs := group.Transactions
	if len(txs) < 2 {
		return nil, ErrInsufficientTransactions
	}

	amounts := make([]float64, len(txs))
	for i, tx := range txs {
		amounts[i] = math.Abs(tx.Amount)
	}
	meanAmount := mean(amounts)
	amountVariance := relativeDeviation(amounts, meanAmount)
	if amountVariance > maxAmountVariance {
		return nil, ErrAmountVarianceTooHigh
	}

	intervals := make([]float64, 0, len(txs)-1)
	for i := 1; i < len(txs); i++ {
		days := txs[i].Date.Sub(txs[i-1].Date).Hours() / 24
		intervals = append(intervals, days)
	}
	meanInterval := mean(intervals)

	return &PatternStats{
		Amounts:          amounts,
		MeanAmount:       meanAmount,
		AmountVariance:   amountVariance,
		Intervals:        intervals,
		MeanInterval:     meanInterval,
		IntervalVariance: relativeDeviation(intervals, meanInterval),
		Transactions:     txs,
	}, nil
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// relativeDeviation is the average of |v - mean| / mean over all
// values. Zero mean yields zero deviation rather than a division blowup.
func relativeDeviation(values []float64, m float64) float64 {
	if len(values) == 0 || m == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += math.Abs(v-m) / m
	}
	return sum / float64(len(values))
}
