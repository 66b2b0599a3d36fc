// Package engine implements the recurring payment detection core: it
// turns a flat transaction feed into a list of detected subscriptions
// with amount, billing cadence, confidence, category and a predicted
// next charge. The engine is pure computation with no I/O and no
// shared state, so one instance can serve any number of concurrent
// detection runs.
package engine

import (
	"fmt"
	"sort"

	"github.com/username/subwatch/backend/src/models"
	"github.com/username/subwatch/backend/src/utils"
)

// Config holds the engine tunables. MinConfidence is the cutoff below
// which a detection is dropped from the result set; it is a tunable,
// not a contract.
type Config struct {
	MinConfidence     int
	MinTransactions   int // coverage: total valid transactions needed
	MinHistoryDays    int // coverage: date span needed
	MinDistinctGroups int // coverage: distinct merchants needed
}

// DefaultConfig returns the tunables the service ships with.
func DefaultConfig() Config {
	return Config{
		MinConfidence:     70,
		MinTransactions:   5,
		MinHistoryDays:    60,
		MinDistinctGroups: 2,
	}
}

// Engine runs detection over a transaction feed. All providers share
// one engine; they differ only in how they map their wire formats into
// models.Transaction.
type Engine struct {
	cfg Config
}

func New(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Detect runs the full pipeline: validate, group by merchant, analyze
// each group, classify its cadence, score it and keep everything at or
// above the confidence cutoff. Invalid transactions are counted and
// skipped, never fatal. Detect is a pure function of its input: the
// same feed always yields the same result set.
func (e *Engine) Detect(transactions []models.Transaction) *models.DetectionResult {
	result := &models.DetectionResult{
		TotalProcessed: len(transactions),
		Detections:     []models.DetectedSubscription{},
	}

	valid := make([]models.Transaction, 0, len(transactions))
	for _, tx := range transactions {
		if !tx.Valid() {
			result.InvalidCount++
			continue
		}
		valid = append(valid, tx)
	}
	result.ValidCount = len(valid)

	groups := GroupByMerchant(valid)
	for key, group := range groups {
		stats, err := AnalyzePattern(group)
		if err != nil {
			// Ambiguous or thin group: not an error, just no subscription here.
			continue
		}

		cycle, ok := ClassifyCycle(stats.MeanInterval)
		if !ok {
			continue
		}

		confidence := ScoreConfidence(stats, key)
		if confidence < e.cfg.MinConfidence {
			continue
		}

		last := stats.Transactions[len(stats.Transactions)-1]
		result.Detections = append(result.Detections, models.DetectedSubscription{
			MerchantName:        group.DisplayName,
			NormalizedKey:       key,
			Amount:              utils.RoundFloat(stats.MeanAmount, 2),
			Currency:            firstCurrency(stats.Transactions),
			BillingCycle:        cycle,
			Confidence:          confidence,
			Category:            Categorize(key),
			TransactionCount:    len(stats.Transactions),
			LastTransactionDate: last.Date,
			NextPaymentDate:     NextPaymentDate(last.Date, cycle),
		})
	}

	// Map iteration order is random; sort for a deterministic result.
	sort.Slice(result.Detections, func(i, j int) bool {
		if result.Detections[i].Confidence != result.Detections[j].Confidence {
			return result.Detections[i].Confidence > result.Detections[j].Confidence
		}
		return result.Detections[i].NormalizedKey < result.Detections[j].NormalizedKey
	})

	return result
}

// CheckCoverage reports whether the feed holds enough data for a
// detection run to be meaningful. Each unmet requirement is phrased
// concretely so a caller can schedule a retry instead of presenting an
// empty result as "no subscriptions".
func (e *Engine) CheckCoverage(transactions []models.Transaction) models.CoverageReport {
	report := models.CoverageReport{Sufficient: true}

	valid := make([]models.Transaction, 0, len(transactions))
	for _, tx := range transactions {
		if tx.Valid() && tx.Outgoing() {
			valid = append(valid, tx)
		}
	}

	if n := len(valid); n < e.cfg.MinTransactions {
		report.Missing = append(report.Missing,
			fmt.Sprintf("need %d more transactions", e.cfg.MinTransactions-n))
	}

	if len(valid) > 0 {
		minDate, maxDate := valid[0].Date, valid[0].Date
		for _, tx := range valid[1:] {
			if tx.Date.Before(minDate) {
				minDate = tx.Date
			}
			if tx.Date.After(maxDate) {
				maxDate = tx.Date
			}
		}
		spanDays := int(maxDate.Sub(minDate).Hours() / 24)
		if spanDays < e.cfg.MinHistoryDays {
			report.Missing = append(report.Missing,
				fmt.Sprintf("need %d more days of history", e.cfg.MinHistoryDays-spanDays))
		}
	} else if e.cfg.MinHistoryDays > 0 {
		report.Missing = append(report.Missing,
			fmt.Sprintf("need %d more days of history", e.cfg.MinHistoryDays))
	}

	if n := len(GroupByMerchant(valid)); n < e.cfg.MinDistinctGroups {
		report.Missing = append(report.Missing,
			fmt.Sprintf("need %d more distinct merchants", e.cfg.MinDistinctGroups-n))
	}

	report.Sufficient = len(report.Missing) == 0
	return report
}

func firstCurrency(txs []models.Transaction) string {
	for _, tx := range txs {
		if tx.Currency != "" {
			return tx.Currency
		}
	}
	return "EUR"
}
