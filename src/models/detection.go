package models

import "time"

// BillingCycle is the inferred recurrence cadence of a subscription.
type BillingCycle string

const (
	CycleWeekly    BillingCycle = "weekly"
	CycleMonthly   BillingCycle = "monthly"
	CycleQuarterly BillingCycle = "quarterly"
	CycleYearly    BillingCycle = "yearly"
)

// DetectedSubscription is the engine's verdict for one merchant group:
// a recurring payment with a stable amount, a classified cadence and a
// 0-100 confidence estimate.
type DetectedSubscription struct {
	MerchantName        string       `json:"merchant_name"`
	NormalizedKey       string       `json:"normalized_key"`
	Amount              float64      `json:"amount"` // representative average, absolute
	Currency            string       `json:"currency"`
	BillingCycle        BillingCycle `json:"billing_cycle"`
	Confidence          int          `json:"confidence"`
	Category            string       `json:"category"`
	TransactionCount    int          `json:"transaction_count"`
	LastTransactionDate time.Time    `json:"last_transaction_date"`
	NextPaymentDate     time.Time    `json:"next_payment_date"`
}

// DetectionResult is the engine output contract for one run.
type DetectionResult struct {
	TotalProcessed int                    `json:"total_processed"`
	ValidCount     int                    `json:"valid_count"`
	InvalidCount   int                    `json:"invalid_count"`
	Detections     []DetectedSubscription `json:"detections"`
}

// EnrichmentResult summarizes one enrichment pass over a user's
// persisted subscriptions.
type EnrichmentResult struct {
	CreatedPriceChanges int `json:"created_price_changes"`
	CreatedAnomalies    int `json:"created_anomalies"`
}

// CoverageReport states whether a transaction window holds enough data
// for detection to be meaningful, and if not, what exactly is missing.
// Callers use Missing to decide when to retry instead of treating a
// thin window as "no subscriptions found".
type CoverageReport struct {
	Sufficient bool     `json:"sufficient"`
	Missing    []string `json:"missing,omitempty"`
}
