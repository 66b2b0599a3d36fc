package engine

import (
	"sort"

	"github.com/username/subwatch/backend/src/models"
)

// GroupByMerchant partitions outgoing transactions by normalized
// merchant key. Incoming transactions are excluded; they belong to
// payroll/refund analysis, not subscription detection. The result is
// deterministic for identical input regardless of input order: each
// group is sorted by date ascending and the display name is the raw
// description of the most recent transaction in the group.
func GroupByMerchant(transactions []models.Transaction) map[string]*models.MerchantGroup {
	groups := make(map[string]*models.MerchantGroup)

	for _, tx := range transactions {
		if !tx.Outgoing() {
			continue
		}
		key := NormalizeMerchant(tx.Description)
		g, ok := groups[key]
		if !ok {
			g = &models.MerchantGroup{Key: key}
			groups[key] = g
		}
		g.Transactions = append(g.Transactions, tx)
	}

	for _, g := range groups {
		sort.SliceStable(g.Transactions, func(i, j int) bool {
			return g.Transactions[i].Date.Before(g.Transactions[j].Date)
		})
		last := g.Transactions[len(g.Transactions)-1]
		if last.Description != "" {
			g.DisplayName = last.Description
		} else {
			g.DisplayName = g.Key
		}
	}

	return groups
}
