package engine

import "github.com/username/subwatch/backend/src/models"

// cycleBand maps an average day-interval range onto a billing cycle.
type cycleBand struct {
	cycle    models.BillingCycle
	min, max float64
}

// cycleBands is checked in order. The tight monthly band comes first:
// monthly is by far the most common cadence, so an interval that sits
// squarely around 30 days is classified monthly before the looser
// bands get a look. Anything outside every band fails closed; a noisy
// interval must not be guessed into a cadence.
var cycleBands = []cycleBand{
	{models.CycleMonthly, 28, 32}, // tight sub-range, preferred
	{models.CycleWeekly, 6, 8},
	{models.CycleMonthly, 25, 35}, // fallback band
	{models.CycleQuarterly, 85, 95},
	{models.CycleYearly, 350, 380},
}

// ClassifyCycle maps a mean interval in days to a discrete billing
// cycle. The second return is false when the interval falls in no
// tolerance band, in which case the group is not a subscription.
func ClassifyCycle(meanIntervalDays float64) (models.BillingCycle, bool) {
	for _, band := range cycleBands {
		if meanIntervalDays >= band.min && meanIntervalDays <= band.max {
			return band.cycle, true
		}
	}
	return "", false
}
