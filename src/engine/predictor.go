package engine

import (
	"time"

	"github.com/username/subwatch/backend/src/models"
)

// NextPaymentDate projects the next expected charge from the last
// observed charge and the billing cycle. Month and year additions are
// calendar-aware: Jan 31 + 1 month lands on the last day of February,
// not in March.
func NextPaymentDate(last time.Time, cycle models.BillingCycle) time.Time {
	switch cycle {
	case models.CycleWeekly:
		return last.AddDate(0, 0, 7)
	case models.CycleMonthly:
		return addMonthsClamped(last, 1)
	case models.CycleQuarterly:
		return addMonthsClamped(last, 3)
	case models.CycleYearly:
		return addMonthsClamped(last, 12)
	default:
		return addMonthsClamped(last, 1)
	}
}

// addMonthsClamped adds n calendar months, clamping the day of month to
// the last day of the target month. time.AddDate alone normalizes
// Jan 31 + 1 month to Mar 2/3, which is wrong for billing dates.
func addMonthsClamped(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	target := time.Date(year, month+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	if last := lastDayOfMonth(target); day > last {
		day = last
	}
	return time.Date(target.Year(), target.Month(), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func lastDayOfMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}
