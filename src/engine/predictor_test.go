package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/username/subwatch/backend/src/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextPaymentDate(t *testing.T) {
	tests := []struct {
		name  string
		last  time.Time
		cycle models.BillingCycle
		want  time.Time
	}{
		{"weekly", date(2025, time.March, 3), models.CycleWeekly, date(2025, time.March, 10)},
		{"monthly mid-month", date(2025, time.March, 15), models.CycleMonthly, date(2025, time.April, 15)},
		{"monthly from jan 31 clamps to feb", date(2025, time.January, 31), models.CycleMonthly, date(2025, time.February, 28)},
		{"monthly from jan 31 in leap year", date(2024, time.January, 31), models.CycleMonthly, date(2024, time.February, 29)},
		{"monthly from mar 31 clamps to apr 30", date(2025, time.March, 31), models.CycleMonthly, date(2025, time.April, 30)},
		{"monthly across year end", date(2024, time.December, 10), models.CycleMonthly, date(2025, time.January, 10)},
		{"quarterly", date(2025, time.January, 10), models.CycleQuarterly, date(2025, time.April, 10)},
		{"quarterly clamps", date(2024, time.November, 30), models.CycleQuarterly, date(2025, time.February, 28)},
		{"yearly", date(2025, time.June, 1), models.CycleYearly, date(2026, time.June, 1)},
		{"yearly from feb 29", date(2024, time.February, 29), models.CycleYearly, date(2025, time.February, 28)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextPaymentDate(tt.last, tt.cycle))
		})
	}
}
