package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/GillesGroulard/familisapp/internal/slideshow"
)

func TestNextOccurrence(t *testing.T) {
	intp := func(v int) *int { return &v }
	today := day(2026, 10, 17) // a Saturday

	tests := []struct {
		name string
		date time.Time
		rec  slideshow.Recurrence
		day  *int
		want time.Time
		ok   bool
	}{
		{"none", today, slideshow.RecurNone, nil, time.Time{}, false},
		{"daily", today, slideshow.RecurDaily, nil, day(2026, 10, 18), true},
		{"daily from the past catches up", day(2026, 10, 1), slideshow.RecurDaily, nil, day(2026, 10, 18), true},
		{"daily in the future", day(2026, 10, 20), slideshow.RecurDaily, nil, day(2026, 10, 21), true},
		{"weekly same weekday", today, slideshow.RecurWeekly, nil, day(2026, 10, 24), true},
		{"weekly on monday", today, slideshow.RecurWeekly, intp(1), day(2026, 10, 19), true},
		{"monthly", today, slideshow.RecurMonthly, nil, day(2026, 11, 17), true},
		{"monthly clamps short months", day(2027, 1, 31), slideshow.RecurMonthly, nil, day(2027, 2, 28), true},
		{"monthly keeps its day after a short month", day(2027, 2, 28), slideshow.RecurMonthly, intp(31), day(2027, 3, 31), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NextOccurrence(tt.date, tt.rec, tt.day, today)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
