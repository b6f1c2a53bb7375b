package store

import (
	"time"

	"github.com/GillesGroulard/familisapp/internal/slideshow"
)

// NextOccurrence returns the first date of a recurring reminder strictly
// after both date and today. For WEEKLY, day is a weekday (0 = Sunday);
// for MONTHLY it is the day of month, clamped to short months. A nil day
// repeats on date's own weekday or day of month. ok is false for
// reminders that do not repeat.
func NextOccurrence(date time.Time, rec slideshow.Recurrence, day *int, today time.Time) (next time.Time, ok bool) {
	var step func(time.Time) time.Time
	switch rec {
	case slideshow.RecurDaily:
		step = func(d time.Time) time.Time { return d.AddDate(0, 0, 1) }

	case slideshow.RecurWeekly:
		weekday := date.Weekday()
		if day != nil && *day >= 0 && *day <= 6 {
			weekday = time.Weekday(*day)
		}
		step = func(d time.Time) time.Time {
			d = d.AddDate(0, 0, 1)
			for d.Weekday() != weekday {
				d = d.AddDate(0, 0, 1)
			}
			return d
		}

	case slideshow.RecurMonthly:
		dom := date.Day()
		if day != nil && *day >= 1 && *day <= 31 {
			dom = *day
		}
		step = func(d time.Time) time.Time {
			first := time.Date(d.Year(), d.Month()+1, 1, 0, 0, 0, 0, d.Location())
			return first.AddDate(0, 0, min(dom, daysIn(first))-1)
		}

	default:
		return time.Time{}, false
	}

	floor := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, date.Location())
	next = step(date)
	for !next.After(floor) {
		next = step(next)
	}
	return next, true
}

func daysIn(monthStart time.Time) int {
	return monthStart.AddDate(0, 1, -1).Day()
}
