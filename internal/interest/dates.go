package interest

import (
	"time"

	"lendx/internal/core"
)

const daysPerWeek = 7

// dayNumber maps a calendar date to a day count so that differences are
// independent of the date's location.
func dayNumber(d core.Date) int64 {
	y, m, day := d.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC).Unix() / 86400
}

// wholeWeeksBetween returns the number of complete weeks from earlier to
// later, truncated toward zero. It is negative when later precedes earlier.
func wholeWeeksBetween(later, earlier core.Date) int64 {
	return (dayNumber(later) - dayNumber(earlier)) / daysPerWeek
}

// startOfWeek returns the Monday of the week containing d.
func startOfWeek(d core.Date) core.Date {
	offset := (int(d.Weekday()) + 6) % daysPerWeek
	return core.DateOf(d.Time).AddDays(-offset)
}

// endOfWeek returns the Sunday of the week containing d.
func endOfWeek(d core.Date) core.Date {
	return startOfWeek(d).AddDays(daysPerWeek - 1)
}

// onOrBefore reports whether a is the same calendar day as b or earlier.
func onOrBefore(a, b core.Date) bool {
	return dayNumber(a) <= dayNumber(b)
}
