package core

import "time"

// AddMonths returns the date n calendar months after d, with the day of
// month clamped to the last valid day of the target month (Jan 31 + 1
// month is Feb 28, or Feb 29 on leap years). Negative n shifts backward.
// Clamping is lossy: a clamped result does not round-trip back to d.
func AddMonths(d Date, n int) Date {
	months := d.Year()*12 + (d.Month() - 1) + n
	y, m := months/12, months%12
	if m < 0 {
		m += 12
		y--
	}
	day := d.Day()
	if last := DaysIn(y, m+1); day > last {
		day = last
	}
	return NewDate(y, m+1, day)
}

// DaysIn returns the number of days in the given calendar month.
func DaysIn(year, month int) int {
	// Day zero of the next month normalizes to the last day of this one.
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
