package calendar

import "time"

// LastNTradingDays returns the last n NYSE trading days up to and including
// from (most recent first). It excludes weekends and exchange holidays.
func LastNTradingDays(n int, from time.Time) []time.Time {
	out := make([]time.Time, 0, n)
	d := TruncateToDate(from)

	for len(out) < n {
		if IsTradingDay(d) {
			out = append(out, d)
		}
		d = d.AddDate(0, 0, -1)
	}
	return out
}

// LastTradingDay returns the most recent trading day on or before from.
func LastTradingDay(from time.Time) time.Time {
	return LastNTradingDays(1, from)[0]
}

// TradingDaysBetween returns trading days in [from, to] in ascending order.
func TradingDaysBetween(from, to time.Time) []time.Time {
	var out []time.Time
	for d := TruncateToDate(from); !d.After(TruncateToDate(to)); d = d.AddDate(0, 0, 1) {
		if IsTradingDay(d) {
			out = append(out, d)
		}
	}
	return out
}

// TruncateToDate strips the clock part and pins the date to UTC midnight.
func TruncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// IsWeekday reports whether d falls on Monday through Friday.
func IsWeekday(d time.Time) bool {
	wd := d.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// IsTradingDay returns true if date is a regular NYSE session.
func IsTradingDay(d time.Time) bool {
	if !IsWeekday(d) {
		return false
	}
	_, holiday := holidaysFor(d.Year())[TruncateToDate(d)]
	return !holiday
}

// holidaysFor lists the full-day NYSE closures of a year, with
// Saturday holidays observed on Friday and Sunday holidays on Monday.
func holidaysFor(year int) map[time.Time]struct{} {
	date := func(m time.Month, day int) time.Time {
		return time.Date(year, m, day, 0, 0, 0, 0, time.UTC)
	}

	out := map[time.Time]struct{}{}
	add := func(d time.Time) { out[d] = struct{}{} }

	// Fixed-date holidays.
	// New Year's Day is not moved back into December when it falls on a Saturday.
	if ny := date(time.January, 1); ny.Weekday() == time.Sunday {
		add(ny.AddDate(0, 0, 1))
	} else if ny.Weekday() != time.Saturday {
		add(ny)
	}
	if year >= 2022 {
		add(observed(date(time.June, 19))) // Juneteenth
	}
	add(observed(date(time.July, 4)))
	add(observed(date(time.December, 25)))

	// Floating Monday/Thursday holidays.
	add(nthWeekday(year, time.January, time.Monday, 3))    // Martin Luther King Jr. Day
	add(nthWeekday(year, time.February, time.Monday, 3))   // Washington's Birthday
	add(lastWeekday(year, time.May, time.Monday))          // Memorial Day
	add(nthWeekday(year, time.September, time.Monday, 1))  // Labor Day
	add(nthWeekday(year, time.November, time.Thursday, 4)) // Thanksgiving

	// Good Friday (2 days before Easter)
	add(easterSunday(year).AddDate(0, 0, -2))

	return out
}

func observed(d time.Time) time.Time {
	switch d.Weekday() {
	case time.Saturday:
		return d.AddDate(0, 0, -1)
	case time.Sunday:
		return d.AddDate(0, 0, 1)
	default:
		return d
	}
}

func nthWeekday(year int, m time.Month, wd time.Weekday, n int) time.Time {
	d := time.Date(year, m, 1, 0, 0, 0, 0, time.UTC)
	for d.Weekday() != wd {
		d = d.AddDate(0, 0, 1)
	}
	return d.AddDate(0, 0, 7*(n-1))
}

func lastWeekday(year int, m time.Month, wd time.Weekday) time.Time {
	d := time.Date(year, m+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	for d.Weekday() != wd {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// easterSunday computes Easter Sunday (Gregorian) using the Anonymous algorithm.
func easterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := ((h + l - 7*m + 114) % 31) + 1

	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}
