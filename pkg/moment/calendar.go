package moment

import (
	"math"
	"time"
)

// Unit is a calendar unit accepted by Add.
type Unit int

const (
	Seconds Unit = iota
	Minutes
	Hours
	Days
	Weeks
	Months
	Quarters
	Years
)

// ParseUnit maps a unit letter to a Unit. Letters are case-insensitive
// except "M" (months) and "m" (minutes).
func ParseUnit(s string) (Unit, bool) {
	switch s {
	case "M":
		return Months, true
	case "m":
		return Minutes, true
	case "y", "Y":
		return Years, true
	case "q", "Q":
		return Quarters, true
	case "w", "W":
		return Weeks, true
	case "d", "D":
		return Days, true
	case "h", "H":
		return Hours, true
	case "s", "S":
		return Seconds, true
	}
	return Days, false
}

// Add advances t by amount units. Month based units clamp the day of month
// so that Jan 31 + 1 month is the last day of February.
func Add(t time.Time, amount int, unit Unit) time.Time {
	switch unit {
	case Years:
		return addMonths(t, 12*amount)
	case Quarters:
		return addMonths(t, 3*amount)
	case Months:
		return addMonths(t, amount)
	case Weeks:
		return t.AddDate(0, 0, 7*amount)
	case Days:
		return t.AddDate(0, 0, amount)
	case Hours:
		return addClock(t, amount, time.Hour)
	case Minutes:
		return addClock(t, amount, time.Minute)
	default:
		return addClock(t, amount, time.Second)
	}
}

// addClock adds amount units of elapsed time. Offsets that do not fit in a
// time.Duration are split into whole days plus the remainder.
func addClock(t time.Time, amount int, unit time.Duration) time.Time {
	limit := int64(math.MaxInt64 / unit)
	if n := int64(amount); n <= limit && n >= -limit {
		return t.Add(time.Duration(amount) * unit)
	}
	perDay := int(24 * time.Hour / unit)
	return t.AddDate(0, 0, amount/perDay).Add(time.Duration(amount%perDay) * unit)
}

func addMonths(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	first := time.Date(year, month+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := first.AddDate(0, 1, -1).Day(); day > last {
		day = last
	}
	return first.AddDate(0, 0, day-1)
}

// Calendar bundles a clock with Format and Add. The zero value uses the
// system clock.
type Calendar struct {
	Clock func() time.Time
}

// NewCalendar returns a Calendar backed by time.Now.
func NewCalendar() *Calendar {
	return &Calendar{Clock: time.Now}
}

// FixedCalendar always reports the same instant.
func FixedCalendar(at time.Time) *Calendar {
	return &Calendar{Clock: func() time.Time { return at }}
}

func (c *Calendar) Now() time.Time {
	if c == nil || c.Clock == nil {
		return time.Now()
	}
	return c.Clock()
}

func (c *Calendar) Format(t time.Time, layout string) (string, error) {
	return Format(t, layout)
}

func (c *Calendar) Add(t time.Time, amount int, unit Unit) time.Time {
	return Add(t, amount, unit)
}
