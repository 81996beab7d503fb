/*
Package calendar provides day-granularity dates for sales bucketing and
forecast horizons.

PURPOSE:
  Sales are recorded with a full timestamp, but demand is reasoned about
  per calendar day. Day strips the clock so that two sales on the same
  date always land in the same bucket, and Period enumerates every day in
  a closed range so that days without sales are still represented.

KEY CONCEPTS:
  - Day:    A calendar date (year, month, day) normalized to midnight UTC
  - Period: A closed range of days [Start, End]

USAGE:
  d := calendar.DayOf(sale.SoldAt)
  window := calendar.Period{Start: first, End: last}
  for _, day := range window.Days() { ... }

SEE ALSO:
  - forecast/forecast.go: Daily bucketing and horizon generation
*/
package calendar

import "time"

// DateLayout is the wire format of a Day.
const DateLayout = "2006-01-02"

// =============================================================================
// DAY - A calendar date without a clock
// =============================================================================

type Day struct {
	t time.Time
}

// NewDay returns the given calendar date.
func NewDay(year int, month time.Month, day int) Day {
	return Day{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DayOf returns the calendar date of t as observed in t's own location.
func DayOf(t time.Time) Day {
	return NewDay(t.Year(), t.Month(), t.Day())
}

// Today returns the current calendar date in the local time zone.
func Today() Day {
	return DayOf(time.Now())
}

// ParseDay parses a YYYY-MM-DD date.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Day{}, err
	}
	return DayOf(t), nil
}

// Comparison
func (d Day) Before(other Day) bool        { return d.t.Before(other.t) }
func (d Day) After(other Day) bool         { return d.t.After(other.t) }
func (d Day) Equal(other Day) bool         { return d.t.Equal(other.t) }
func (d Day) BeforeOrEqual(other Day) bool { return !d.After(other) }
func (d Day) AfterOrEqual(other Day) bool  { return !d.Before(other) }

// Arithmetic
func (d Day) AddDays(n int) Day { return Day{t: d.t.AddDate(0, 0, n)} }

// Properties
func (d Day) Time() time.Time              { return d.t }
func (d Day) Weekday() time.Weekday        { return d.t.Weekday() }
func (d Day) IsZero() bool                 { return d.t.IsZero() }
func (d Day) String() string               { return d.t.Format(DateLayout) }
func (d Day) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// IsWeekend reports whether d is a Saturday or Sunday.
func (d Day) IsWeekend() bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func (d *Day) UnmarshalText(b []byte) error {
	parsed, err := ParseDay(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DaysBetween returns the number of days from `from` to `to`. Negative when to is earlier.
func DaysBetween(from, to Day) int {
	return int(to.t.Sub(from.t).Hours() / 24)
}
