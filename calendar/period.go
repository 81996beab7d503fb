package calendar

// =============================================================================
// PERIOD - A closed range of days
// =============================================================================

// Period is the closed range [Start, End]. A period whose End is before
// its Start is empty.
type Period struct {
	Start Day
	End   Day
}

// Horizon returns the n days following (and excluding) from.
func Horizon(from Day, n int) Period {
	return Period{Start: from.AddDays(1), End: from.AddDays(n)}
}

// Contains returns true if the day is within the period [Start, End]
func (p Period) Contains(d Day) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

// Len returns the number of days in the period.
func (p Period) Len() int {
	if p.End.Before(p.Start) {
		return 0
	}
	return DaysBetween(p.Start, p.End) + 1
}

// Days returns all days in the period in ascending order.
func (p Period) Days() []Day {
	days := make([]Day, 0, p.Len())
	for current := p.Start; current.BeforeOrEqual(p.End); current = current.AddDays(1) {
		days = append(days, current)
	}
	return days
}

// Index returns the zero-based position of d in the period, or -1.
func (p Period) Index(d Day) int {
	if !p.Contains(d) {
		return -1
	}
	return DaysBetween(p.Start, d)
}

// String returns a string representation of the period.
func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}
