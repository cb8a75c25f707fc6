package calendar

import "time"

// Day is the local calendar day a report is generated for.
//
// Its boundaries run from 00:00:01 to 23:59:59 local time. Events touching
// only the first or last second of the day do not count as happening on it.
type Day struct {
	Start time.Time
	End   time.Time
}

// Today returns the Day containing now, in loc.
func Today(now time.Time, loc *time.Location) Day {
	if loc == nil {
		loc = time.Local
	}
	local := now.In(loc)
	y, m, d := local.Date()
	return Day{
		Start: time.Date(y, m, d, 0, 0, 1, 0, loc),
		End:   time.Date(y, m, d, 23, 59, 59, 0, loc),
	}
}

// Location returns the zone the day is expressed in.
func (d Day) Location() *time.Location {
	return d.Start.Location()
}

// Date returns the calendar date of the day.
func (d Day) Date() Date {
	return DateOf(d.Start)
}

// Contains reports whether e overlaps the day.
//
// The overlap is max(day start, event start) < min(day end, event end).
// All-day events are taken from local midnight of their start date to local
// midnight of their end date; timed events are converted to local time.
// It panics with ErrInvalidEvent if e was not built by ParseEvent.
func (d Day) Contains(e Event) bool {
	start, end := e.bounds(d.Location())

	lo := d.Start
	if start.After(lo) {
		lo = start
	}
	hi := d.End
	if end.Before(hi) {
		hi = end
	}
	return lo.Before(hi)
}
