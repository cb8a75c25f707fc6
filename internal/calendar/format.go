package calendar

import "time"

const (
	clockLayout = "15:04"
	longLayout  = "Mon 02 Jan 15:04"
)

// Formatter produces the strings shown for an event on a given day.
type Formatter struct {
	Day Day

	// Long renders a boundary that falls outside the day. It defaults to
	// the "Mon 02 Jan 15:04" layout.
	Long func(time.Time) string
}

// Display returns the title, location and time range of e.
//
// All-day events get an empty time range. For timed events each boundary is
// shown as HH:MM when it falls within the day, or with its full date when the
// event started before the day or ends after it.
func (f Formatter) Display(e Event) (title, location, hours string) {
	if !e.Valid() {
		panic(ErrInvalidEvent)
	}
	if e.AllDay() {
		return e.summary, e.location, ""
	}

	loc := f.Day.Location()
	start := e.start.In(loc)
	end := e.end.In(loc)

	startLabel := start.Format(clockLayout)
	if start.Before(f.Day.Start) {
		startLabel = f.long(start)
	}
	endLabel := end.Format(clockLayout)
	if end.After(f.Day.End) {
		endLabel = f.long(end)
	}

	return e.summary, e.location, startLabel + " - " + endLabel
}

func (f Formatter) long(t time.Time) string {
	if f.Long != nil {
		return f.Long(t)
	}
	return t.Format(longLayout)
}
