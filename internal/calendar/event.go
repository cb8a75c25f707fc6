// Package calendar provides calendar feeds, event parsing and today's agenda.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Category tags an event with the kind of calendar it came from.
type Category int

const (
	CategoryPersonal Category = iota
	CategoryWork
	CategorySport
	CategoryBirthday
	CategoryHoliday
	CategoryUnknown
)

var categoryNames = map[Category]string{
	CategoryPersonal: "perso",
	CategoryWork:     "work",
	CategorySport:    "sport",
	CategoryBirthday: "bday",
	CategoryHoliday:  "holiday",
	CategoryUnknown:  "unknown",
}

// String returns the short name of the category, as used in config files
// and CSS classes.
func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return categoryNames[CategoryUnknown]
}

// ParseCategory maps a config value to a Category.
// Both the short names and the long ones ("personal", "birthday") are accepted.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "perso", "personal":
		return CategoryPersonal, nil
	case "work":
		return CategoryWork, nil
	case "sport", "sports":
		return CategorySport, nil
	case "bday", "birthday", "birthdays":
		return CategoryBirthday, nil
	case "holiday", "holidays":
		return CategoryHoliday, nil
	case "unknown":
		return CategoryUnknown, nil
	}
	return CategoryUnknown, fmt.Errorf("unknown category %q", s)
}

// UnmarshalText implements encoding.TextUnmarshaler so categories can be
// used directly in config structs.
func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Date is a calendar date without time of day or timezone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// In returns midnight of the date in loc.
func (d Date) In(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// Compare returns -1, 0 or +1 depending on whether d is before, equal to
// or after other.
func (d Date) Compare(other Date) int {
	return d.In(time.UTC).Compare(other.In(time.UTC))
}

// AddDays returns the date n days after d.
func (d Date) AddDays(n int) Date {
	return DateOf(d.In(time.UTC).AddDate(0, 0, n))
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// ErrInvalidEvent is the panic value used when an Event that was not built
// by ParseEvent reaches code that needs its time fields.
var ErrInvalidEvent = errors.New("event has neither dates nor instants")

type eventKind uint8

const (
	kindInvalid eventKind = iota
	kindAllDay
	kindTimed
)

// Event is one calendar entry happening on some day.
// Events are values: they are built once by ParseEvent and only read afterwards.
type Event struct {
	kind     eventKind
	category Category
	feed     string
	uid      string
	summary  string
	location string

	// all-day boundaries, end exclusive
	startDate Date
	endDate   Date

	// timed boundaries, always UTC
	start time.Time
	end   time.Time
}

// Category returns the category assigned by the feed the event came from.
func (e Event) Category() Category { return e.category }

// Feed returns the name of the feed the event came from.
func (e Event) Feed() string { return e.feed }

// UID returns the iCalendar UID, if the entry had one.
func (e Event) UID() string { return e.uid }

// Summary returns the event title.
func (e Event) Summary() string { return e.summary }

// Location returns the event location.
func (e Event) Location() string { return e.location }

// AllDay reports whether the event has date-only boundaries.
func (e Event) AllDay() bool { return e.kind == kindAllDay }

// Valid reports whether the event was built by ParseEvent.
func (e Event) Valid() bool { return e.kind != kindInvalid }

// Dates returns the start date and exclusive end date of an all-day event.
// ok is false for timed events.
func (e Event) Dates() (start, end Date, ok bool) {
	return e.startDate, e.endDate, e.kind == kindAllDay
}

// Instants returns the UTC start and end of a timed event.
// ok is false for all-day events.
func (e Event) Instants() (start, end time.Time, ok bool) {
	return e.start, e.end, e.kind == kindTimed
}

// SortKey returns a value that orders all-day and timed events together:
// the UTC start of timed events, midnight UTC of the start date otherwise.
func (e Event) SortKey() time.Time {
	switch e.kind {
	case kindAllDay:
		return e.startDate.In(time.UTC)
	case kindTimed:
		return e.start
	}
	panic(ErrInvalidEvent)
}

// bounds returns the event interval in loc. All-day events span local
// midnight of the start date up to local midnight of the end date.
func (e Event) bounds(loc *time.Location) (time.Time, time.Time) {
	switch e.kind {
	case kindAllDay:
		return e.startDate.In(loc), e.endDate.In(loc)
	case kindTimed:
		return e.start.In(loc), e.end.In(loc)
	}
	panic(ErrInvalidEvent)
}

func (e Event) String() string {
	switch e.kind {
	case kindAllDay:
		return fmt.Sprintf("%s [%s, %s) %q", e.category, e.startDate, e.endDate, e.summary)
	case kindTimed:
		return fmt.Sprintf("%s [%s, %s) %q", e.category, e.start.Format(time.RFC3339), e.end.Format(time.RFC3339), e.summary)
	}
	return "invalid event"
}

// Feed is one named calendar as fetched from a source: a display name and
// the raw iCalendar text of each of its entries.
type Feed struct {
	Name    string
	Entries []string

	// Err is set when the feed could not be fetched or expanded.
	Err error
}

// Source is the interface that calendar sources must implement.
type Source interface {
	// Name returns the display name of this calendar source.
	Name() string

	// Fetch retrieves the feeds of this source. Entries should cover at
	// least the given day; recurring entries are expanded to the
	// occurrences overlapping it.
	Fetch(ctx context.Context, day Day) ([]Feed, error)
}
