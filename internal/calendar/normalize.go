package calendar

import (
	"time"
	_ "time/tzdata" // IANA zones must resolve on hosts without a zoneinfo tree
)

// ParseEvent builds an Event from one raw calendar entry.
//
// Timed boundaries are converted to UTC: UTC values are kept, wall clock
// values are read in their TZID zone (or in local when they carry none).
// All-day boundaries stay plain dates. A *ParseError is returned for
// malformed entries and a *ResolutionError for unknown zones.
func ParseEvent(payload string, category Category, local *time.Location) (Event, error) {
	rec, err := parseRecord(payload)
	if err != nil {
		return Event{}, err
	}
	return normalize(rec, category, local)
}

func normalize(rec record, category Category, local *time.Location) (Event, error) {
	if local == nil {
		local = time.Local
	}

	ev := Event{
		category: category,
		uid:      rec.uid,
		summary:  rec.summary,
		location: rec.location,
	}

	if rec.start.kind == boundaryUnset {
		return Event{}, &ParseError{Reason: "missing DTSTART"}
	}

	end := rec.end
	if end.kind == boundaryUnset {
		end = defaultEnd(rec.start, rec.duration, rec.hasDur)
	}

	if (rec.start.kind == boundaryDate) != (end.kind == boundaryDate) {
		return Event{}, &ParseError{Reason: "DTSTART and DTEND mix dates and date-times"}
	}

	if rec.start.kind == boundaryDate {
		ev.kind = kindAllDay
		ev.startDate = rec.start.date
		ev.endDate = end.date
		return ev, nil
	}

	start, err := toUTC(rec.start, local)
	if err != nil {
		return Event{}, err
	}
	if end.kind == boundaryUnset {
		// DURATION on a timed event: exact time after the converted start.
		ev.kind = kindTimed
		ev.start = start
		ev.end = start.Add(rec.duration)
		return ev, nil
	}
	stop, err := toUTC(end, local)
	if err != nil {
		return Event{}, err
	}

	ev.kind = kindTimed
	ev.start = start
	ev.end = stop
	return ev, nil
}

// defaultEnd derives the end of an entry without DTEND. All-day entries
// last their DURATION in whole days, at least one. Timed entries without
// DURATION have no length; with one, the end is left unset for the caller
// to add it after conversion.
func defaultEnd(start boundary, dur time.Duration, hasDur bool) boundary {
	if start.kind == boundaryDate {
		days := 1
		if hasDur {
			days = max(int(dur/(24*time.Hour)), 1)
		}
		return boundary{kind: boundaryDate, date: start.date.AddDays(days)}
	}
	if hasDur {
		return boundary{}
	}
	return start
}

// toUTC converts a timed boundary to an absolute UTC instant.
func toUTC(b boundary, local *time.Location) (time.Time, error) {
	if b.kind == boundaryUTC {
		return b.wall.UTC(), nil
	}

	loc := local
	if b.tzid != "" {
		var err error
		loc, err = time.LoadLocation(b.tzid)
		if err != nil {
			return time.Time{}, &ResolutionError{TZID: b.tzid, Err: err}
		}
	}

	w := b.wall
	return time.Date(w.Year(), w.Month(), w.Day(), w.Hour(), w.Minute(), w.Second(), 0, loc).UTC(), nil
}
