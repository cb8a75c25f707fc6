package calendar

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	ics "github.com/emersion/go-ical"
	"github.com/teambition/rrule-go"
)

// calendarEntries turns one decoded calendar object into feed entries for
// day. Each VEVENT becomes one entry; recurring VEVENTs become one entry per
// occurrence overlapping day, with RECURRENCE-ID overrides applied.
// Entries keep the object's VTIMEZONE components.
func calendarEntries(cal *ics.Calendar, day Day) ([]string, error) {
	var (
		timezones []*ics.Component
		masters   []*ics.Component
		overrides = make(map[string][]*ics.Component)
	)

	for _, comp := range cal.Children {
		switch comp.Name {
		case ics.CompTimezone:
			timezones = append(timezones, comp)
		case ics.CompEvent:
			if comp.Props.Get(ics.PropRecurrenceID) != nil {
				uid := propValue(comp, ics.PropUID)
				overrides[uid] = append(overrides[uid], comp)
				continue
			}
			masters = append(masters, comp)
		}
	}

	var out []string
	emit := func(comp *ics.Component) error {
		entry, err := encodeEntry(cal, timezones, comp)
		if err != nil {
			return err
		}
		out = append(out, entry)
		return nil
	}

	for _, master := range masters {
		uid := propValue(master, ics.PropUID)
		if master.Props.Get(ics.PropRecurrenceRule) == nil {
			if err := emit(master); err != nil {
				return nil, err
			}
			continue
		}

		occurrences, err := expand(master, overrides[uid], day)
		if err != nil {
			return nil, fmt.Errorf("expand %q: %w", uid, err)
		}
		delete(overrides, uid)
		for _, occ := range occurrences {
			if err := emit(occ); err != nil {
				return nil, err
			}
		}
	}

	// Overrides whose master was not returned still describe real instances.
	for _, orphans := range overrides {
		for _, comp := range orphans {
			if err := emit(comp); err != nil {
				return nil, err
			}
		}
	}

	return out, nil
}

// expand returns one VEVENT per occurrence of master that may overlap day,
// plus every override of the series. Generated occurrences replaced by an
// override are dropped.
func expand(master *ics.Component, overrides []*ics.Component, day Day) ([]*ics.Component, error) {
	loc := day.Location()

	startProp := master.Props.Get(ics.PropDateTimeStart)
	if startProp == nil {
		return nil, &ParseError{Reason: "missing DTSTART"}
	}
	start, allDay, err := propTime(*startProp, loc)
	if err != nil {
		return nil, err
	}
	duration, err := masterDuration(master, start, allDay, loc)
	if err != nil {
		return nil, err
	}

	r, err := rrule.StrToRRule(master.Props.Get(ics.PropRecurrenceRule).Value)
	if err != nil {
		return nil, fmt.Errorf("parse RRULE: %w", err)
	}
	r.DTStart(start)

	var set rrule.Set
	set.RRule(r)
	for _, t := range propTimes(master, ics.PropRecurrenceDates, loc) {
		set.RDate(t)
	}
	for _, t := range propTimes(master, ics.PropExceptionDates, loc) {
		set.ExDate(t.In(start.Location()))
	}

	from := time.Date(day.Start.Year(), day.Start.Month(), day.Start.Day(), 0, 0, 0, 0, loc).Add(-duration)
	var out []*ics.Component
	for _, occ := range occurrencesBetween(&set, from, day.End) {
		if findOverride(overrides, occ, loc) != nil {
			continue
		}
		out = append(out, occurrence(master, occ, duration, allDay))
	}

	// A moved instance can land on day while its original slot does not, or
	// leave day entirely. Every override is kept; the today filter decides.
	return append(out, overrides...), nil
}

func occurrencesBetween(set *rrule.Set, from, to time.Time) []time.Time {
	return set.Between(from, to, true)
}

// occurrence returns a copy of master describing the single instance
// starting at start. Timed instances are written in UTC.
func occurrence(master *ics.Component, start time.Time, duration time.Duration, allDay bool) *ics.Component {
	comp := cloneComponent(master)
	comp.Props.Del(ics.PropRecurrenceRule)
	comp.Props.Del(ics.PropRecurrenceDates)
	comp.Props.Del(ics.PropExceptionDates)
	comp.Props.Del(ics.PropDuration)

	if allDay {
		days := int(duration / (24 * time.Hour))
		if days < 1 {
			days = 1
		}
		comp.Props.SetDate(ics.PropDateTimeStart, start)
		comp.Props.SetDate(ics.PropDateTimeEnd, start.AddDate(0, 0, days))
		return comp
	}

	comp.Props.SetDateTime(ics.PropDateTimeStart, start.UTC())
	comp.Props.SetDateTime(ics.PropDateTimeEnd, start.Add(duration).UTC())
	return comp
}

func findOverride(overrides []*ics.Component, occ time.Time, loc *time.Location) *ics.Component {
	for _, o := range overrides {
		rid := o.Props.Get(ics.PropRecurrenceID)
		t, _, err := propTime(*rid, loc)
		if err == nil && t.Equal(occ) {
			return o
		}
	}
	return nil
}

func masterDuration(master *ics.Component, start time.Time, allDay bool, loc *time.Location) (time.Duration, error) {
	if endProp := master.Props.Get(ics.PropDateTimeEnd); endProp != nil {
		end, _, err := propTime(*endProp, loc)
		if err != nil {
			return 0, err
		}
		return end.Sub(start), nil
	}
	if durProp := master.Props.Get(ics.PropDuration); durProp != nil {
		d, err := durProp.Duration()
		if err != nil {
			return 0, &ParseError{Line: durProp.Value, Reason: "invalid duration"}
		}
		return d, nil
	}
	if allDay {
		return 24 * time.Hour, nil
	}
	return 0, nil
}

// propTime reads a DATE or DATE-TIME property. Dates and floating times
// are read in loc.
func propTime(p ics.Prop, loc *time.Location) (time.Time, bool, error) {
	value := strings.TrimSpace(p.Value)
	if strings.EqualFold(p.Params.Get(ics.ParamValue), "DATE") || len(value) == len(dateLayout) {
		t, err := time.ParseInLocation(dateLayout, value, loc)
		if err != nil {
			return t, true, &ParseError{Line: p.Name + ":" + p.Value, Reason: "invalid date"}
		}
		return t, true, nil
	}

	if strings.HasSuffix(value, "Z") {
		t, err := time.Parse(dateTimeLayout, strings.TrimSuffix(value, "Z"))
		if err != nil {
			return t, false, &ParseError{Line: p.Name + ":" + p.Value, Reason: "invalid date-time"}
		}
		return t, false, nil
	}

	zone := loc
	if tzid := p.Params.Get(ics.ParamTimezoneID); tzid != "" {
		var err error
		zone, err = time.LoadLocation(tzid)
		if err != nil {
			return time.Time{}, false, &ResolutionError{TZID: tzid, Err: err}
		}
	}
	t, err := time.ParseInLocation(dateTimeLayout, value, zone)
	if err != nil {
		return t, false, &ParseError{Line: p.Name + ":" + p.Value, Reason: "invalid date-time"}
	}
	return t, false, nil
}

// propTimes reads every value of a list property such as EXDATE. Values
// that cannot be read are skipped.
func propTimes(comp *ics.Component, name string, loc *time.Location) []time.Time {
	var out []time.Time
	for _, p := range comp.Props[name] {
		for _, v := range strings.Split(p.Value, ",") {
			item := p
			item.Value = v
			if t, _, err := propTime(item, loc); err == nil {
				out = append(out, t)
			}
		}
	}
	return out
}

func propValue(comp *ics.Component, name string) string {
	if p := comp.Props.Get(name); p != nil {
		return p.Value
	}
	return ""
}

func cloneComponent(c *ics.Component) *ics.Component {
	out := ics.NewComponent(c.Name)
	for name, props := range c.Props {
		out.Props[name] = append([]ics.Prop(nil), props...)
	}
	out.Children = c.Children
	return out
}

// encodeEntry writes comp, with the object's timezones, as a standalone
// VCALENDAR text.
func encodeEntry(src *ics.Calendar, timezones []*ics.Component, comp *ics.Component) (string, error) {
	cal := ics.NewCalendar()
	for name, props := range src.Props {
		cal.Props[name] = append([]ics.Prop(nil), props...)
	}
	if cal.Props.Get(ics.PropVersion) == nil {
		cal.Props.SetText(ics.PropVersion, "2.0")
	}
	if cal.Props.Get(ics.PropProductID) == nil {
		cal.Props.SetText(ics.PropProductID, "-//DailyCommute//DailyCommute//EN")
	}
	cal.Children = append(append([]*ics.Component(nil), timezones...), comp)

	var buf bytes.Buffer
	if err := ics.NewEncoder(&buf).Encode(cal); err != nil {
		return "", fmt.Errorf("encode entry: %w", err)
	}
	return buf.String(), nil
}
