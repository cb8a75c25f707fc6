package calendar

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	ics "github.com/emersion/go-ical"
)

// Categories maps feed display names to the category of their events.
// Feeds missing from the table are not part of the agenda.
type Categories map[string]Category

// DefaultCategories is the table used when the configuration has none.
var DefaultCategories = Categories{
	"Agenda":    CategoryPersonal,
	"Work":      CategoryWork,
	"Sports":    CategorySport,
	"Birthdays": CategoryBirthday,
	"Holidays":  CategoryHoliday,
}

// Collect returns the events of the given feeds that happen on day, in
// chronological order.
//
// Every entry of a recognised feed is parsed and checked against day. If one
// entry of a feed cannot be parsed, or the feed carries a fetch error, none
// of that feed's events are kept and a *FeedError is added to the returned
// error; the other feeds still count.
func Collect(feeds []Feed, categories Categories, day Day) ([]Event, error) {
	var (
		events []Event
		errs   []error
	)

	for _, feed := range feeds {
		category, ok := categories[feed.Name]
		if !ok {
			slog.Debug("skipping unmapped feed", "feed", feed.Name)
			continue
		}
		if feed.Err != nil {
			errs = append(errs, &FeedError{Feed: feed.Name, Err: feed.Err})
			continue
		}

		matched, err := collectFeed(feed, category, day)
		if err != nil {
			errs = append(errs, &FeedError{Feed: feed.Name, Err: err})
			continue
		}
		events = append(events, matched...)
	}

	return Merge(events), errors.Join(errs...)
}

func collectFeed(feed Feed, category Category, day Day) ([]Event, error) {
	var matched []Event
	for _, entry := range feed.Entries {
		ev, err := ParseEvent(entry, category, day.Location())
		if err != nil {
			return nil, err
		}
		ev.feed = feed.Name
		if day.Contains(ev) {
			matched = append(matched, ev)
		}
	}
	return matched, nil
}

// Merge combines events from multiple sets into a single slice sorted by
// SortKey. Events with equal keys keep their input order.
func Merge(eventSets ...[]Event) []Event {
	var all []Event
	for _, events := range eventSets {
		all = append(all, events...)
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].SortKey().Before(all[j].SortKey())
	})

	return all
}

// WriteICS writes events to an ICS file atomically.
// It writes to a temp file first, then renames to the final path.
func WriteICS(path string, events []Event) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	cal := ics.NewCalendar()
	cal.Props.SetText(ics.PropVersion, "2.0")
	cal.Props.SetText(ics.PropProductID, "-//DailyCommute//DailyCommute//EN")

	now := time.Now()
	for i, event := range events {
		comp := ics.NewComponent(ics.CompEvent)

		uid := event.UID()
		if uid == "" {
			uid = fmt.Sprintf("%s-%d@dailycommute", now.Format(dateLayout), i)
		}
		comp.Props.SetText(ics.PropUID, uid)
		comp.Props.SetText(ics.PropSummary, event.Summary())

		// DTSTAMP is required by RFC 5545
		comp.Props.SetDateTime(ics.PropDateTimeStamp, now.UTC())

		if event.Location() != "" {
			comp.Props.SetText(ics.PropLocation, event.Location())
		}

		if start, end, ok := event.Dates(); ok {
			comp.Props.SetDate(ics.PropDateTimeStart, start.In(time.UTC))
			comp.Props.SetDate(ics.PropDateTimeEnd, end.In(time.UTC))
		} else if start, end, ok := event.Instants(); ok {
			comp.Props.SetDateTime(ics.PropDateTimeStart, start)
			comp.Props.SetDateTime(ics.PropDateTimeEnd, end)
		}

		comp.Props.SetText(ics.PropCategories, event.Category().String())
		comp.Props.SetText("X-DAILYCOMMUTE-FEED", event.Feed())

		cal.Children = append(cal.Children, comp)
	}

	var buf bytes.Buffer
	enc := ics.NewEncoder(&buf)
	if err := enc.Encode(cal); err != nil {
		return fmt.Errorf("encode ICS: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath) // Clean up temp file on error
		return fmt.Errorf("rename temp file: %w", err)
	}

	return nil
}
