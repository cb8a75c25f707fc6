// Package ephemeris looks up the name day printed under the date.
package ephemeris

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// Entry is the name celebrated on one day, with an optional prefix such
// as "Saint" or "Sainte".
type Entry struct {
	Name   string
	Prefix string
}

// UnmarshalJSON reads the ["name", "prefix"] pairs of the data file.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var fields []string
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if len(fields) == 0 || len(fields) > 2 {
		return fmt.Errorf("ephemeris entry must have 1 or 2 fields, got %d", len(fields))
	}
	e.Name = fields[0]
	if len(fields) == 2 {
		e.Prefix = fields[1]
	}
	return nil
}

// Label renders the entry as shown on the page.
func (e Entry) Label() string {
	if e.Prefix == "" {
		return e.Name
	}
	return e.Prefix + " " + e.Name
}

// Ephemeris holds the entries of every day of the year, keyed by lowercase
// English month name.
type Ephemeris struct {
	months map[string][]Entry
}

// Load reads an ephemeris JSON file.
func Load(path string) (*Ephemeris, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ephemeris: %w", err)
	}

	var months map[string][]Entry
	if err := json.Unmarshal(data, &months); err != nil {
		return nil, fmt.Errorf("parse ephemeris: %w", err)
	}
	return &Ephemeris{months: months}, nil
}

// For returns the entry for a month (1 to 12) and day (1 to 31). Days that
// do not exist in the month are rejected; February 29 is always accepted.
func (e *Ephemeris) For(month time.Month, day int) (Entry, error) {
	if month < time.January || month > time.December {
		return Entry{}, fmt.Errorf("month %d is invalid, expect a value between 1 and 12", month)
	}
	if day < 1 || day > 31 {
		return Entry{}, fmt.Errorf("day %d is invalid, expect a value between 1 and 31", day)
	}
	switch {
	case day > 30 && (month == time.April || month == time.June || month == time.September || month == time.November),
		day > 29 && month == time.February:
		return Entry{}, fmt.Errorf("day %d does not exist in %s", day, month)
	}

	entries := e.months[strings.ToLower(month.String())]
	if day > len(entries) {
		return Entry{}, fmt.Errorf("no ephemeris for %s %d", month, day)
	}
	return entries[day-1], nil
}

// Today returns the entry for the date of now.
func (e *Ephemeris) Today(now time.Time) (Entry, error) {
	return e.For(now.Month(), now.Day())
}
