// Package page renders the Daily Commute HTML page.
package page

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"

	"github.com/cpuguy83/dailycommute/internal/calendar"
	"github.com/cpuguy83/dailycommute/internal/ephemeris"
	"github.com/cpuguy83/dailycommute/internal/links"
	"github.com/cpuguy83/dailycommute/internal/quote"
	"github.com/cpuguy83/dailycommute/internal/weather"
)

// Title is the heading of every edition.
const Title = "The Daily Commute"

//go:embed page.html.tmpl
var pageTemplate string

var tmpl = template.Must(template.New("page").Parse(pageTemplate))

// Edition is everything printed on one page. Nil or empty sections are
// left out.
type Edition struct {
	Lang       Lang
	Day        calendar.Day
	Weather    *weather.Report
	Events     []calendar.Event
	Ephemeris  *ephemeris.Entry
	Quote      quote.Quote
	RonSwanson quote.Quote
}

type view struct {
	Lang       Lang
	Title      string
	Date       string
	Ephemeris  string
	Quote      *quote.Quote
	Weather    *weatherView
	Events     []eventView
	RonSwanson *quote.Quote
}

type weatherView struct {
	Icon            string
	Summary         string
	ThermometerIcon string
	Temperature     string
	RainIcon        string
	Rain            string
}

type eventView struct {
	Class string
	Name  string
	Hours string
	Place string
	Link  *links.Link
}

// Render writes the HTML page of e to w.
func Render(w io.Writer, e Edition) error {
	if e.Lang == "" {
		e.Lang = French
	}

	v := view{
		Lang:  e.Lang,
		Title: Title,
		Date:  e.Lang.Heading(e.Day.Start),
	}
	if e.Ephemeris != nil {
		v.Ephemeris = e.Ephemeris.Label()
	}
	if !e.Quote.Empty() {
		v.Quote = &e.Quote
	}
	if !e.RonSwanson.Empty() {
		v.RonSwanson = &e.RonSwanson
	}
	if r := e.Weather; r != nil {
		v.Weather = &weatherView{
			Icon:            weatherIcon(r.Kind),
			Summary:         r.Summary,
			ThermometerIcon: thermometerIcon(r.Temp.Max),
			Temperature:     e.Lang.Temperature(r.Temp.Current, r.Temp.Min, r.Temp.Max),
			RainIcon:        rainIcon(r.RainRisk),
			Rain:            e.Lang.Rain(r.RainRisk),
		}
	}

	f := calendar.Formatter{Day: e.Day, Long: e.Lang.Long}
	for _, ev := range e.Events {
		name, location, hours := f.Display(ev)
		item := eventView{
			Class: "event-" + ev.Category().String(),
			Name:  name,
			Hours: hours,
			Place: location,
		}
		if place, link, ok := links.Split(location); ok {
			item.Place = place
			item.Link = &link
		}
		v.Events = append(v.Events, item)
	}

	if err := tmpl.Execute(w, v); err != nil {
		return fmt.Errorf("render page: %w", err)
	}
	return nil
}

// WriteFile renders e to path atomically.
// It writes to a temp file first, then renames to the final path.
func WriteFile(path string, e Edition) error {
	var buf bytes.Buffer
	if err := Render(&buf, e); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
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
