package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/emersion/go-webdav/caldav"
)

// CalDAVSource fetches events from a CalDAV server.
// Each calendar of the account is one feed, named after its display name.
type CalDAVSource struct {
	name      string
	url       string
	username  string
	password  string
	calendars []string // Optional: specific calendars to fetch
	timeout   time.Duration
}

// NewCalDAVSource creates a new CalDAV calendar source.
func NewCalDAVSource(name, url, username, password string, calendars []string) *CalDAVSource {
	return &CalDAVSource{
		name:      name,
		url:       url,
		username:  username,
		password:  password,
		calendars: calendars,
		timeout:   60 * time.Second,
	}
}

// iCloudCalDAVURL is the base URL for iCloud CalDAV.
const iCloudCalDAVURL = "https://caldav.icloud.com"

// NewICloudSource creates a new iCloud calendar source.
// iCloud uses CalDAV with a specific server URL.
func NewICloudSource(name, username, password string, calendars []string) *CalDAVSource {
	return NewCalDAVSource(name, iCloudCalDAVURL, username, password, calendars)
}

// WithTimeout sets the HTTP timeout used for every request of a fetch.
func (s *CalDAVSource) WithTimeout(d time.Duration) *CalDAVSource {
	if d > 0 {
		s.timeout = d
	}
	return s
}

// Name returns the display name of this calendar source.
func (s *CalDAVSource) Name() string {
	return s.name
}

// Fetch discovers the account's calendars and returns one feed per calendar
// with the entries overlapping day.
func (s *CalDAVSource) Fetch(ctx context.Context, day Day) ([]Feed, error) {
	httpClient := &http.Client{
		Timeout: s.timeout,
		Transport: &basicAuthTransport{
			username: s.username,
			password: s.password,
			base:     http.DefaultTransport,
		},
	}

	client, err := caldav.NewClient(httpClient, s.url)
	if err != nil {
		return nil, fmt.Errorf("create caldav client: %w", err)
	}

	principal, err := client.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return nil, fmt.Errorf("find principal: %w", err)
	}

	homeSet, err := client.FindCalendarHomeSet(ctx, principal)
	if err != nil {
		return nil, fmt.Errorf("find calendar home: %w", err)
	}

	cals, err := client.FindCalendars(ctx, homeSet)
	if err != nil {
		return nil, fmt.Errorf("find calendars: %w", err)
	}

	var feeds []Feed
	for _, cal := range cals {
		if len(s.calendars) > 0 && !s.shouldFetchCalendar(cal.Name) {
			continue
		}

		entries, err := s.fetchCalendarEntries(ctx, client, cal, day)
		if err != nil {
			// Keep the failure with the feed; the agenda reports it per feed.
			feeds = append(feeds, Feed{Name: cal.Name, Err: err})
			continue
		}
		slog.Debug("fetched calendar", "source", s.name, "calendar", cal.Name, "entries", len(entries))

		feeds = append(feeds, Feed{Name: cal.Name, Entries: entries})
	}

	return feeds, nil
}

// shouldFetchCalendar checks if a calendar was requested in the config.
func (s *CalDAVSource) shouldFetchCalendar(name string) bool {
	for _, c := range s.calendars {
		if strings.EqualFold(c, name) {
			return true
		}
	}
	return false
}

// fetchCalendarEntries queries the objects of one calendar that overlap day.
func (s *CalDAVSource) fetchCalendarEntries(ctx context.Context, client *caldav.Client, cal caldav.Calendar, day Day) ([]string, error) {
	// Ask for a little more than the day; the agenda filter decides.
	start := day.Start.Add(-24 * time.Hour)
	end := day.End.Add(24 * time.Hour)

	query := &caldav.CalendarQuery{
		CompRequest: caldav.CalendarCompRequest{
			Name:     "VCALENDAR",
			AllProps: true,
			AllComps: true,
		},
		CompFilter: caldav.CompFilter{
			Name: "VCALENDAR",
			Comps: []caldav.CompFilter{{
				Name:  "VEVENT",
				Start: start.UTC(),
				End:   end.UTC(),
			}},
		},
	}

	objects, err := client.QueryCalendar(ctx, cal.Path, query)
	if err != nil {
		return nil, fmt.Errorf("query calendar %s: %w", cal.Name, err)
	}

	var entries []string
	for _, obj := range objects {
		if obj.Data == nil {
			continue
		}

		objEntries, err := calendarEntries(obj.Data, day)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", obj.Path, err)
		}
		entries = append(entries, objEntries...)
	}

	return entries, nil
}

// basicAuthTransport adds basic auth to HTTP requests.
type basicAuthTransport struct {
	username string
	password string
	base     http.RoundTripper
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.SetBasicAuth(t.username, t.password)
	return t.base.RoundTrip(req)
}

// Ensure CalDAVSource implements Source interface.
var _ Source = (*CalDAVSource)(nil)
