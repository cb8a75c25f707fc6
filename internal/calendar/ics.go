package calendar

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	ics "github.com/emersion/go-ical"
)

// ICSSource fetches events from an ICS/iCal URL or a local .ics file.
// The whole file is a single feed named after the source.
type ICSSource struct {
	name     string
	url      string
	username string
	password string
	client   *http.Client
}

// NewICSSource creates a new ICS calendar source. url may be an http(s)
// URL, a file:// URL or a plain path.
func NewICSSource(name, url, username, password string) *ICSSource {
	return &ICSSource{
		name:     name,
		url:      url,
		username: username,
		password: password,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// WithTimeout sets the HTTP timeout used when fetching the feed.
func (s *ICSSource) WithTimeout(d time.Duration) *ICSSource {
	if d > 0 {
		s.client.Timeout = d
	}
	return s
}

// Name returns the display name of this calendar source.
func (s *ICSSource) Name() string {
	return s.name
}

// Fetch retrieves the ICS feed and returns its entries for day.
func (s *ICSSource) Fetch(ctx context.Context, day Day) ([]Feed, error) {
	body, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	entries, err := s.parseICS(body, day)
	if err != nil {
		return []Feed{{Name: s.name, Err: err}}, nil
	}
	return []Feed{{Name: s.name, Entries: entries}}, nil
}

func (s *ICSSource) open(ctx context.Context) (io.ReadCloser, error) {
	if !strings.HasPrefix(s.url, "http://") && !strings.HasPrefix(s.url, "https://") {
		f, err := os.Open(strings.TrimPrefix(s.url, "file://"))
		if err != nil {
			return nil, fmt.Errorf("open ICS file: %w", err)
		}
		return f, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	// Add basic auth if credentials provided
	if s.username != "" && s.password != "" {
		req.SetBasicAuth(s.username, s.password)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch ICS: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch ICS: status %d", resp.StatusCode)
	}

	return resp.Body, nil
}

// parseICS decodes every calendar of r and returns its entries for day.
func (s *ICSSource) parseICS(r io.Reader, day Day) ([]string, error) {
	dec := ics.NewDecoder(r)

	var entries []string
	for {
		cal, err := dec.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode ICS: %w", err)
		}

		calEntries, err := calendarEntries(cal, day)
		if err != nil {
			return nil, err
		}
		entries = append(entries, calEntries...)
	}

	return entries, nil
}

// Ensure ICSSource implements Source interface.
var _ Source = (*ICSSource)(nil)
