// Package weather fetches the forecast shown at the top of the page from a
// DarkSky-compatible API such as Pirate Weather.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Kind is the overall weather of the day, derived from the API icon names.
type Kind int

const (
	KindUnknown Kind = iota
	KindClearDay
	KindPartlyCloudyDay
	KindClearNight
	KindPartlyCloudyNight
	KindRain
	KindSnow
	KindSleet
	KindWind
	KindFog
	KindCloudy
)

var kindIcons = map[string]Kind{
	"clear-day":           KindClearDay,
	"partly-cloudy-day":   KindPartlyCloudyDay,
	"clear-night":         KindClearNight,
	"partly-cloudy-night": KindPartlyCloudyNight,
	"rain":                KindRain,
	"snow":                KindSnow,
	"sleet":               KindSleet,
	"wind":                KindWind,
	"fog":                 KindFog,
	"cloudy":              KindCloudy,
}

// ParseKind maps an API icon name to a Kind. Unknown names give KindUnknown.
func ParseKind(icon string) Kind {
	return kindIcons[icon]
}

func (k Kind) String() string {
	for icon, kind := range kindIcons {
		if kind == k {
			return icon
		}
	}
	return "unknown"
}

// Temperature holds the temperatures of the day, truncated to whole degrees.
type Temperature struct {
	Current int
	Min     int
	Max     int
}

// Report is the weather summary of the coming hours.
type Report struct {
	Kind     Kind
	Summary  string
	RainRisk float64 // 0 to 1
	Temp     Temperature
}

func (r *Report) String() string {
	return fmt.Sprintf("%s, %s, T: %d/%d/%d, rain: %d%%",
		r.Kind, r.Summary, r.Temp.Min, r.Temp.Current, r.Temp.Max, int(r.RainRisk*100))
}

// Config holds forecast API settings.
type Config struct {
	URL    string // base URL, the key and coordinates are appended
	APIKey string
	Lat    float64
	Lon    float64
	Hours  int // hourly points summarized, 8 when zero
	Units  string
	Lang   string
}

// Client is a forecast API client.
type Client struct {
	config Config
	client *http.Client
}

// NewClient creates a new forecast client.
func NewClient(cfg Config) *Client {
	if cfg.Hours <= 0 {
		cfg.Hours = 8
	}
	if cfg.Units == "" {
		cfg.Units = "si"
	}
	return &Client{
		config: cfg,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// WithTimeout sets the HTTP timeout.
func (c *Client) WithTimeout(d time.Duration) *Client {
	if d > 0 {
		c.client.Timeout = d
	}
	return c
}

// forecast is the part of the API response the report uses.
type forecast struct {
	Currently *dataPoint `json:"currently"`
	Hourly    *struct {
		Summary string      `json:"summary"`
		Data    []dataPoint `json:"data"`
	} `json:"hourly"`
}

type dataPoint struct {
	Icon              string   `json:"icon"`
	Temperature       *float64 `json:"temperature"`
	PrecipProbability float64  `json:"precipProbability"`
}

// Report fetches the forecast and summarizes it.
func (c *Client) Report(ctx context.Context) (*Report, error) {
	u, err := c.requestURL()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	slog.Debug("fetching forecast", "lat", c.config.Lat, "lon", c.config.Lon)
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch forecast: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch forecast: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var f forecast
	if err := json.NewDecoder(resp.Body).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode forecast: %w", err)
	}

	return summarize(f, c.config.Hours)
}

func (c *Client) requestURL() (string, error) {
	base, err := url.Parse(strings.TrimRight(c.config.URL, "/"))
	if err != nil {
		return "", fmt.Errorf("parse weather url: %w", err)
	}
	coords := strconv.FormatFloat(c.config.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(c.config.Lon, 'f', -1, 64)
	u := base.JoinPath(c.config.APIKey, coords)

	q := u.Query()
	if c.config.Lang != "" {
		q.Set("lang", c.config.Lang)
	}
	q.Set("units", c.config.Units)
	q.Set("exclude", "daily")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// summarize averages the first hours points of the hourly forecast: min and
// max temperature, mean rain probability and the most frequent icon. The
// current conditions fill the current temperature and, when the hourly data
// gave nothing, the icon.
func summarize(f forecast, hours int) (*Report, error) {
	var (
		r       Report
		temps   []float64
		current *float64
	)

	if f.Hourly != nil {
		r.Summary = f.Hourly.Summary

		points := f.Hourly.Data
		if len(points) > hours {
			points = points[:hours]
		}

		var (
			counts = make(map[Kind]int)
			seen   []Kind
		)
		for _, p := range points {
			if p.Temperature != nil {
				temps = append(temps, *p.Temperature)
			}
			r.RainRisk += p.PrecipProbability

			kind := ParseKind(p.Icon)
			if counts[kind] == 0 {
				seen = append(seen, kind)
			}
			counts[kind]++
		}
		if len(points) > 0 {
			r.RainRisk /= float64(len(points))
		}

		// Ties go to the kind seen first.
		best := 0
		for _, kind := range seen {
			if counts[kind] > best {
				best = counts[kind]
				r.Kind = kind
			}
		}
	}

	if f.Currently != nil {
		current = f.Currently.Temperature
		if r.Kind == KindUnknown {
			r.Kind = ParseKind(f.Currently.Icon)
		}
	}

	if len(temps) == 0 && current == nil {
		return nil, errors.New("forecast has no temperature data")
	}
	if current == nil {
		current = &temps[0]
	}
	if len(temps) == 0 {
		temps = []float64{*current}
	}

	lo, hi := temps[0], temps[0]
	for _, t := range temps[1:] {
		lo = min(lo, t)
		hi = max(hi, t)
	}

	r.Temp = Temperature{
		Current: int(*current),
		Min:     int(lo),
		Max:     int(hi),
	}
	return &r, nil
}
