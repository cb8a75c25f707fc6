// Package quote provides the quotes printed on the page.
package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Quote is a short text and its author.
type Quote struct {
	Text   string `yaml:"text"`
	Author string `yaml:"author"`
}

// Empty reports whether q has neither text nor author.
func (q Quote) Empty() bool {
	return q.Text == "" && q.Author == ""
}

func (q Quote) String() string {
	return q.Text + " - " + q.Author
}

// LoadFile reads a YAML list of quotes.
func LoadFile(path string) ([]Quote, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read quotes: %w", err)
	}

	var quotes []Quote
	if err := yaml.Unmarshal(data, &quotes); err != nil {
		return nil, fmt.Errorf("parse quotes: %w", err)
	}

	// Drop blank entries so they never become the quote of the day.
	kept := quotes[:0]
	for _, q := range quotes {
		q.Text = strings.TrimSpace(q.Text)
		q.Author = strings.TrimSpace(q.Author)
		if q.Text != "" {
			kept = append(kept, q)
		}
	}
	return kept, nil
}

// OfTheDay picks the quote for the day of t. The same day of the year
// always gives the same quote.
func OfTheDay(quotes []Quote, t time.Time) Quote {
	if len(quotes) == 0 {
		return Quote{}
	}
	return quotes[(t.YearDay()-1)%len(quotes)]
}

// RonSwanson fetches a random quote from the Ron Swanson quotes API.
type RonSwanson struct {
	url    string
	client *http.Client
}

// NewRonSwanson creates a client for the API at url.
func NewRonSwanson(url string) *RonSwanson {
	return &RonSwanson{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Fetch returns one quote.
func (r *RonSwanson) Fetch(ctx context.Context) (Quote, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		return Quote{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return Quote{}, fmt.Errorf("fetch quote: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Quote{}, fmt.Errorf("fetch quote: status %d", resp.StatusCode)
	}

	var texts []string
	if err := json.NewDecoder(resp.Body).Decode(&texts); err != nil {
		return Quote{}, fmt.Errorf("decode quote: %w", err)
	}
	if len(texts) == 0 || strings.TrimSpace(texts[0]) == "" {
		return Quote{}, fmt.Errorf("fetch quote: empty response")
	}

	return Quote{Text: texts[0], Author: "Ron Swanson"}, nil
}
