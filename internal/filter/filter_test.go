package filter

import (
	"testing"
	"time"

	"github.com/cpuguy83/dailycommute/internal/calendar"
	"github.com/cpuguy83/dailycommute/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEvents(t *testing.T) []calendar.Event {
	t.Helper()

	entry := func(summary, location, start, end string) string {
		return "SUMMARY:" + summary + "\nLOCATION:" + location +
			"\nDTSTART:20240115T" + start + "Z\nDTEND:20240115T" + end + "Z"
	}

	feeds := []calendar.Feed{
		{Name: "Work", Entries: []string{
			entry("Team sync", "Room 4", "090000", "093000"),
			entry("1:1 with Bob", "Video call", "100000", "103000"),
		}},
		{Name: "Sports", Entries: []string{
			entry("Running club", "Park", "170000", "180000"),
		}},
	}

	day := calendar.Today(time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC), time.UTC)
	events, err := calendar.Collect(feeds, calendar.DefaultCategories, day)
	require.NoError(t, err)
	require.Len(t, events, 3)
	return events
}

func summaries(events []calendar.Event) []string {
	var out []string
	for _, ev := range events {
		out = append(out, ev.Summary())
	}
	return out
}

func TestFilterApply(t *testing.T) {
	events := testEvents(t)

	tests := []struct {
		name string
		cfg  config.FilterConfig
		want []string
	}{
		{
			name: "no rules",
			cfg:  config.FilterConfig{},
			want: []string{"Team sync", "1:1 with Bob", "Running club"},
		},
		{
			name: "contains title",
			cfg: config.FilterConfig{Rules: []config.FilterRule{
				{Field: "title", Contains: "sync"},
			}},
			want: []string{"Team sync"},
		},
		{
			name: "case insensitive prefix",
			cfg: config.FilterConfig{Rules: []config.FilterRule{
				{Field: "summary", Prefix: "team", CaseInsensitive: true},
			}},
			want: []string{"Team sync"},
		},
		{
			name: "exact category",
			cfg: config.FilterConfig{Rules: []config.FilterRule{
				{Field: "category", Exact: "sport"},
			}},
			want: []string{"Running club"},
		},
		{
			name: "feed suffix",
			cfg: config.FilterConfig{Rules: []config.FilterRule{
				{Field: "feed", Suffix: "ork"},
			}},
			want: []string{"Team sync", "1:1 with Bob"},
		},
		{
			name: "regex location",
			cfg: config.FilterConfig{Rules: []config.FilterRule{
				{Field: "location", Regex: `^(room|park)`, CaseInsensitive: true},
			}},
			want: []string{"Team sync", "Running club"},
		},
		{
			name: "or mode",
			cfg: config.FilterConfig{Mode: "or", Rules: []config.FilterRule{
				{Field: "title", Contains: "Bob"},
				{Field: "category", Exact: "sport"},
			}},
			want: []string{"1:1 with Bob", "Running club"},
		},
		{
			name: "and mode",
			cfg: config.FilterConfig{Mode: "and", Rules: []config.FilterRule{
				{Field: "calendar", Exact: "Work"},
				{Field: "location", Contains: "call"},
			}},
			want: []string{"1:1 with Bob"},
		},
		{
			name: "category by any name",
			cfg: config.FilterConfig{Rules: []config.FilterRule{
				{Field: "category", Exact: "Sports"},
			}},
			want: []string{"Running club"},
		},
		{
			name: "all mode alias",
			cfg: config.FilterConfig{Mode: "all", Rules: []config.FilterRule{
				{Field: "category", Exact: "work"},
				{Field: "title", Regex: `^\d`},
			}},
			want: []string{"1:1 with Bob"},
		},
		{
			name: "exclude only",
			cfg: config.FilterConfig{Exclude: []config.FilterRule{
				{Field: "place", Exact: "video call", CaseInsensitive: true},
			}},
			want: []string{"Team sync", "Running club"},
		},
		{
			name: "exclude wins over include",
			cfg: config.FilterConfig{
				Rules: []config.FilterRule{
					{Field: "feed", Exact: "Work"},
				},
				Exclude: []config.FilterRule{
					{Field: "title", Contains: "Bob"},
				},
			},
			want: []string{"Team sync"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := New(tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, summaries(f.Apply(events)))
		})
	}
}

func TestNewErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.FilterConfig
	}{
		{"bad regex", config.FilterConfig{Rules: []config.FilterRule{{Field: "title", Regex: "("}}}},
		{"no pattern", config.FilterConfig{Rules: []config.FilterRule{{Field: "title"}}}},
		{"unknown field", config.FilterConfig{Rules: []config.FilterRule{{Field: "organizer", Contains: "x"}}}},
		{"bad mode", config.FilterConfig{Mode: "xor"}},
		{"unknown category", config.FilterConfig{Rules: []config.FilterRule{{Field: "category", Exact: "gaming"}}}},
		{"category without exact", config.FilterConfig{Rules: []config.FilterRule{{Field: "category", Contains: "spo"}}}},
		{"bad exclude", config.FilterConfig{Exclude: []config.FilterRule{{Field: "title", Regex: "["}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestParseField(t *testing.T) {
	tests := []struct {
		in   string
		want Field
	}{
		{"title", FieldTitle},
		{"Summary", FieldTitle},
		{"place", FieldLocation},
		{"category", FieldCategory},
		{" calendar ", FieldFeed},
	}
	for _, tt := range tests {
		got, err := ParseField(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseField("organizer")
	assert.ErrorContains(t, err, "unknown field")
}
