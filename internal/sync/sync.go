// Package sync provides calendar synchronization from multiple sources.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cpuguy83/dailycommute/internal/calendar"
	"github.com/cpuguy83/dailycommute/internal/config"
	"github.com/cpuguy83/dailycommute/internal/filter"
)

// sourceWithFilter pairs a calendar source with its optional filter.
type sourceWithFilter struct {
	source calendar.Source
	filter *filter.Filter
}

// Syncer builds the agenda of a day from every configured source.
type Syncer struct {
	sources    []sourceWithFilter
	global     *filter.Filter
	categories calendar.Categories
	timeout    time.Duration
}

// NewSyncer creates a new Syncer from configuration.
func NewSyncer(cfg *config.Config) (*Syncer, error) {
	sources, err := createSources(cfg.Sources, cfg.Timeout.Std())
	if err != nil {
		return nil, err
	}

	global, err := filter.New(cfg.Filters)
	if err != nil {
		return nil, fmt.Errorf("filters: %w", err)
	}

	return &Syncer{
		sources:    sources,
		global:     global,
		categories: calendar.Categories(cfg.Categories),
		timeout:    cfg.Timeout.Std(),
	}, nil
}

// SourceCount returns the number of configured sources.
func (s *Syncer) SourceCount() int {
	return len(s.sources)
}

// Sync fetches all sources and returns the events happening on day, filtered
// and in chronological order.
//
// A source that cannot be fetched, or a feed that has to be dropped, is
// logged and left out; the returned error joins those failures and is
// informational. The events are always usable.
func (s *Syncer) Sync(ctx context.Context, day calendar.Day) ([]calendar.Event, error) {
	slog.Info("starting sync", "sources", len(s.sources), "day", day.Date())

	type result struct {
		events  []calendar.Event
		feeds   int
		fetched int // count before filtering
		err     error
	}

	// One slot per source so the outcome keeps the configured order.
	results := make([]result, len(s.sources))
	var wg sync.WaitGroup

	for i, swf := range s.sources {
		wg.Go(func() {
			name := swf.source.Name()
			slog.Debug("fetching source", "name", name)

			fetchCtx := ctx
			if s.timeout > 0 {
				var cancel context.CancelFunc
				fetchCtx, cancel = context.WithTimeout(ctx, s.timeout)
				defer cancel()
			}

			feeds, err := swf.source.Fetch(fetchCtx, day)
			if err != nil {
				results[i] = result{err: fmt.Errorf("source %q: %w", name, err)}
				return
			}

			events, err := calendar.Collect(feeds, s.categories, day)
			fetched := len(events)

			// Apply per-source filter (if no rules, all events pass through)
			if swf.filter != nil {
				events = swf.filter.Apply(events)
			}

			results[i] = result{
				events:  events,
				feeds:   len(feeds),
				fetched: fetched,
				err:     err,
			}
		})
	}

	wg.Wait()

	var (
		allEvents []calendar.Event
		errs      []error
	)
	for i, r := range results {
		name := s.sources[i].source.Name()
		if r.err != nil {
			slog.Warn("failed to sync source", "name", name, "error", r.err)
			errs = append(errs, r.err)
		}
		if r.feeds == 0 {
			continue
		}
		slog.Info("fetched source", "name", name, "feeds", r.feeds, "today", r.fetched, "after_filter", len(r.events))
		allEvents = append(allEvents, r.events...)
	}

	if s.global != nil {
		allEvents = s.global.Apply(allEvents)
	}

	// Merge and sort
	merged := calendar.Merge(allEvents)

	slog.Info("sync complete", "events", len(merged))

	return merged, errors.Join(errs...)
}

// createSources creates calendar sources with their per-source filters from configuration.
func createSources(cfgs []config.SourceConfig, timeout time.Duration) ([]sourceWithFilter, error) {
	var sources []sourceWithFilter

	for _, cfg := range cfgs {
		var src calendar.Source

		switch cfg.Type {
		case "ics":
			password, err := cfg.GetPassword()
			if err != nil {
				return nil, err
			}
			src = calendar.NewICSSource(cfg.Name, cfg.URL, cfg.Username, password).WithTimeout(timeout)

		case "caldav":
			password, err := cfg.GetPassword()
			if err != nil {
				return nil, err
			}
			src = calendar.NewCalDAVSource(cfg.Name, cfg.URL, cfg.Username, password, cfg.Calendars).WithTimeout(timeout)

		case "icloud":
			password, err := cfg.GetPassword()
			if err != nil {
				return nil, err
			}
			src = calendar.NewICloudSource(cfg.Name, cfg.Username, password, cfg.Calendars).WithTimeout(timeout)

		default:
			slog.Warn("unknown source type", "type", cfg.Type, "name", cfg.Name)
			continue
		}

		// Create per-source filter (if no rules, filter passes everything through)
		f, err := filter.New(cfg.Filters)
		if err != nil {
			return nil, fmt.Errorf("source %q filters: %w", cfg.Name, err)
		}

		sources = append(sources, sourceWithFilter{
			source: src,
			filter: f,
		})
	}

	return sources, nil
}
