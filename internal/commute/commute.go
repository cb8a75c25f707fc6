// Package commute assembles and publishes one edition of the daily page.
package commute

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	gosync "sync"
	"time"

	"github.com/cpuguy83/dailycommute/internal/calendar"
	"github.com/cpuguy83/dailycommute/internal/config"
	"github.com/cpuguy83/dailycommute/internal/ephemeris"
	"github.com/cpuguy83/dailycommute/internal/page"
	"github.com/cpuguy83/dailycommute/internal/quote"
	"github.com/cpuguy83/dailycommute/internal/sync"
	"github.com/cpuguy83/dailycommute/internal/upload"
	"github.com/cpuguy83/dailycommute/internal/weather"
)

// Options tune a single run.
type Options struct {
	Output   string // overrides the configured output path
	NoUpload bool

	// Now returns the current time, time.Now when nil.
	Now func() time.Time
	// Params reads *_param secrets. An SSM client is created when nil and
	// a secret needs it.
	Params config.ParameterGetter
	// Upload publishes the page, upload.Upload when nil.
	Upload func(ctx context.Context, cfg upload.Config, path string) error
}

// Result describes a finished run.
type Result struct {
	Path     string // where the page was written
	Events   int
	Uploaded bool
	Removed  bool // the page was a temporary file and has been deleted
}

// ResolveSecrets reads the secrets configured through Parameter Store, if any.
func ResolveSecrets(ctx context.Context, cfg *config.Config, params config.ParameterGetter) error {
	if !cfg.NeedsSSM() {
		return nil
	}
	if params == nil {
		client, err := cfg.NewSSMClient(ctx)
		if err != nil {
			return err
		}
		params = client
	}
	slog.Debug("resolving secrets from parameter store", "region", cfg.SSM.Region)
	return cfg.ResolveSecrets(ctx, params)
}

// Build gathers everything printed on today's page.
//
// The weather is required: without it no edition is produced. Calendar,
// ephemeris and quote failures are logged and the matching sections left
// out.
func Build(ctx context.Context, cfg *config.Config, opts Options) (page.Edition, error) {
	loc, err := cfg.Location()
	if err != nil {
		return page.Edition{}, err
	}
	lang, err := page.ParseLang(cfg.Language)
	if err != nil {
		return page.Edition{}, err
	}
	syncer, err := sync.NewSyncer(cfg)
	if err != nil {
		return page.Edition{}, fmt.Errorf("create syncer: %w", err)
	}

	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	day := calendar.Today(now(), loc)
	ed := page.Edition{Lang: lang, Day: day}

	var (
		wg         gosync.WaitGroup
		weatherErr error
	)
	wg.Go(func() {
		client := weather.NewClient(weather.Config{
			URL:    cfg.Weather.URL,
			APIKey: cfg.Weather.APIKey,
			Lat:    cfg.Weather.Lat,
			Lon:    cfg.Weather.Lon,
			Hours:  cfg.Weather.Hours,
			Units:  cfg.Weather.Units,
			Lang:   cfg.Weather.Lang,
		}).WithTimeout(cfg.Timeout.Std())
		ed.Weather, weatherErr = client.Report(ctx)
	})
	wg.Go(func() {
		events, err := syncer.Sync(ctx, day)
		if err != nil {
			slog.Warn("agenda incomplete", "error", err)
		}
		ed.Events = events
	})
	if cfg.Quotes.RonSwanson {
		wg.Go(func() {
			q, err := quote.NewRonSwanson(cfg.Quotes.RonSwansonURL).Fetch(ctx)
			if err != nil {
				slog.Warn("ron swanson quote unavailable", "error", err)
				return
			}
			ed.RonSwanson = q
		})
	}

	if cfg.Ephemeris != "" {
		entry, err := todaysEphemeris(cfg.Ephemeris, day.Start)
		if err != nil {
			slog.Warn("ephemeris unavailable", "file", cfg.Ephemeris, "error", err)
		} else {
			ed.Ephemeris = &entry
		}
	}
	if cfg.Quotes.File != "" {
		quotes, err := quote.LoadFile(cfg.Quotes.File)
		if err != nil {
			slog.Warn("quotes unavailable", "file", cfg.Quotes.File, "error", err)
		} else {
			ed.Quote = quote.OfTheDay(quotes, day.Start)
		}
	}

	wg.Wait()
	if weatherErr != nil {
		return page.Edition{}, fmt.Errorf("weather: %w", weatherErr)
	}

	slog.Info("edition ready",
		"day", day.Date(),
		"events", len(ed.Events),
		"weather", ed.Weather.Kind,
		"ephemeris", ed.Ephemeris != nil,
		"quote", !ed.Quote.Empty(),
	)
	return ed, nil
}

func todaysEphemeris(path string, now time.Time) (ephemeris.Entry, error) {
	eph, err := ephemeris.Load(path)
	if err != nil {
		return ephemeris.Entry{}, err
	}
	return eph.Today(now)
}

// Run produces today's page and publishes it: the page is written, today's
// events are optionally exported as ICS, then the page is uploaded when an
// FTP server is configured.
func Run(ctx context.Context, cfg *config.Config, opts Options) (*Result, error) {
	if err := ResolveSecrets(ctx, cfg, opts.Params); err != nil {
		return nil, fmt.Errorf("resolve secrets: %w", err)
	}

	ed, err := Build(ctx, cfg, opts)
	if err != nil {
		return nil, err
	}

	out := cfg.Output
	if opts.Output != "" {
		out = opts.Output
	}
	if err := page.WriteFile(out, ed); err != nil {
		return nil, fmt.Errorf("write page: %w", err)
	}
	slog.Info("page written", "path", out)
	res := &Result{Path: out, Events: len(ed.Events)}

	if cfg.ICSExport != "" {
		if err := calendar.WriteICS(cfg.ICSExport, ed.Events); err != nil {
			slog.Warn("ics export failed", "path", cfg.ICSExport, "error", err)
		} else {
			slog.Debug("ics exported", "path", cfg.ICSExport)
		}
	}

	if cfg.FTP.Addr == "" || opts.NoUpload {
		return res, nil
	}

	password, err := cfg.FTP.GetPassword()
	if err != nil {
		return res, fmt.Errorf("ftp password: %w", err)
	}
	up := opts.Upload
	if up == nil {
		up = upload.Upload
	}
	err = up(ctx, upload.Config{
		Addr:       cfg.FTP.Addr,
		Username:   cfg.FTP.Username,
		Password:   password,
		Dir:        cfg.FTP.Dir,
		RemoteName: cfg.FTP.RemoteName,
		Timeout:    cfg.Timeout.Std(),
	}, out)
	if err != nil {
		return res, fmt.Errorf("upload page: %w", err)
	}
	res.Uploaded = true
	slog.Info("page uploaded", "addr", cfg.FTP.Addr, "remote", cfg.FTP.RemoteName)

	if out == config.DefaultOutput() {
		if err := os.Remove(out); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Warn("remove temporary page", "path", out, "error", err)
		} else {
			res.Removed = true
		}
	}
	return res, nil
}
