package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/cpuguy83/dailycommute/internal/calendar"
	"github.com/cpuguy83/dailycommute/internal/commute"
	"github.com/cpuguy83/dailycommute/internal/page"
	"github.com/cpuguy83/dailycommute/internal/sync"
	"github.com/spf13/cobra"
)

var eventsDate string

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Print today's events",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := commute.ResolveSecrets(ctx, cfg, nil); err != nil {
			return fmt.Errorf("resolve secrets: %w", err)
		}
		loc, err := cfg.Location()
		if err != nil {
			return err
		}
		lang, err := page.ParseLang(cfg.Language)
		if err != nil {
			return err
		}

		now := time.Now()
		if eventsDate != "" {
			now, err = time.ParseInLocation("2006-01-02", eventsDate, loc)
			if err != nil {
				return fmt.Errorf("invalid date %q: %w", eventsDate, err)
			}
		}
		day := calendar.Today(now, loc)

		syncer, err := sync.NewSyncer(cfg)
		if err != nil {
			return fmt.Errorf("create syncer: %w", err)
		}
		if syncer.SourceCount() == 0 {
			return fmt.Errorf("no calendar sources configured")
		}

		events, err := syncer.Sync(ctx, day)
		if err != nil {
			slog.Warn("agenda incomplete", "error", err)
		}
		return page.WriteText(os.Stdout, lang, day, events)
	},
}

func init() {
	eventsCmd.Flags().StringVar(&eventsDate, "date", "", "show events of this day (YYYY-MM-DD) instead of today")
}
