package main

import (
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/cpuguy83/dailycommute/internal/commute"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

var scheduleNow bool

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Publish the page on the configured schedule",
	Long: `Run as a daemon, publishing the page every time the cron spec of the
"schedule" config key fires, in the configured timezone. SIGINT or SIGTERM
stops the daemon after the running edition finishes.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		loc, err := cfg.Location()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		publish := func() {
			res, err := commute.Run(ctx, cfg, commute.Options{})
			if err != nil {
				slog.Error("edition failed", "error", err)
				return
			}
			slog.Info("edition published", "path", res.Path, "events", res.Events, "uploaded", res.Uploaded)
		}

		c := cron.New(cron.WithLocation(loc))
		id, err := c.AddFunc(cfg.Schedule, publish)
		if err != nil {
			return fmt.Errorf("invalid schedule %q: %w", cfg.Schedule, err)
		}
		c.Start()

		slog.Info("dailycommute scheduled",
			"schedule", cfg.Schedule,
			"timezone", loc,
			"next", c.Entry(id).Schedule.Next(time.Now().In(loc)),
		)
		if scheduleNow {
			publish()
		}

		<-ctx.Done()
		slog.Info("received signal, shutting down")
		<-c.Stop().Done()
		return nil
	},
}

func init() {
	scheduleCmd.Flags().BoolVar(&scheduleNow, "now", false, "also publish once at startup")
}
