package main

import (
	"log/slog"

	"github.com/cpuguy83/dailycommute/internal/commute"
	"github.com/spf13/cobra"
)

var (
	runNoUpload bool
	runOutput   string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Build and publish today's page",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := commute.Run(cmd.Context(), cfg, commute.Options{
			Output:   runOutput,
			NoUpload: runNoUpload,
		})
		if err != nil {
			return err
		}
		slog.Info("edition published",
			"path", res.Path,
			"events", res.Events,
			"uploaded", res.Uploaded,
		)
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&runNoUpload, "no-upload", false, "write the page without uploading it")
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "", "write the page to this path instead of the configured output")
}
