package commands

import (
	"context"
	"log/slog"

	"fcrawatch/internal/components/chrono"
	"fcrawatch/internal/pipeline"
	"fcrawatch/pkg/serviceutil"

	"github.com/spf13/cobra"
)

var (
	runRefresh bool
	runEvery   string
)

func init() {
	runCmd.Flags().BoolVar(&runRefresh, "refresh", false, "Walks the form again even if the catalog is cached.")
	runCmd.Flags().StringVar(&runEvery, "every", "", "Runs on a cron schedule (ex. \"0 3 * * 1\") instead of once.")
	rootCmd.AddCommand(runCmd)
}

func runOnce(ctx context.Context, a app) error {
	stats, err := a.pipeline.Run(ctx, pipeline.RunOptions{
		Refresh: runRefresh,
		Scope:   scope(),
	})
	logCrawlStats(stats.CrawlStats)
	slog.Info("resume finished", "requested", stats.Resume.Requested, "ok", stats.Resume.Ok)
	logIngestStats(stats.Ingest)
	return err
}

var runCmd = &cobra.Command{
	Use:   "run [--refresh] [--jurisdiction <id>...] [--year <year>...] [--every <cron spec>]",
	Short: "Runs discover, crawl, resume and ingest in that order.",
	Run: func(cmd *cobra.Command, args []string) {
		a, err := openApp()
		if err != nil {
			serviceutil.Fatal("failed to initialize", err)
		}
		defer a.Close()

		ctx := cmd.Context()
		if runEvery == "" {
			err = runOnce(ctx, a)
			if err != nil {
				serviceutil.Fatal("run stopped", err)
			}
			return
		}

		fatal := make(chan error, 1)
		cron := chrono.NewStandardCron(tel, a.clock.Location())
		err = cron.Cron(runEvery, func() {
			err := runOnce(ctx, a)
			if err != nil && ctx.Err() == nil {
				select {
				case fatal <- err:
				default:
				}
			}
		})
		if err != nil {
			cron.Stop()
			serviceutil.Fatal("invalid schedule", err)
		}
		slog.Info("waiting for schedule", "every", runEvery)

		select {
		case <-ctx.Done():
			cron.Stop()
		case err := <-fatal:
			cron.Stop()
			serviceutil.Fatal("run stopped", err)
		}
	},
}
