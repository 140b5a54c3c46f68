package commands

import (
	"log/slog"

	"fcrawatch/internal/pipeline"
	"fcrawatch/pkg/serviceutil"

	"github.com/spf13/cobra"
)

var (
	crawlJurisdictions []string
	crawlYears         []string
)

func init() {
	for _, cmd := range []*cobra.Command{crawlCmd, runCmd} {
		cmd.Flags().StringSliceVar(&crawlJurisdictions, "jurisdiction", nil, "Only crawls the given jurisdiction ids (repeatable).")
		cmd.Flags().StringSliceVar(&crawlYears, "year", nil, "Only crawls the given filing years, ex. 2015-2016 (repeatable).")
	}
	rootCmd.AddCommand(crawlCmd)
	rootCmd.AddCommand(resumeCmd)
}

func scope() pipeline.Scope {
	return pipeline.Scope{
		Jurisdictions: crawlJurisdictions,
		Years:         crawlYears,
	}
}

var crawlCmd = &cobra.Command{
	Use:   "crawl [--jurisdiction <id>...] [--year <year>...]",
	Short: "Crawls the reporting form and downloads every return that declares contributions.",
	Run: func(cmd *cobra.Command, args []string) {
		a, err := openApp()
		if err != nil {
			serviceutil.Fatal("failed to initialize", err)
		}
		defer a.Close()

		cat, ids, err := a.pipeline.Discover(cmd.Context(), false)
		if err != nil {
			serviceutil.Fatal("failed to discover catalog", err)
		}
		stats, err := a.pipeline.Crawl(cmd.Context(), cat, ids, scope())
		logCrawlStats(stats)
		if err != nil {
			serviceutil.Fatal("crawl stopped", err)
		}
	},
}

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Downloads the documents of every file that was reserved but never written.",
	Run: func(cmd *cobra.Command, args []string) {
		a, err := openApp()
		if err != nil {
			serviceutil.Fatal("failed to initialize", err)
		}
		defer a.Close()

		stats, err := a.pipeline.Resume(cmd.Context())
		slog.Info(
			"resumed pending files",
			"requested", stats.Requested,
			"ok", stats.Ok,
			"broken", stats.Broken,
			"failed", stats.Failed,
		)
		if err != nil {
			serviceutil.Fatal("resume stopped", err)
		}
	},
}

func logCrawlStats(stats pipeline.CrawlStats) {
	slog.Info(
		"crawl finished",
		"units", stats.Crawl.Units,
		"abandoned", stats.Crawl.Abandoned,
		"filings", stats.Crawl.Filings,
		"null_returns", stats.Crawl.Null,
		"downloaded", stats.Acquire.Ok,
		"already_downloaded", stats.Acquire.Skipped,
		"broken", stats.Acquire.Broken,
		"failed", stats.Acquire.Failed,
	)
}
