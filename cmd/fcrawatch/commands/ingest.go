package commands

import (
	"log/slog"

	"fcrawatch/internal/ingest"
	"fcrawatch/pkg/serviceutil"

	"github.com/spf13/cobra"
)

var ingestForce bool

func init() {
	for _, cmd := range []*cobra.Command{ingestCmd, runCmd} {
		cmd.Flags().BoolVar(&ingestForce, "force", false, "Ingests documents that were already ingested again.")
	}
	rootCmd.AddCommand(ingestCmd)
}

var ingestCmd = &cobra.Command{
	Use:   "ingest [--force]",
	Short: "Extracts the donor tables of every downloaded document into the database.",
	Run: func(cmd *cobra.Command, args []string) {
		a, err := openApp()
		if err != nil {
			serviceutil.Fatal("failed to initialize", err)
		}
		defer a.Close()

		stats, err := a.pipeline.Ingest(cmd.Context())
		logIngestStats(stats)
		if err != nil {
			serviceutil.Fatal("ingest stopped", err)
		}
	},
}

func logIngestStats(stats ingest.Stats) {
	slog.Info(
		"ingest finished",
		"documents", stats.Files,
		"ingested", stats.Ingested,
		"skipped", stats.Skipped,
		"failed", stats.Failed,
		"records", stats.Records,
	)
}
