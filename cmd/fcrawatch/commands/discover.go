package commands

import (
	"log/slog"

	"fcrawatch/pkg/serviceutil"

	"github.com/spf13/cobra"
)

var discoverRefresh bool

func init() {
	discoverCmd.Flags().BoolVar(&discoverRefresh, "refresh", false, "Walks the form again even if the catalog is cached.")
	rootCmd.AddCommand(discoverCmd)
}

var discoverCmd = &cobra.Command{
	Use:   "discover [--refresh]",
	Short: "Lists filing periods and jurisdictions and seeds them into the database.",
	Run: func(cmd *cobra.Command, args []string) {
		a, err := openApp()
		if err != nil {
			serviceutil.Fatal("failed to initialize", err)
		}
		defer a.Close()

		cat, ids, err := a.pipeline.Discover(cmd.Context(), discoverRefresh)
		if err != nil {
			serviceutil.Fatal("failed to discover catalog", err)
		}
		slog.Info(
			"discovered catalog",
			"periods", len(cat.Periods),
			"jurisdictions", len(cat.Jurisdictions),
			"sub_jurisdictions", len(ids),
		)
	},
}
