package commands

import (
	"fmt"
	"os"
	"time"

	"fcrawatch/pkg/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var statusLimit int

func init() {
	statusCmd.Flags().IntVar(&statusLimit, "limit", 50, "The maximum amount of unresolved files to list, 0 lists all of them.")
	rootCmd.AddCommand(statusCmd)
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}

var statusCmd = &cobra.Command{
	Use:   "status [--limit <n>]",
	Short: "Prints what the database holds and which files are still unresolved.",
	Run: func(cmd *cobra.Command, args []string) {
		s, err := openStore()
		if err != nil {
			serviceutil.Fatal("failed to open db", err)
		}
		defer s.db.Close()

		counts, err := s.qry.CountCatalog(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to count catalog", err)
		}

		t := newTable()
		t.AppendHeader(table.Row{"Table", "Rows"})
		t.AppendRows([]table.Row{
			{"jurisdictions", counts.Jurisdictions},
			{"sub-jurisdictions", counts.SubJurisdictions},
			{"organizations", counts.Organizations},
			{"files", counts.Files},
			{"  pending download", counts.Pending},
			{"  broken", counts.Broken},
			{"  ingested", counts.Ingested},
			{"disclosures", counts.Disclosures},
		})
		t.Render()

		unresolved, err := s.qry.ListUnresolvedFiles(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to list unresolved files", err)
		}
		if len(unresolved) == 0 {
			return
		}

		t = newTable()
		t.AppendHeader(table.Row{"File", "FCRA", "Period", "Sub-jurisdiction", "Attempts", "State", "Downloaded"})
		for i, file := range unresolved {
			if statusLimit > 0 && i >= statusLimit {
				break
			}
			state := "pending"
			downloaded := ""
			if file.Path.Valid {
				state = file.Integrity.String
			}
			if file.DownloadedAt.Valid {
				downloaded = time.Unix(file.DownloadedAt.Int64, 0).Format(time.DateTime)
			}
			t.AppendRow(table.Row{
				file.FileID,
				file.Fcra,
				fmt.Sprintf("%s q%s", file.Year, file.Quarter),
				fmt.Sprintf("%s/%s", file.JurisdictionID, file.LocalCode),
				file.Attempts,
				state,
				downloaded,
			})
		}
		if statusLimit > 0 && len(unresolved) > statusLimit {
			t.AppendFooter(table.Row{"", "", "", "", "", "", fmt.Sprintf("%d more", len(unresolved)-statusLimit)})
		}
		t.Render()
	},
}
